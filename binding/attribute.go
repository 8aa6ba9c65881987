package binding

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// Kind is the value type of an attribute.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute is one host-visible hyperparameter. Get and Set go straight to
// the core model; the attribute holds no value of its own.
type Attribute struct {
	Name string
	Kind Kind
	Help string

	get func() any
	set func(any) error
}

// IntAttribute builds an integer attribute.
func IntAttribute(name, help string, get func() int, set func(int) error) Attribute {
	return Attribute{
		Name: name,
		Kind: KindInt,
		Help: help,
		get:  func() any { return get() },
		set:  func(v any) error { return set(v.(int)) },
	}
}

// FloatAttribute builds a floating point attribute.
func FloatAttribute(name, help string, get func() float64, set func(float64) error) Attribute {
	return Attribute{
		Name: name,
		Kind: KindFloat,
		Help: help,
		get:  func() any { return get() },
		set:  func(v any) error { return set(v.(float64)) },
	}
}

// BoolAttribute builds a boolean attribute. Boolean setters cannot fail.
func BoolAttribute(name, help string, get func() bool, set func(bool)) Attribute {
	return Attribute{
		Name: name,
		Kind: KindBool,
		Help: help,
		get:  func() any { return get() },
		set: func(v any) error {
			set(v.(bool))
			return nil
		},
	}
}

// Get returns the current value read from the core.
func (a Attribute) Get() any {
	return a.get()
}

// Set converts v to the attribute kind and forwards it to the core.
func (a Attribute) Set(v any) error {
	converted, err := a.Kind.convert(a.Name, v)
	if err != nil {
		return err
	}
	return a.set(converted)
}

// convert accepts Go values of any numeric or boolean type and the textual
// form used by host messages.
func (k Kind) convert(name string, v any) (any, error) {
	if s, ok := v.(string); ok {
		return k.parse(name, s)
	}

	switch k {
	case KindInt:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				if x < math.MinInt || x >= math.MaxInt {
					return nil, errors.NewValidationErrorWithHint(name, "out of range for int",
						fmt.Sprintf("must be between %d and %d", math.MinInt, math.MaxInt), v)
				}
				return int(x), nil
			}
		case bool:
			return boolToInt(x), nil
		}
	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int:
			return x != 0, nil
		case int64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
	}
	return nil, errors.NewValidationErrorWithHint(name,
		fmt.Sprintf("cannot use %T as %s", v, k), "expects a value of type "+k.String(), v)
}

func (k Kind) parse(name, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch k {
	case KindInt:
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		// Hosts often send integers as floats ("3.0")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return k.convert(name, f)
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	case KindBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f != 0, nil
		}
	}
	return nil, errors.NewValidationErrorWithHint(name,
		fmt.Sprintf("cannot parse %q as %s", s, k), "expects a value of type "+k.String(), s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FormatValue renders an attribute value the way replies carry it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.Itoa(boolToInt(x))
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Table is the ordered set of attributes of one object.
type Table struct {
	attrs []Attribute
	index map[string]int
}

// NewTable builds a table. Duplicate names panic.
func NewTable(attrs ...Attribute) *Table {
	t := &Table{index: make(map[string]int, len(attrs))}
	for _, a := range attrs {
		if _, dup := t.index[a.Name]; dup {
			panic("binding: duplicate attribute " + a.Name)
		}
		t.index[a.Name] = len(t.attrs)
		t.attrs = append(t.attrs, a)
	}
	return t
}

// Lookup returns the attribute called name.
func (t *Table) Lookup(name string) (Attribute, error) {
	i, ok := t.index[name]
	if !ok {
		return Attribute{}, errors.NewValidationErrorWithHint(name, "unknown attribute",
			"valid attributes: "+strings.Join(t.Names(), ", "), name)
	}
	return t.attrs[i], nil
}

// Names returns the attribute names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.attrs))
	for i, a := range t.attrs {
		names[i] = a.Name
	}
	return names
}

// All returns the attributes in registration order.
func (t *Table) All() []Attribute {
	return append([]Attribute(nil), t.attrs...)
}

// Len returns the number of attributes.
func (t *Table) Len() int {
	return len(t.attrs)
}

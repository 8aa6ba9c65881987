package binding

import (
	"slices"
	"strings"
	"sync"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// Constructor creates an object of one class.
type Constructor func(name string, opts ...ObjectOption) *Object

// Registry maps class names to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with ml.dtree, ml.linreg and ml.logreg.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(ClassDTree, NewDTree)
	r.MustRegister(ClassLinReg, NewLinReg)
	r.MustRegister(ClassLogReg, NewLogReg)
	return r
}

// Register adds a class. Registering a class twice is an error.
func (r *Registry) Register(class string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[class]; ok {
		return errors.Newf("class %q is already registered", class)
	}
	r.ctors[class] = ctor
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(class string, ctor Constructor) {
	if err := r.Register(class, ctor); err != nil {
		panic(err)
	}
}

// New creates an object of the given class.
func (r *Registry) New(class, name string, opts ...ObjectOption) (*Object, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[class]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewValidationErrorWithHint("class", "unknown class",
			"one of "+strings.Join(r.Classes(), ", "), class)
	}
	return ctor(name, opts...), nil
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]string, 0, len(r.ctors))
	for c := range r.ctors {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	return classes
}

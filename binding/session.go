package binding

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/pkg/telemetry"
)

// Session owns named objects and dispatches text messages to them.
type Session struct {
	mu       sync.Mutex
	registry *Registry
	objects  map[string]*Object
	out      io.Writer
	logger   log.Logger
	metrics  *telemetry.Metrics
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRegistry replaces the default class registry.
func WithRegistry(r *Registry) SessionOption {
	return func(s *Session) { s.registry = r }
}

// WithOutput sets where replies are written. Replies are discarded by default.
func WithOutput(w io.Writer) SessionOption {
	return func(s *Session) { s.out = w }
}

// WithSessionLogger sets the logger used by the session and its objects.
func WithSessionLogger(l log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithSessionMetrics enables metrics for the session and its objects.
func WithSessionMetrics(m *telemetry.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		registry: DefaultRegistry(),
		objects:  make(map[string]*Object),
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("session")
	}
	return s
}

// New creates an object of class under name.
func (s *Session) New(class, name string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; ok {
		return nil, errors.NewValueError("new", fmt.Sprintf("object %q already exists", name))
	}
	var opts []ObjectOption
	if s.logger != nil {
		opts = append(opts, WithLogger(s.logger))
	}
	if s.metrics != nil {
		opts = append(opts, WithMetrics(s.metrics))
	}
	obj, err := s.registry.New(class, name, opts...)
	if err != nil {
		return nil, err
	}
	s.objects[name] = obj
	return obj, nil
}

// Object returns the object called name.
func (s *Session) Object(name string) (*Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Names returns the object names, sorted.
func (s *Session) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Close releases every object.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, obj := range s.objects {
		obj.Close()
		delete(s.objects, name)
	}
}

// Dispatch executes one message line. Blank lines and lines starting with
// '#' are ignored.
func (s *Session) Dispatch(line string) (err error) {
	defer errors.Recover(&err, "Session.Dispatch")

	fields := strings.Fields(line)
	// '#' starts a comment only at the beginning of a field
	for i, f := range fields {
		if strings.HasPrefix(f, "#") {
			fields = fields[:i]
			break
		}
	}
	if len(fields) == 0 {
		return nil
	}

	if fields[0] == "new" {
		if len(fields) != 3 {
			return errors.NewValueError("new", "usage: new <class> <name>")
		}
		_, err := s.New(fields[1], fields[2])
		return err
	}
	if len(fields) < 2 {
		return errors.NewValueError(fields[0], "missing message")
	}

	name, verb, args := fields[0], fields[1], fields[2:]
	obj, ok := s.Object(name)
	if !ok {
		return errors.NewValueError(verb, fmt.Sprintf("no object named %q", name))
	}

	err = s.dispatch(obj, verb, args)
	if err != nil {
		s.metrics.RecordMessageFailure(verb)
	}
	return err
}

func (s *Session) dispatch(obj *Object, verb string, args []string) error {
	name := obj.Name()
	switch verb {
	case "get":
		if len(args) != 1 {
			return errors.NewValueError(name+".get", "usage: get <attribute>")
		}
		v, err := obj.Get(args[0])
		if err != nil {
			return err
		}
		return s.reply(name, args[0], FormatValue(v))

	case "add":
		nums, err := parseFloats(name+".add", args)
		if err != nil {
			return err
		}
		if len(nums) < 2 {
			return errors.NewValueError(name+".add", "usage: add <label> <features...>")
		}
		return obj.Add(nums[0], nums[1:]...)

	case "train":
		return obj.Train()

	case "predict":
		nums, err := parseFloats(name+".predict", args)
		if err != nil {
			return err
		}
		v, err := obj.Predict(nums...)
		if err != nil {
			return err
		}
		return s.reply(name, "predict", strconv.FormatFloat(v, 'g', -1, 64))

	case "write", "read", "plot", "draw":
		if len(args) != 1 {
			return errors.NewValueError(name+"."+verb, "usage: "+verb+" <path>")
		}
		switch verb {
		case "write":
			return obj.Save(args[0])
		case "read":
			return obj.Load(args[0])
		case "draw":
			return obj.Draw(args[0])
		default:
			return obj.Plot(args[0])
		}

	case "clear":
		obj.Clear()
		return nil

	case "help":
		_, err := io.WriteString(s.out, obj.Help())
		return err

	default:
		// Anything else is an attribute set: "<name> <attribute> <value>".
		if len(args) != 1 {
			return errors.NewValueError(name+"."+verb, "usage: <attribute> <value>")
		}
		return obj.Set(verb, args[0])
	}
}

func (s *Session) reply(fields ...string) error {
	_, err := fmt.Fprintln(s.out, strings.Join(fields, " "))
	return err
}

// Run dispatches every line of r. Failing messages are logged and skipped.
// It returns the number of failed messages.
func (s *Session) Run(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	failures, lineNo := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if err := s.Dispatch(line); err != nil {
			failures++
			s.logger.Warn("message failed", err, "line", lineNo, "message", strings.TrimSpace(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return failures, errors.Wrap(err, "reading messages")
	}
	return failures, nil
}

func parseFloats(op string, args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, errors.NewValueError(op, fmt.Sprintf("%q is not a number", a))
		}
		out[i] = f
	}
	return out, nil
}

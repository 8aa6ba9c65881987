// Package config loads mlhost session files.
//
// A session file declares the log level, an optional metrics address and the
// objects to create together with their initial attribute values:
//
//	log_level: debug
//	metrics_addr: ":9090"
//	objects:
//	  - class: ml.dtree
//	    name: tree
//	    attributes:
//	      max_depth: 4
//	      training_mode: 1
package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/mllib/binding"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
)

// Config is a session file.
type Config struct {
	LogLevel    string         `yaml:"log_level"`
	MetricsAddr string         `yaml:"metrics_addr,omitempty"`
	Objects     []ObjectConfig `yaml:"objects,omitempty"`
}

// ObjectConfig declares one object.
type ObjectConfig struct {
	Class      string         `yaml:"class"`
	Name       string         `yaml:"name"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

// Default returns a config with no objects, logging at info.
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load reads and validates the session file at path. Missing keys keep
// their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a session file.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the log level and that every object has a known class and
// a unique name. Attribute values are checked when the config is applied.
func (c Config) Validate() error {
	if _, err := log.ToLogLevel(c.LogLevel); err != nil {
		return err
	}
	classes := binding.DefaultRegistry().Classes()
	seen := make(map[string]bool, len(c.Objects))
	for i, o := range c.Objects {
		if o.Name == "" {
			return errors.NewValidationError(fmt.Sprintf("objects[%d].name", i), "must not be empty", o.Name)
		}
		if seen[o.Name] {
			return errors.NewValidationError(fmt.Sprintf("objects[%d].name", i), "duplicate object name", o.Name)
		}
		seen[o.Name] = true
		if !slices.Contains(classes, o.Class) {
			return errors.NewValidationErrorWithHint(fmt.Sprintf("objects[%d].class", i), "unknown class",
				fmt.Sprintf("one of %v", classes), o.Class)
		}
	}
	return nil
}

// Apply creates the declared objects in s and sets their attributes in
// name order. It stops at the first failure.
func (c Config) Apply(s *binding.Session) error {
	for _, o := range c.Objects {
		obj, err := s.New(o.Class, o.Name)
		if err != nil {
			return errors.Wrapf(err, "creating %s", o.Name)
		}
		names := make([]string, 0, len(o.Attributes))
		for name := range o.Attributes {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if err := obj.Set(name, o.Attributes[name]); err != nil {
				return errors.Wrapf(err, "configuring %s", o.Name)
			}
		}
	}
	return nil
}

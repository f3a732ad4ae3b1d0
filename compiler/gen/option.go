package gen

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Config controls how a snapshot is turned into a Schema.
type Config struct {
	// Mapper maps native types. When nil, a Mapper with the default
	// tables, Scalars and JSONScalar is used.
	Mapper *Mapper
	// Scalars adds native type to scalar entries to the override table.
	Scalars map[string]string
	// JSONScalar is the scalar dictionaries map to. Defaults to AWSJSON.
	JSONScalar string
	// CheckConformance validates that objects declare every field of the
	// interfaces they implement, with compatible types.
	CheckConformance bool
	// EagerReferences validates type references, union members and
	// interfaces while building instead of leaving it to the emitters.
	EagerReferences bool
}

// Option configures schema building.
type Option func(*Config) error

// WithMapper sets a custom type mapper.
func WithMapper(m *Mapper) Option {
	return func(c *Config) error {
		if m == nil {
			return NewConfigError("Mapper", nil, "mapper cannot be nil")
		}
		c.Mapper = m
		return nil
	}
}

// WithScalars maps additional native types to scalars. Entries take
// precedence over the default override table.
//
// Example:
//
//	gen.WithScalars(map[string]string{"example.com/money.Amount": "Float"})
func WithScalars(entries map[string]string) Option {
	return func(c *Config) error {
		for native, scalar := range entries {
			if native == "" || !ValidName(scalar) {
				return NewConfigError("Scalars", native, fmt.Sprintf("invalid scalar mapping to %q", scalar))
			}
		}
		if c.Scalars == nil {
			c.Scalars = make(map[string]string, len(entries))
		}
		maps.Copy(c.Scalars, entries)
		return nil
	}
}

// WithJSONScalar sets the scalar string-keyed dictionaries map to.
func WithJSONScalar(name string) Option {
	return func(c *Config) error {
		if !ValidName(name) {
			return NewConfigError("JSONScalar", name, "not a valid GraphQL name")
		}
		c.JSONScalar = name
		return nil
	}
}

// WithConformance enables or disables interface conformance checks.
func WithConformance(enabled bool) Option {
	return func(c *Config) error {
		c.CheckConformance = enabled
		return nil
	}
}

// WithEagerReferences enables reference validation while building.
func WithEagerReferences(enabled bool) Option {
	return func(c *Config) error {
		c.EagerReferences = enabled
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		JSONScalar:       AWSJSON,
		CheckConformance: true,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// TypeMapper returns the configured Mapper, building it from Scalars and
// JSONScalar when unset.
func (c *Config) TypeMapper() *Mapper {
	if c.Mapper != nil {
		return c.Mapper
	}
	opts := []MapperOption{WithOverrides(DefaultOverrides().With(c.Scalars))}
	if c.JSONScalar != "" {
		opts = append(opts, WithDictionaryScalar(c.JSONScalar))
	}
	return NewMapper(opts...)
}

// Fingerprint returns a stable rendering of the settings that influence
// the generated artifacts. A custom Mapper is not part of it.
func (c *Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "json=%s;conformance=%t;eager=%t;custom=%t", c.JSONScalar, c.CheckConformance, c.EagerReferences, c.Mapper != nil)
	for _, k := range slices.Sorted(maps.Keys(c.Scalars)) {
		fmt.Fprintf(&b, ";%s=%s", k, c.Scalars[k])
	}
	return b.String()
}

package compiler

import (
	"errors"
	"io"
	"log/slog"
	"maps"

	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/gen/manifest"
	"github.com/syssam/appsyncgen/compiler/gen/sdl"
)

// Option configures a compilation pass.
type Option func(*options) error

type options struct {
	cfg     *gen.Config
	genOpts []gen.Option
	sdlOpts []sdl.Option
	verify  bool
	format  manifest.Format
	goPkg   string
	logger  *slog.Logger
}

// WithConfig sets the builder configuration. Options passed with
// WithGenOptions are applied on top of it.
func WithConfig(cfg *gen.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return gen.NewConfigError("Config", nil, "config is nil")
		}
		o.cfg = cfg
		return nil
	}
}

// WithGenOptions adds builder options.
func WithGenOptions(opts ...gen.Option) Option {
	return func(o *options) error {
		o.genOpts = append(o.genOpts, opts...)
		return nil
	}
}

// WithSDLOptions adds SDL emitter options.
func WithSDLOptions(opts ...sdl.Option) Option {
	return func(o *options) error {
		o.sdlOpts = append(o.sdlOpts, opts...)
		return nil
	}
}

// WithVerify enables re-parsing the emitted SDL with gqlparser and checking
// the manifest against it.
func WithVerify(enabled bool) Option {
	return func(o *options) error {
		o.verify = enabled
		return nil
	}
}

// WithManifestFormat sets the manifest encoding. Defaults to JSON.
func WithManifestFormat(f manifest.Format) Option {
	return func(o *options) error {
		parsed, err := manifest.ParseFormat(string(f))
		if err != nil {
			return err
		}
		o.format = parsed
		return nil
	}
}

// WithGoBindings enables the Go bindings artifact, rendered as package pkg.
func WithGoBindings(pkg string) Option {
	return func(o *options) error {
		if pkg == "" {
			return gen.NewConfigError("GoBindings", pkg, "package name is required")
		}
		o.goPkg = pkg
		return nil
	}
}

// WithLogger sets the logger receiving debug records of the pass.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return gen.NewConfigError("Logger", nil, "logger is nil")
		}
		o.logger = l
		return nil
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := &options{
		format: manifest.FormatJSON,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	var errs []error
	for _, opt := range opts {
		if err := opt(o); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if o.cfg == nil {
		cfg, err := gen.NewConfig(o.genOpts...)
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
		return o, nil
	}
	if len(o.genOpts) > 0 {
		cfg := *o.cfg
		cfg.Scalars = maps.Clone(o.cfg.Scalars)
		if err := cfg.ApplyAll(o.genOpts...); err != nil {
			return nil, err
		}
		o.cfg = &cfg
	}
	return o, nil
}

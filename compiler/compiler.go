// Package compiler runs a compilation pass: it builds the schema model from
// a declaration snapshot and renders the SDL document, the resolver
// manifest and, optionally, Go bindings.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/gen/gobind"
	"github.com/syssam/appsyncgen/compiler/gen/manifest"
	"github.com/syssam/appsyncgen/compiler/gen/sdl"
	"github.com/syssam/appsyncgen/compiler/load"
)

// Artifacts are the outputs of one compilation pass.
type Artifacts struct {
	// Schema is the model the artifacts were rendered from. It is not
	// part of cached artifacts.
	Schema *gen.Schema `msgpack:"-"`
	// SDL is the GraphQL schema document.
	SDL []byte `msgpack:"sdl"`
	// Manifest is the encoded resolver manifest.
	Manifest       []byte          `msgpack:"manifest"`
	ManifestFormat manifest.Format `msgpack:"manifestFormat"`
	// GoBindings is the Go source of the bindings, if enabled.
	GoBindings []byte `msgpack:"goBindings,omitempty"`
	GoPackage  string `msgpack:"goPackage,omitempty"`
}

// Load materializes the snapshot of a declaration source.
func Load(src load.Source) (*load.Snapshot, error) {
	if src == nil {
		return nil, gen.NewConfigError("Source", nil, "declaration source is required")
	}
	snap, err := src.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}
	if snap == nil {
		return nil, gen.NewConfigError("Source", nil, "source returned no snapshot")
	}
	return snap, nil
}

// Compile runs one pass over snap. Any error aborts the pass and no
// artifact is returned.
func Compile(snap *load.Snapshot, opts ...Option) (*Artifacts, error) {
	if snap == nil {
		return nil, gen.NewConfigError("Snapshot", nil, "snapshot is required")
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	log := o.logger.With("schema", snap.Name)

	s, err := gen.NewSchema(o.cfg, snap)
	if err != nil {
		return nil, err
	}
	log.Debug("schema built",
		"types", len(s.Types),
		"operations", len(s.Operations),
		"scalars", len(s.Scalars),
	)

	doc, err := sdl.Emit(s, o.sdlOpts...)
	if err != nil {
		return nil, err
	}
	if o.verify {
		if err := sdl.Verify(doc); err != nil {
			return nil, err
		}
	}

	m := manifest.Build(s)
	if o.verify {
		if err := m.CheckAgainst(doc); err != nil {
			return nil, err
		}
	}
	encoded, err := manifest.Marshal(m, o.format)
	if err != nil {
		return nil, err
	}

	a := &Artifacts{
		Schema:         s,
		SDL:            doc,
		Manifest:       encoded,
		ManifestFormat: o.format,
	}
	if o.goPkg != "" {
		src, err := gobind.Generate(s, o.goPkg)
		if err != nil {
			return nil, err
		}
		a.GoBindings, a.GoPackage = src, o.goPkg
	}
	log.Debug("artifacts rendered",
		"sdl_bytes", len(a.SDL),
		"resolvers", len(m.Resolvers),
		"verified", o.verify,
		"duration", time.Since(start),
	)
	return a, nil
}

// CompileSource loads src and compiles the resulting snapshot. The context
// is checked before each stage.
func CompileSource(ctx context.Context, src load.Source, opts ...Option) (*Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := Load(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Compile(snap, opts...)
}

var _ slog.LogValuer = (*Artifacts)(nil)

// LogValue implements slog.LogValuer.
func (a *Artifacts) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sdl", len(a.SDL)),
		slog.Int("manifest", len(a.Manifest)),
		slog.Int("go", len(a.GoBindings)),
	)
}

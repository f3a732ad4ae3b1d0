// Package project builds the projects of a project file.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/appsyncgen"
	"github.com/syssam/appsyncgen/compiler"
	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/load"
	"github.com/syssam/appsyncgen/internal/config"
	"github.com/syssam/appsyncgen/internal/logging"
)

// Runner builds projects concurrently, one compilation pass per project.
type Runner struct {
	// Cache, if set, short-circuits passes whose snapshot was built before.
	Cache appsyncgen.Cache
	// TTL of cache entries. Zero keeps entries forever.
	TTL time.Duration
	// Verify forces SDL verification for every project.
	Verify bool
	// Workers limits concurrent passes. Defaults to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Result reports the build of one project.
type Result struct {
	Project   string
	Cached    bool
	Written   []string
	Unchanged []string
}

// Build runs every project and returns one result per project, in input
// order. Failed projects have a nil result; their errors are returned
// together as ProjectErrors.
func (r *Runner) Build(ctx context.Context, projects []*config.Project) ([]*Result, error) {
	results := make([]*Result, len(projects))
	errs := make([]error, len(projects))
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, p := range projects {
		eg.Go(func() error {
			res, err := r.build(ctx, p)
			if err != nil {
				errs[i] = &appsyncgen.ProjectError{Project: p.Name, Err: err}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()
	return results, appsyncgen.NewAggregateError(errs...)
}

func (r *Runner) build(ctx context.Context, p *config.Project) (*Result, error) {
	log := r.logger().With("project", p.Name)
	start := time.Now()
	snap, err := compiler.Load(p.DeclarationSource())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := append(p.CompileOptions(r.Verify), compiler.WithLogger(log))

	var key string
	if r.Cache != nil {
		if key, err = cacheKey(p, r.Verify, snap); err != nil {
			return nil, err
		}
		if a, err := r.lookup(ctx, key); err != nil {
			log.Warn("ignoring cache entry", "error", err)
		} else if a != nil {
			res, err := write(ctx, p, a)
			if err != nil {
				return nil, err
			}
			res.Cached = true
			log.Info("project up to date", "cached", true, "written", len(res.Written), "duration", time.Since(start))
			return res, nil
		}
	}

	a, err := compiler.Compile(snap, opts...)
	if err != nil {
		return nil, err
	}
	res, err := write(ctx, p, a)
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		if err := r.store(ctx, key, a); err != nil {
			log.Warn("cache update failed", "error", err)
		}
	}
	log.Info("project built", "artifacts", a, "written", len(res.Written), "duration", time.Since(start))
	return res, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*compiler.Artifacts, error) {
	b, err := r.Cache.Get(ctx, key)
	if err != nil || b == nil {
		return nil, err
	}
	return appsyncgen.DecodeArtifacts(b)
}

func (r *Runner) store(ctx context.Context, key string, a *compiler.Artifacts) error {
	b, err := appsyncgen.EncodeArtifacts(a)
	if err != nil {
		return err
	}
	return r.Cache.Set(ctx, key, b, r.TTL)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}

func write(ctx context.Context, p *config.Project, a *compiler.Artifacts) (*Result, error) {
	wr, err := a.WriteContext(ctx, p.Outputs())
	if err != nil {
		return nil, err
	}
	return &Result{Project: p.Name, Written: wr.Written, Unchanged: wr.Unchanged}, nil
}

// cacheKey derives the cache key of a project pass from its snapshot and
// every setting that shapes the artifacts.
func cacheKey(p *config.Project, verify bool, snap *load.Snapshot) (string, error) {
	cfg, err := gen.NewConfig(p.GenOptions()...)
	if err != nil {
		return "", err
	}
	fp := fmt.Sprintf("%s;verify=%t;manifest=%s", cfg.Fingerprint(), verify || p.Verify, p.Output.ManifestFormat)
	if b := p.Output.GoBindings; b != nil {
		fp += ";go=" + b.Package
	}
	return appsyncgen.SnapshotKey(snap, fp)
}

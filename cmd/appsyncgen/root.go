package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/syssam/appsyncgen/internal/buildcache"
	"github.com/syssam/appsyncgen/internal/config"
	"github.com/syssam/appsyncgen/internal/logging"
	"github.com/syssam/appsyncgen/internal/project"
)

// globals are the persistent flags shared by all commands.
type globals struct {
	configPath string
	cacheDir   string
	noCache    bool
	verify     bool
	logLevel   string
	logFormat  string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "appsyncgen",
		Short: "Generate AppSync schemas and resolver manifests from Go declarations",
		Long: `appsyncgen compiles the declarations of the projects in appsyncgen.yaml
into a GraphQL schema document, a resolver manifest and, optionally, Go
bindings with operation names.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logging.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(g.logFormat)
			if err != nil {
				return err
			}
			g.logger = logging.New(logging.Config{Level: level, Format: format, Output: cmd.ErrOrStderr()})
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "project file (default: appsyncgen.yaml in the working directory)")
	flags.StringVar(&g.cacheDir, "cache-dir", defaultCacheDir(), "directory of the build cache")
	flags.BoolVar(&g.noCache, "no-cache", false, "always recompile")
	flags.BoolVar(&g.verify, "verify", false, "verify the emitted SDL with a GraphQL parser")
	flags.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(
		newBuildCmd(g),
		newWatchCmd(g),
		newVersionCmd(),
	)
	return cmd
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "appsyncgen")
	}
	return filepath.Join(dir, "appsyncgen")
}

// projects loads the project file and selects the named projects.
func (g *globals) projects(names []string) ([]*config.Project, error) {
	path := g.configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path = config.Find(wd); path == "" {
			return nil, errors.New("appsyncgen: no appsyncgen.yaml found; pass --config")
		}
	}
	f, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return f.Select(names...)
}

// runner returns a project runner and a function releasing its cache.
func (g *globals) runner(ctx context.Context) (*project.Runner, func(), error) {
	r := &project.Runner{Verify: g.verify, Logger: g.logger}
	if g.noCache || g.cacheDir == "" {
		return r, func() {}, nil
	}
	c, err := buildcache.Open(ctx, g.cacheDir)
	if err != nil {
		return nil, nil, err
	}
	r.Cache = c
	release := func() {
		if err := c.Close(); err != nil {
			g.logger.Warn("close build cache", "error", err)
		}
	}
	return r, release, nil
}

// summary prints one line per built project.
func summary(cmd *cobra.Command, results []*project.Result) {
	for _, res := range results {
		if res == nil {
			continue
		}
		state := "built"
		if res.Cached {
			state = "cached"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d written, %d unchanged\n", res.Project, state, len(res.Written), len(res.Unchanged))
	}
}

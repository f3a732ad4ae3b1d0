package main

import (
	"github.com/spf13/cobra"

	"github.com/syssam/appsyncgen/internal/project"
)

func newBuildCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "build [project...]",
		Short: "Generate the artifacts of all or the named projects",
		Example: `  appsyncgen build
  appsyncgen build shop --verify
  appsyncgen build --config api/appsyncgen.yaml --no-cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := g.projects(args)
			if err != nil {
				return err
			}
			r, release, err := g.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			results, err := r.Build(cmd.Context(), projects)
			summary(cmd, results)
			return err
		},
	}
}

func newWatchCmd(g *globals) *cobra.Command {
	w := &project.Watcher{}
	cmd := &cobra.Command{
		Use:   "watch [project...]",
		Short: "Rebuild projects when their declarations change",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := g.projects(args)
			if err != nil {
				return err
			}
			r, release, err := g.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			w.Runner = r
			w.OnBuild = func(results []*project.Result, _ error) { summary(cmd, results) }
			g.logger.Info("watching", "projects", len(projects))
			return w.Watch(cmd.Context(), projects)
		},
	}
	cmd.Flags().DurationVar(&w.Debounce, "debounce", project.DefaultDebounce, "quiet period before a rebuild")
	return cmd
}

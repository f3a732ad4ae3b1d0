package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/appsyncgen/internal/config"
)

// DefaultDebounce is the quiet period after the last change before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Watcher rebuilds projects when their declaration sources change.
type Watcher struct {
	Runner   *Runner
	Debounce time.Duration
	// OnBuild, if set, receives the outcome of every build.
	OnBuild func([]*Result, error)
}

// Watch builds projects once and then again after every debounced batch of
// changes to their sources, until ctx is done. Only the projects whose
// paths changed are rebuilt.
func (w *Watcher) Watch(ctx context.Context, projects []*config.Project) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	ws := &watchSet{fw: fw, dirs: make(map[string][]*config.Project)}
	for _, p := range projects {
		for _, path := range p.WatchPaths() {
			dirs, err := watchDirs(path, p.Recursive())
			if err != nil {
				return err
			}
			if err := ws.add(dirs, p); err != nil {
				return err
			}
		}
	}

	w.build(ctx, projects)
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := w.Runner.logger()
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[*config.Project]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			changed := 0
			if ev.Has(fsnotify.Create) {
				added, err := ws.created(ev.Name)
				if err != nil {
					log.Warn("watch new directory", "path", ev.Name, "error", err)
				}
				for _, p := range added {
					pending[p] = true
					changed++
				}
			}
			for _, p := range ws.dirs[filepath.Dir(ev.Name)] {
				if matches(p, ev.Name) {
					pending[p] = true
					changed++
				}
			}
			if changed > 0 {
				log.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
				timer.Reset(debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-timer.C:
			batch := make([]*config.Project, 0, len(pending))
			for _, p := range projects {
				if pending[p] {
					batch = append(batch, p)
				}
			}
			clear(pending)
			w.build(ctx, batch)
		}
	}
}

// watchSet tracks the watched directories and the projects they serve.
type watchSet struct {
	fw   *fsnotify.Watcher
	dirs map[string][]*config.Project
}

func (ws *watchSet) add(dirs []string, p *config.Project) error {
	for _, dir := range dirs {
		if _, ok := ws.dirs[dir]; !ok {
			if err := ws.fw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		ws.dirs[dir] = appendUnique(ws.dirs[dir], p)
	}
	return nil
}

// created registers path and its subdirectories when it is a new directory
// below a recursively watched one. It returns the projects it belongs to.
func (ws *watchSet) created(path string) ([]*config.Project, error) {
	if _, ok := ws.dirs[path]; ok || skipDir(filepath.Base(path)) {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	var added []*config.Project
	for _, p := range ws.dirs[filepath.Dir(path)] {
		if !p.Recursive() {
			continue
		}
		dirs, err := watchDirs(path, true)
		if err != nil {
			return added, err
		}
		if err := ws.add(dirs, p); err != nil {
			return added, err
		}
		added = append(added, p)
	}
	return added, nil
}

func (w *Watcher) build(ctx context.Context, projects []*config.Project) {
	if len(projects) == 0 {
		return
	}
	res, err := w.Runner.Build(ctx, projects)
	if err != nil {
		w.Runner.logger().Error("build failed", "error", err)
	}
	if w.OnBuild != nil {
		w.OnBuild(res, err)
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// matches reports whether a changed path belongs to the sources of p.
func matches(p *config.Project, path string) bool {
	if p.Source.Kind == config.SourceFile {
		return filepath.Clean(path) == filepath.Clean(p.Source.Path)
	}
	return strings.HasSuffix(path, ".go")
}

// watchDirs returns the directories to watch for path. Files are watched
// through their parent directory.
func watchDirs(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{filepath.Dir(path)}, nil
	}
	if !recursive {
		return []string{path}, nil
	}
	var dirs []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return dirs, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "testdata" || name == "vendor"
}

func appendUnique(ps []*config.Project, p *config.Project) []*config.Project {
	for _, q := range ps {
		if q == p {
			return ps
		}
	}
	return append(ps, p)
}

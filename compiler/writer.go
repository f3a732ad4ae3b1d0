package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/appsyncgen/compiler/gen"
)

// Outputs are the target paths of the artifacts. Empty paths are skipped.
type Outputs struct {
	SDL        string
	Manifest   string
	GoBindings string
}

// WriteResult reports the files touched by Write.
type WriteResult struct {
	// Written lists the files whose content changed.
	Written []string
	// Unchanged lists the files that already held the artifact.
	Unchanged []string
}

// fileTask stages a single artifact.
type fileTask struct {
	path string // final path
	tmp  string // staged temp file
	data []byte
	prev []byte // replaced content, nil if the target did not exist
}

// Write stores the artifacts at the paths of out. Every artifact is staged
// in a temp file next to its target first; targets are replaced only after
// all staging writes succeeded, so a failed write leaves prior files
// untouched. If replacing a target fails, the targets replaced before it
// are restored. Files that already hold the artifact are not rewritten.
func (a *Artifacts) Write(out Outputs) (*WriteResult, error) {
	return a.WriteContext(context.Background(), out)
}

// WriteContext is like Write with a context checked by the staging workers.
func (a *Artifacts) WriteContext(ctx context.Context, out Outputs) (*WriteResult, error) {
	if out.GoBindings != "" && a.GoBindings == nil {
		return nil, gen.NewConfigError("GoBindings", out.GoBindings, "Go bindings were not generated")
	}
	res := &WriteResult{}
	var tasks []*fileTask
	for _, f := range []struct {
		path string
		data []byte
	}{
		{out.SDL, a.SDL},
		{out.Manifest, a.Manifest},
		{out.GoBindings, a.GoBindings},
	} {
		if f.path == "" {
			continue
		}
		current, err := os.ReadFile(f.path)
		if err == nil && bytes.Equal(current, f.data) {
			res.Unchanged = append(res.Unchanged, f.path)
			continue
		}
		t := &fileTask{path: f.path, data: f.data}
		if err == nil {
			t.prev = current
			if t.prev == nil {
				t.prev = []byte{}
			}
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return res, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return t.stage()
			}
		})
	}
	if err := eg.Wait(); err != nil {
		cleanup(tasks)
		return nil, gen.NewGenerationError("write", "", "stage artifacts", err)
	}

	for i, t := range tasks {
		if err := os.Rename(t.tmp, t.path); err != nil {
			cleanup(tasks[i:])
			for _, done := range tasks[:i] {
				if rerr := done.restore(); rerr != nil {
					err = errors.Join(err, rerr)
				}
			}
			return nil, gen.NewGenerationError("write", t.path, "replace artifact", err)
		}
		res.Written = append(res.Written, t.path)
	}
	return res, nil
}

// stage writes the artifact to a temp file in the target directory.
func (t *fileTask) stage() error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", t.path, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", t.path, err)
	}
	t.tmp = f.Name()
	_, err = f.Write(t.data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(t.tmp, 0o644)
	}
	if err != nil {
		return fmt.Errorf("stage %s: %w", t.path, err)
	}
	return nil
}

// restore puts back the content the task replaced, or removes the file
// if there was none.
func (t *fileTask) restore() error {
	if t.prev == nil {
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("restore %s: %w", t.path, err)
		}
		return nil
	}
	r := &fileTask{path: t.path, data: t.prev}
	if err := r.stage(); err != nil {
		return fmt.Errorf("restore %s: %w", t.path, err)
	}
	if err := os.Rename(r.tmp, t.path); err != nil {
		cleanup([]*fileTask{r})
		return fmt.Errorf("restore %s: %w", t.path, err)
	}
	return nil
}

// cleanup removes staged files. Errors are ignored as the caller is
// already failing.
func cleanup(tasks []*fileTask) {
	for _, t := range tasks {
		if t.tmp != "" {
			_ = os.Remove(t.tmp)
		}
	}
}

package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/appsyncgen/compiler/gen"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	a := &Artifacts{SDL: []byte("type Query {\n  ping: String\n}\n"), Manifest: []byte("{}\n"), GoBindings: []byte("package ops\n")}
	out := Outputs{
		SDL:        filepath.Join(dir, "schema.graphql"),
		Manifest:   filepath.Join(dir, "build", "resolvers.json"),
		GoBindings: filepath.Join(dir, "ops", "ops.go"),
	}

	res, err := a.Write(out)
	require.NoError(t, err)
	assert.Equal(t, []string{out.SDL, out.Manifest, out.GoBindings}, res.Written)
	assert.Empty(t, res.Unchanged)
	for path, want := range map[string][]byte{out.SDL: a.SDL, out.Manifest: a.Manifest, out.GoBindings: a.GoBindings} {
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	}

	a.Manifest = []byte("{\"schemaName\": \"S\"}\n")
	res, err = a.Write(out)
	require.NoError(t, err)
	assert.Equal(t, []string{out.Manifest}, res.Written)
	assert.Equal(t, []string{out.SDL, out.GoBindings}, res.Unchanged)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotRegexp(t, `^\.`, e.Name(), "no staged files are left behind")
	}
}

func TestWriteSkipsEmptyPaths(t *testing.T) {
	dir := t.TempDir()
	a := &Artifacts{SDL: []byte("type Query {\n  ping: String\n}\n"), Manifest: []byte("{}\n")}
	res, err := a.Write(Outputs{SDL: filepath.Join(dir, "schema.graphql")})
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)
	_, err = os.Stat(filepath.Join(dir, "resolvers.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	sdlPath := filepath.Join(dir, "schema.graphql")
	require.NoError(t, os.WriteFile(sdlPath, []byte("old"), 0o644))

	// A regular file where a directory is expected makes staging fail.
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	a := &Artifacts{SDL: []byte("new"), Manifest: []byte("{}\n")}
	res, err := a.Write(Outputs{SDL: sdlPath, Manifest: filepath.Join(blocker, "resolvers.json")})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, gen.ErrGenerationFailed)

	got, err := os.ReadFile(sdlPath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got), "prior artifact is untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteRestoresOnReplaceFailure(t *testing.T) {
	for _, existing := range []bool{true, false} {
		t.Run(fmt.Sprintf("existing=%t", existing), func(t *testing.T) {
			dir := t.TempDir()
			sdlPath := filepath.Join(dir, "schema.graphql")
			if existing {
				require.NoError(t, os.WriteFile(sdlPath, []byte("old"), 0o644))
			}
			// Staging next to a non-empty directory succeeds, replacing it
			// does not.
			manifestPath := filepath.Join(dir, "resolvers.json")
			require.NoError(t, os.MkdirAll(filepath.Join(manifestPath, "keep"), 0o755))
			bindingsPath := filepath.Join(dir, "ops.go")

			a := &Artifacts{SDL: []byte("new"), Manifest: []byte("{}\n"), GoBindings: []byte("package ops\n")}
			res, err := a.Write(Outputs{SDL: sdlPath, Manifest: manifestPath, GoBindings: bindingsPath})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, gen.ErrGenerationFailed)

			got, err := os.ReadFile(sdlPath)
			if existing {
				require.NoError(t, err)
				assert.Equal(t, "old", string(got), "replaced artifact is restored")
			} else {
				assert.True(t, os.IsNotExist(err), "new artifact is removed")
			}
			_, err = os.Stat(bindingsPath)
			assert.True(t, os.IsNotExist(err))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotRegexp(t, `^\.`, e.Name(), "no staged files are left behind")
			}
		})
	}
}

func TestWriteMissingBindings(t *testing.T) {
	a := &Artifacts{SDL: []byte("x")}
	_, err := a.Write(Outputs{GoBindings: filepath.Join(t.TempDir(), "ops.go")})
	assert.True(t, gen.IsConfigError(err))
}

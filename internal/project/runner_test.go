package project

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/appsyncgen"
	"github.com/syssam/appsyncgen/internal/config"
)

const schemaYAML = `
name: ShopAPI
declarations:
  - type:
      ident: Product
      kind: object
      fields:
        - ident: Id
          typeName: ID!
  - operation:
      name: getProduct
      root: query
      returns: {name: example.com/shop.Product}
      resolver: {kind: unit, dataSource: ProductsLambda}
`

const projectsYAML = `
projects:
  - name: shop
    source: {kind: file, path: shop.yaml}
    output:
      sdl: out/shop.graphql
      manifest: out/shop.json
      goBindings: {path: out/ops/ops.go, package: ops}
  - name: broken
    source: {kind: file, path: broken.yaml}
    output:
      sdl: out/broken.graphql
`

func setup(t *testing.T) (string, []*config.Project) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yaml"), []byte(schemaYAML), 0o644))
	broken := "declarations:\n  - operation: {name: getOrder, root: query, returns: {name: example.com/shop.Order}}\n  - type: {ident: SearchResult, kind: union, members: [Order]}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(broken), 0o644))
	f, err := config.Parse([]byte(projectsYAML), dir)
	require.NoError(t, err)
	return dir, f.Projects
}

func TestBuild(t *testing.T) {
	dir, projects := setup(t)
	var logs bytes.Buffer
	r := &Runner{Logger: slog.New(slog.NewTextHandler(&logs, nil)), Verify: true}

	results, err := r.Build(context.Background(), projects)
	require.Error(t, err)
	assert.ErrorIs(t, err, appsyncgen.ErrProject)
	assert.Contains(t, err.Error(), "project broken")
	require.Len(t, results, 2)
	assert.Nil(t, results[1])

	shop := results[0]
	require.NotNil(t, shop)
	assert.False(t, shop.Cached)
	assert.Len(t, shop.Written, 3)
	sdl, err := os.ReadFile(filepath.Join(dir, "out", "shop.graphql"))
	require.NoError(t, err)
	assert.Contains(t, string(sdl), "getProduct: Product")
	_, err = os.Stat(filepath.Join(dir, "out", "broken.graphql"))
	assert.True(t, os.IsNotExist(err), "failed projects write nothing")
	assert.Contains(t, logs.String(), "project built")
	assert.Contains(t, logs.String(), "project=shop")

	results, err = r.Build(context.Background(), projects[:1])
	require.NoError(t, err)
	assert.Empty(t, results[0].Written)
	assert.Len(t, results[0].Unchanged, 3)
}

func TestBuildCache(t *testing.T) {
	dir, projects := setup(t)
	cache := appsyncgen.NewMemoryCache()
	r := &Runner{Cache: cache, TTL: time.Hour, Workers: 1}
	ctx := context.Background()

	results, err := r.Build(ctx, projects[:1])
	require.NoError(t, err)
	assert.False(t, results[0].Cached)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "out", "shop.json")))
	results, err = r.Build(ctx, projects[:1])
	require.NoError(t, err)
	assert.True(t, results[0].Cached)
	assert.Equal(t, []string{filepath.Join(dir, "out", "shop.json")}, results[0].Written)

	updated := schemaYAML + "  - operation: {name: ping, root: query, returns: {name: string, value: true}}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yaml"), []byte(updated), 0o644))
	results, err = r.Build(ctx, projects[:1])
	require.NoError(t, err)
	assert.False(t, results[0].Cached)
	assert.Equal(t, 2, cache.Len())
}

func TestBuildCorruptCacheEntry(t *testing.T) {
	_, projects := setup(t)
	cache := appsyncgen.NewMemoryCache()
	r := &Runner{Cache: cache}
	ctx := context.Background()

	_, err := r.Build(ctx, projects[:1])
	require.NoError(t, err)
	snap, err := projects[0].DeclarationSource().Snapshot()
	require.NoError(t, err)
	key, err := cacheKey(projects[0], false, snap)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, key, []byte{0xc1}, 0))

	results, err := r.Build(ctx, projects[:1])
	require.NoError(t, err)
	assert.False(t, results[0].Cached)
}

func TestCacheKey(t *testing.T) {
	_, projects := setup(t)
	snap, err := projects[0].DeclarationSource().Snapshot()
	require.NoError(t, err)
	k1, err := cacheKey(projects[0], false, snap)
	require.NoError(t, err)
	k2, err := cacheKey(projects[0], true, snap)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	p := *projects[0]
	p.Output.ManifestFormat = "yaml"
	k3, err := cacheKey(&p, false, snap)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

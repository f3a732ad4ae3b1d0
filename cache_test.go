package appsyncgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/appsyncgen/compiler"
	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/gen/manifest"
	"github.com/syssam/appsyncgen/compiler/load"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	value := []byte("artifacts")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'X'
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("artifacts"), v, "stored values are copied")

	require.NoError(t, c.Delete(ctx, "k"))
	v, _ = c.Get(ctx, "k")
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	assert.Equal(t, 2, c.Len())
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Minute)
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, c.Len(), "expired entries are dropped on read")
}

func TestMemoryCacheContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewMemoryCache()
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), context.Canceled)
	assert.ErrorIs(t, c.Delete(ctx, "k"), context.Canceled)
	assert.ErrorIs(t, c.Clear(ctx), context.Canceled)
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			for range 100 {
				assert.NoError(t, c.Set(ctx, key, []byte(key), 0))
				_, err := c.Get(ctx, key)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}

func keySnapshot() *load.Snapshot {
	return &load.Snapshot{Name: "ShopAPI", Declarations: []*load.Declaration{
		{Type: &load.TypeDecl{Ident: "Product", Kind: load.KindObject, Pos: "shop.go:10", Fields: []*load.FieldDecl{
			{Ident: "Id", Type: load.Value("string")},
		}}},
	}}
}

func TestSnapshotKey(t *testing.T) {
	fp := gen.MustNewConfig().Fingerprint()
	k1, err := SnapshotKey(keySnapshot(), fp)
	require.NoError(t, err)
	assert.Len(t, k1, 64)

	k2, err := SnapshotKey(keySnapshot(), fp)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	moved := keySnapshot()
	moved.Declarations[0].Type.Pos = "shop.go:42"
	k3, err := SnapshotKey(moved, fp)
	require.NoError(t, err)
	assert.Equal(t, k1, k3, "positions are not part of the key")

	changed := keySnapshot()
	changed.Declarations[0].Type.Fields[0].Ident = "Sku"
	k4, err := SnapshotKey(changed, fp)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	k5, err := SnapshotKey(keySnapshot(), gen.MustNewConfig(gen.WithConformance(false)).Fingerprint())
	require.NoError(t, err)
	assert.NotEqual(t, k1, k5)

	_, err = SnapshotKey(nil, fp)
	assert.ErrorIs(t, err, ErrCache)
}

func TestArtifactsCodec(t *testing.T) {
	a, err := compiler.Compile(keySnapshot(), compiler.WithGoBindings("ops"), compiler.WithManifestFormat(manifest.FormatYAML))
	require.NoError(t, err)

	b, err := EncodeArtifacts(a)
	require.NoError(t, err)
	got, err := DecodeArtifacts(b)
	require.NoError(t, err)

	assert.Nil(t, got.Schema)
	assert.Equal(t, a.SDL, got.SDL)
	assert.Equal(t, a.Manifest, got.Manifest)
	assert.Equal(t, manifest.FormatYAML, got.ManifestFormat)
	assert.Equal(t, a.GoBindings, got.GoBindings)
	assert.Equal(t, "ops", got.GoPackage)

	_, err = EncodeArtifacts(nil)
	assert.True(t, IsCacheError(err))
	_, err = DecodeArtifacts([]byte{0xc1})
	assert.True(t, IsCacheError(err))
}

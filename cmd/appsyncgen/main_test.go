package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const declarations = `
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

const projectFile = `
projects:
  - name: shop
    source: {kind: file, path: shop.yaml}
    output:
      sdl: out/shop.graphql
      manifest: out/shop.json
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yaml"), []byte(declarations), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appsyncgen.yaml"), []byte(projectFile), 0o644))
	return dir
}

func TestBuildCommand(t *testing.T) {
	dir := writeProject(t)
	config := filepath.Join(dir, "appsyncgen.yaml")

	out, _, err := execute(t, "build", "--config", config, "--no-cache", "--verify")
	require.NoError(t, err)
	assert.Equal(t, "shop: built, 2 written, 0 unchanged\n", out)
	sdl, err := os.ReadFile(filepath.Join(dir, "out", "shop.graphql"))
	require.NoError(t, err)
	assert.Contains(t, string(sdl), "getProduct: Product")

	out, _, err = execute(t, "build", "shop", "--config", config, "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, "shop: built, 0 written, 2 unchanged\n", out)
}

func TestBuildCommandCache(t *testing.T) {
	dir := writeProject(t)
	config := filepath.Join(dir, "appsyncgen.yaml")
	cache := t.TempDir()

	out, _, err := execute(t, "build", "-c", config, "--cache-dir", cache)
	require.NoError(t, err)
	assert.Equal(t, "shop: built, 2 written, 0 unchanged\n", out)

	out, _, err = execute(t, "build", "-c", config, "--cache-dir", cache)
	require.NoError(t, err)
	assert.Equal(t, "shop: cached, 0 written, 2 unchanged\n", out)
}

func TestBuildCommandErrors(t *testing.T) {
	dir := writeProject(t)
	config := filepath.Join(dir, "appsyncgen.yaml")

	_, _, err := execute(t, "build", "orders", "-c", config, "--no-cache")
	assert.Error(t, err)

	_, _, err = execute(t, "build", "-c", filepath.Join(dir, "missing.yaml"), "--no-cache")
	assert.Error(t, err)

	_, _, err = execute(t, "build", "-c", config, "--no-cache", "--log-level", "loud")
	assert.ErrorContains(t, err, "loud")

	_, _, err = execute(t, "build", "-c", config, "--no-cache", "--log-format", "xml")
	assert.ErrorContains(t, err, "xml")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "appsyncgen dev")

	out, _, err = execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "dev"`)

	_, _, err = execute(t, "version", "extra")
	assert.Error(t, err)
}

package load

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productYAML = `
name: ShopAPI
version: "1.0.0"
declarations:
  - type:
      ident: Product
      kind: object
      description: A catalog entry.
      fields:
        - ident: Id
          type: {name: github.com/google/uuid.UUID, value: true}
        - ident: Tags
          type:
            generic: List
            args: [{name: string, value: true}]
            null: nonnull
  - operation:
      name: getProduct
      root: query
      arguments:
        - ident: id
          typeName: ID!
      returns: {name: example.com/shop.Product}
      resolver: {kind: unit, dataSource: ProductsLambda}
`

func TestFileSource(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		snap, err := FromBytes([]byte(productYAML)).Snapshot()
		require.NoError(t, err)
		assert.Equal(t, "ShopAPI", snap.Name)
		require.Len(t, snap.Declarations, 2)
		p := snap.Types()[0]
		assert.Equal(t, "A catalog entry.", p.Description)
		assert.Equal(t, Value("github.com/google/uuid.UUID"), p.Fields[0].Type)
		assert.Equal(t, ListOf(Value("string")).NonNull(), p.Fields[1].Type)
		op := snap.Operations()[0]
		assert.Equal(t, &ResolverConfig{Kind: ResolverUnit, DataSource: "ProductsLambda"}, op.Resolver)
		assert.Equal(t, Ref("example.com/shop.Product"), op.Returns)
	})

	t.Run("json", func(t *testing.T) {
		doc := `{"name": "S", "declarations": [{"directive": {"name": "cost", "locations": ["FIELD_DEFINITION"]}}]}`
		snap, err := FromBytes([]byte(doc)).Snapshot()
		require.NoError(t, err)
		require.Len(t, snap.Directives(), 1)
		assert.Equal(t, "cost", snap.Directives()[0].Name)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.yaml")
		require.NoError(t, os.WriteFile(path, []byte(productYAML), 0o644))
		snap, err := FromFile(path).Snapshot()
		require.NoError(t, err)
		assert.Len(t, snap.Declarations, 2)

		_, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml")).Snapshot()
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := FromBytes([]byte("name: S\nunknown: 1\n")).Snapshot()
		assert.Error(t, err)
	})

	t.Run("invalid declaration", func(t *testing.T) {
		doc := "declarations:\n  - type: {ident: A, kind: object}\n    directive: {name: x, locations: [OBJECT]}\n"
		_, err := FromBytes([]byte(doc)).Snapshot()
		assert.ErrorIs(t, err, ErrInvalidDeclaration)

		_, err = FromBytes([]byte("declarations:\n  - {}\n")).Snapshot()
		assert.ErrorIs(t, err, ErrInvalidDeclaration)
	})

	t.Run("empty document", func(t *testing.T) {
		snap, err := FromBytes([]byte("")).Snapshot()
		require.NoError(t, err)
		assert.Empty(t, snap.Declarations)
	})
}

func TestEncodeSnapshot(t *testing.T) {
	want, err := FromBytes([]byte(productYAML)).Snapshot()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(&buf, want))
	got, err := DecodeSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeclarationHelpers(t *testing.T) {
	snap := (&Snapshot{}).Add(
		&Declaration{Type: &TypeDecl{Ident: "Product", Kind: KindObject}},
		&Declaration{Operation: &OperationDecl{Ident: "GetProduct", Root: RootQuery}},
		&Declaration{Directive: &DirectiveDecl{Name: "cost"}},
	)
	assert.Equal(t, "object Product", snap.Declarations[0].Label())
	assert.Equal(t, "query GetProduct", snap.Declarations[1].Label())
	assert.Equal(t, "directive @cost", snap.Declarations[2].Label())
	assert.Equal(t, "empty declaration", (&Declaration{}).Label())
	assert.Len(t, snap.Types(), 1)
	assert.Len(t, snap.Operations(), 1)
	assert.Len(t, snap.Directives(), 1)

	src, err := FromSnapshot(snap).Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, src)
	_, err = FromSnapshot(nil).Snapshot()
	assert.ErrorIs(t, err, ErrInvalidDeclaration)
}

func TestTypeRef(t *testing.T) {
	opt := Optional(Value("int"))
	assert.True(t, opt.IsValueType())
	assert.Equal(t, Value("int"), opt.NullableElem())
	assert.Nil(t, Value("int").NullableElem())
	assert.Nil(t, Value("int").ArrayElem())

	list := ListOf(Ref("example.com/shop.Product"))
	assert.False(t, list.IsValueType())
	assert.Equal(t, "List", list.GenericName())
	require.Len(t, list.TypeArgs(), 1)
	assert.Equal(t, "Product", list.TypeArgs()[0].Name())
	assert.Equal(t, "example.com/shop.Product", list.TypeArgs()[0].FullName())
	assert.Equal(t, "List[example.com/shop.Product]", list.String())
	assert.Equal(t, NullNullable, list.Nullable().Nullability())
	assert.Equal(t, NullUnknown, list.Nullability(), "copies leave the original untouched")

	arr := ArrayOf(Value("string"))
	assert.True(t, arr.IsValueType())
	assert.Equal(t, Value("string"), arr.ArrayElem())
	assert.Equal(t, "[...]string", arr.String())
	assert.Equal(t, "*int", opt.String())

	assert.Equal(t, "UUID", SimpleName("github.com/google/uuid.UUID"))
	assert.Equal(t, "v3", SimpleName("gopkg.in/yaml.v3"))
	assert.Equal(t, "int", SimpleName("int"))

	assert.Equal(t, `"say \"hi\"\n\tnow\\"`, StringValue("say \"hi\"\n\tnow\\"))
	assert.Equal(t, `"\u0001"`, StringValue("\x01"))
}

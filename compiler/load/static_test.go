package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopPkg = "github.com/syssam/appsyncgen/compiler/load/testdata/shop"

func loadShop(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := (&PackageSource{Dir: "testdata/shop"}).Snapshot()
	require.NoError(t, err)
	return snap
}

func byLabel(snap *Snapshot) map[string]*Declaration {
	m := make(map[string]*Declaration, len(snap.Declarations))
	for _, d := range snap.Declarations {
		m[d.Label()] = d
	}
	return m
}

func TestPackageSource(t *testing.T) {
	snap := loadShop(t)
	assert.Equal(t, "ShopAPI", snap.Name)
	assert.Equal(t, "1.0.0", snap.Version)

	labels := make([]string, 0, len(snap.Declarations))
	for _, d := range snap.Declarations {
		require.NoError(t, d.Validate())
		labels = append(labels, d.Label())
	}
	assert.Equal(t, []string{
		"directive @cost",
		"union SearchResult",
		"interface Node",
		"enum Status",
		"object Product",
		"object User",
		"input CreateProductInput",
		"query getProduct",
		"query listProducts",
		"query search",
		"mutation createProduct",
	}, labels)

	decls := byLabel(snap)
	t.Run("directive", func(t *testing.T) {
		d := decls["directive @cost"].Directive
		assert.Equal(t, "Relative resolver cost.", d.Description)
		assert.Equal(t, []string{"FIELD_DEFINITION"}, d.Locations)
		assert.Equal(t, []*DirectiveArgDecl{{Name: "weight", Type: "Int", Required: true}}, d.Arguments)
		assert.NotEmpty(t, d.Pos)
	})

	t.Run("union", func(t *testing.T) {
		u := decls["union SearchResult"].Type
		assert.Equal(t, []string{"Product", "User"}, u.Members)
	})

	t.Run("enum", func(t *testing.T) {
		e := decls["enum Status"].Type
		assert.Equal(t, "Status of a product.", e.Description)
		require.Len(t, e.Values, 2)
		assert.Equal(t, &EnumValueDecl{Ident: "Active", Description: "StatusActive products are listed."}, e.Values[0])
		assert.Equal(t, &EnumValueDecl{Ident: "Legacy", Deprecated: true, DeprecationReason: "Use Active"}, e.Values[1])
	})

	t.Run("object", func(t *testing.T) {
		p := decls["object Product"].Type
		assert.Equal(t, "Product is a catalog entry.", p.Description)
		assert.Equal(t, []string{"Node"}, p.Interfaces)
		require.Len(t, p.Fields, 6)
		assert.Equal(t, &FieldDecl{Ident: "ID", Name: "id", Type: Value("github.com/google/uuid.UUID")}, p.Fields[0])
		assert.Equal(t, Value("string"), p.Fields[1].Type)
		assert.Equal(t, []*DirectiveUse{{Name: "cost", Args: []Arg{{Name: "weight", Value: "2"}}}}, p.Fields[2].Directives)
		assert.Equal(t, Value(shopPkg+".Status"), p.Fields[3].Type)
		assert.True(t, p.Fields[4].NonNull)
		assert.Equal(t, ListOf(Value("string")).NonNull(), p.Fields[4].Type)
		notes := p.Fields[5]
		assert.Equal(t, Optional(Value("string")), notes.Type)
		assert.True(t, notes.Deprecated)
		assert.Equal(t, "Use description", notes.DeprecationReason)
		assert.Equal(t, "Free text.", notes.Description)
	})

	t.Run("embedded", func(t *testing.T) {
		u := decls["object User"].Type
		require.Len(t, u.Fields, 2)
		assert.Equal(t, "id", u.Fields[0].Name)
		assert.Equal(t, "email", u.Fields[1].Name)
		assert.Equal(t, "AWSEmail!", u.Fields[1].TypeName)
	})

	t.Run("operations", func(t *testing.T) {
		get := decls["query getProduct"].Operation
		assert.Equal(t, "GetProduct", get.Ident)
		assert.Equal(t, "GetProduct fetches a product by id.", get.Description)
		assert.Equal(t, []*FieldDecl{{Ident: "id", Type: Value("github.com/google/uuid.UUID")}}, get.Arguments)
		assert.Equal(t, Ref(shopPkg+".Product"), get.Returns)
		assert.Equal(t, &ResolverConfig{Kind: ResolverUnit, DataSource: "ProductsLambda"}, get.Resolver)

		list := decls["query listProducts"].Operation
		assert.True(t, list.NonNull)
		require.Len(t, list.Arguments, 2)
		assert.Equal(t, &FieldDecl{Ident: "Limit", Name: "limit", Default: "20", Type: Optional(Value("int"))}, list.Arguments[0])
		assert.Equal(t, ListOf(Value(shopPkg+".Product")), list.Returns)

		search := decls["query search"].Operation
		assert.Equal(t, "[SearchResult!]!", search.ReturnTypeName)
		require.Len(t, search.Arguments, 1)
		assert.True(t, search.Arguments[0].NonNull)

		create := decls["mutation createProduct"].Operation
		assert.Equal(t, &ResolverConfig{
			Kind:            ResolverPipeline,
			Functions:       []string{"validateProduct", "persistProduct"},
			ResponseMapping: "createProduct.res.vtl",
		}, create.Resolver)
		assert.Equal(t, "input", create.Arguments[0].Ident)
	})
}

func TestPackageSourceErrors(t *testing.T) {
	t.Run("unnamed parameter", func(t *testing.T) {
		_, err := (&PackageSource{Dir: "testdata/broken"}).Snapshot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be named")
	})

	t.Run("missing package", func(t *testing.T) {
		_, err := NewPackageSource("X", "./does-not-exist").Snapshot()
		assert.Error(t, err)
	})
}

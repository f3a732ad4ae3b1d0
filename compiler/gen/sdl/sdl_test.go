package sdl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/load"
)

const (
	uuidType = "github.com/google/uuid.UUID"
	pkg      = "github.com/acme/shop."
)

func object(name string, ifaces []string, fields ...*load.FieldDecl) *load.Declaration {
	return &load.Declaration{Type: &load.TypeDecl{Ident: name, Kind: load.KindObject, Interfaces: ifaces, Fields: fields}}
}

func field(ident string, typ *load.TypeRef) *load.FieldDecl {
	return &load.FieldDecl{Ident: ident, Type: typ}
}

func shopDecls() []*load.Declaration {
	return []*load.Declaration{
		{Directive: &load.DirectiveDecl{
			Name:        "cost",
			Description: "Relative resolver cost.",
			Locations:   []string{"FIELD_DEFINITION"},
			Arguments:   []*load.DirectiveArgDecl{{Name: "weight", Type: "Int", Required: true}},
		}},
		{Type: &load.TypeDecl{Name: "SearchResult", Kind: load.KindUnion, Members: []string{"Product", "User"}}},
		{Type: &load.TypeDecl{Ident: "Node", Kind: load.KindInterface, Fields: []*load.FieldDecl{
			field("ID", load.Value(uuidType)),
		}}},
		{Type: &load.TypeDecl{Ident: "Status", Kind: load.KindEnum, Values: []*load.EnumValueDecl{
			{Ident: "Active", Description: "Listed."},
			{Ident: "Legacy", Deprecated: true, DeprecationReason: "Use Active"},
		}}},
		{Type: &load.TypeDecl{Ident: "Product", Kind: load.KindObject, Description: "A catalog entry.", Interfaces: []string{"Node"}, Fields: []*load.FieldDecl{
			field("ID", load.Value(uuidType)),
			field("Name", load.Value("string")),
			{Ident: "Price", Type: load.Value("float64"), Directives: []*load.DirectiveUse{{Name: "cost", Args: []load.Arg{{Name: "weight", Value: "2"}}}}},
			field("Status", load.Value(pkg+"Status")),
			field("Tags", load.ListOf(load.Value("string")).NonNull()),
			{Ident: "Notes", Type: load.Optional(load.Value("string")), Deprecated: true, DeprecationReason: "Use description"},
			field("CreatedAt", load.Value("time.Time")),
		}}},
		object("User", nil,
			field("ID", load.Value(uuidType)),
			&load.FieldDecl{Ident: "Email", TypeName: "AWSEmail!"},
		),
		{Type: &load.TypeDecl{Ident: "CreateProductInput", Kind: load.KindInput, Fields: []*load.FieldDecl{
			field("Name", load.Value("string")),
			field("Price", load.Value("float64")),
			{Ident: "Limit", Type: load.Optional(load.Value("int")), Default: "20"},
		}}},
		{Operation: &load.OperationDecl{
			Ident:     "GetProduct",
			Root:      load.RootQuery,
			Arguments: []*load.FieldDecl{field("ID", load.Value(uuidType))},
			Returns:   load.Ref(pkg + "Product"),
			Resolver:  &load.ResolverConfig{Kind: load.ResolverUnit, DataSource: "ProductsLambda"},
		}},
		{Operation: &load.OperationDecl{
			Name:           "search",
			Root:           load.RootQuery,
			Arguments:      []*load.FieldDecl{{Ident: "Text", Type: load.Optional(load.Value("string")), NonNull: true}},
			ReturnTypeName: "[SearchResult!]!",
		}},
		{Operation: &load.OperationDecl{
			Name:      "createProduct",
			Root:      load.RootMutation,
			Arguments: []*load.FieldDecl{field("Input", load.Ref(pkg+"CreateProductInput").NonNull())},
			Returns:   load.Ref(pkg + "Product"),
			NonNull:   true,
			Resolver:  &load.ResolverConfig{Kind: load.ResolverPipeline, Functions: []string{"validateProduct", "persistProduct"}},
		}},
	}
}

func build(t *testing.T, decls ...*load.Declaration) *gen.Schema {
	t.Helper()
	s, err := gen.NewSchema(nil, &load.Snapshot{Name: "ShopAPI", Declarations: decls})
	require.NoError(t, err)
	return s
}

const shopSDL = `"""Relative resolver cost."""
directive @cost(weight: Int!) on FIELD_DEFINITION

enum Status {
  """Listed."""
  ACTIVE
  LEGACY @deprecated(reason: "Use Active")
}

interface Node {
  id: ID!
}

"""A catalog entry."""
type Product implements Node {
  id: ID!
  name: String!
  price: Float! @cost(weight: 2)
  status: Status!
  tags: [String!]!
  notes: String @deprecated(reason: "Use description")
  createdAt: AWSDateTime!
}

type User {
  id: ID!
  email: AWSEmail!
}

input CreateProductInput {
  name: String!
  price: Float!
  limit: Int = 20
}

union SearchResult = Product | User

type Query {
  getProduct(id: ID!): Product
  search(text: String!): [SearchResult!]!
}

type Mutation {
  createProduct(input: CreateProductInput!): Product!
}
`

func TestEmit(t *testing.T) {
	doc, err := Emit(build(t, shopDecls()...))
	require.NoError(t, err)
	assert.Equal(t, shopSDL, string(doc))
	require.NoError(t, Verify(doc))
}

func TestEmitIdempotent(t *testing.T) {
	first, err := Emit(build(t, shopDecls()...))
	require.NoError(t, err)
	for range 3 {
		next, err := Emit(build(t, shopDecls()...))
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestEmitRoundTrip(t *testing.T) {
	s := build(t, shopDecls()...)
	doc, err := Emit(s)
	require.NoError(t, err)
	parsed, err := Load(doc)
	require.NoError(t, err)

	for _, typ := range s.Types {
		def := parsed.Types[typ.Name]
		require.NotNil(t, def, typ.Name)
		assert.False(t, def.BuiltIn)
		require.Len(t, def.Fields, len(typ.Fields), typ.Name)
		for i, f := range typ.Fields {
			assert.Equal(t, f.Name, def.Fields[i].Name)
			assert.Equal(t, f.TypeString(), def.Fields[i].Type.String(), typ.Name+"."+f.Name)
		}
		for i, v := range typ.EnumValues {
			assert.Equal(t, v.Name, def.EnumValues[i].Name)
		}
		assert.Equal(t, typ.UnionMembers, def.Types)
		assert.Equal(t, typ.Interfaces, def.Interfaces)
	}
	for _, op := range s.Operations {
		root := parsed.Types[op.Root.TypeName()]
		require.NotNil(t, root)
		f := root.Fields.ForName(op.Name)
		require.NotNil(t, f, op.Name)
		assert.Equal(t, op.TypeString(), f.Type.String())
		require.Len(t, f.Arguments, len(op.Arguments))
		for i, a := range op.Arguments {
			assert.Equal(t, a.Name, f.Arguments[i].Name)
			assert.Equal(t, a.TypeString(), f.Arguments[i].Type.String())
		}
	}
	assert.NotNil(t, parsed.Query)
	assert.NotNil(t, parsed.Mutation)
	assert.Nil(t, parsed.Subscription)
}

func TestEmitUnionMissingMember(t *testing.T) {
	product := object("Product", nil, field("Name", load.Value("string")))
	user := object("User", nil, field("Name", load.Value("string")))
	union := &load.Declaration{Type: &load.TypeDecl{Name: "SearchResult", Kind: load.KindUnion, Members: []string{"Product", "User", "Order"}}}

	doc, err := Emit(build(t, product, user, union))
	assert.Nil(t, doc)
	var refErr *gen.MissingReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "Order", refErr.Name)
	assert.Equal(t, "SearchResult", refErr.Referrer)

	order := object("Order", nil, field("Total", load.Value("float64")))
	doc, err = Emit(build(t, product, user, union, order))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "union SearchResult = Product | User | Order\n")
}

func TestEmitMissingReferences(t *testing.T) {
	tests := []struct {
		name   string
		schema *gen.Schema
		want   string
	}{
		{
			name: "field type",
			schema: &gen.Schema{Types: []*gen.TypeEntry{
				{Name: "Order", Kind: gen.KindObject, Fields: []*gen.FieldEntry{{Name: "total", Type: "Money"}}},
			}},
			want: "Money",
		},
		{
			name: "interface",
			schema: &gen.Schema{Types: []*gen.TypeEntry{
				{Name: "Order", Kind: gen.KindObject, Interfaces: []string{"Node"}, Fields: []*gen.FieldEntry{{Name: "id", Type: "ID"}}},
			}},
			want: "Node",
		},
		{
			name: "return type",
			schema: &gen.Schema{Operations: []*gen.OperationEntry{
				{Name: "orders", Root: gen.RootQuery, ReturnType: "[Order!]"},
			}},
			want: "Order",
		},
		{
			name: "argument type",
			schema: &gen.Schema{Operations: []*gen.OperationEntry{
				{Name: "orders", Root: gen.RootQuery, ReturnType: "Int", Arguments: []*gen.FieldEntry{{Name: "filter", Type: "OrderFilter"}}},
			}},
			want: "OrderFilter",
		},
		{
			name:   "directive argument type",
			schema: &gen.Schema{Directives: []*gen.DirectiveDefinition{{Name: "cost", Locations: []gen.Location{gen.LocObject}, Arguments: []*gen.DirectiveArgument{{Name: "unit", Type: "Unit"}}}}},
			want:   "Unit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Emit(tt.schema)
			var refErr *gen.MissingReferenceError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tt.want, refErr.Name)
		})
	}

	_, err := Emit(&gen.Schema{Types: []*gen.TypeEntry{
		{Name: "E", Kind: gen.KindEnum, EnumValues: []*gen.EnumValue{{Name: "A"}}},
		{Name: "U", Kind: gen.KindUnion, UnionMembers: []string{"E"}},
	}})
	assert.ErrorIs(t, err, gen.ErrInvalidTypeShape)
}

func TestEmitScalars(t *testing.T) {
	cfg := gen.MustNewConfig(gen.WithScalars(map[string]string{"example.com/money.Amount": "Money"}))
	s, err := gen.NewSchema(cfg, &load.Snapshot{Declarations: []*load.Declaration{
		object("Order", nil,
			field("PlacedAt", load.Value("time.Time")),
			field("Total", load.Value("example.com/money.Amount")),
		),
	}})
	require.NoError(t, err)

	doc, err := Emit(s)
	require.NoError(t, err)
	assert.Equal(t, "scalar Money\n\ntype Order {\n  placedAt: AWSDateTime!\n  total: Money!\n}\n", string(doc))
	require.NoError(t, Verify(doc))

	doc, err = Emit(s, DeclareAWSScalars())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), "scalar AWSDateTime\n\nscalar Money\n\n"))
	require.NoError(t, Verify(doc), "declared AppSync scalars are not redefined")
}

func TestEmitDescriptions(t *testing.T) {
	s := &gen.Schema{Types: []*gen.TypeEntry{{
		Name:        "Cafe",
		Kind:        gen.KindObject,
		Description: "Cafe\u0301 menu.\n\nServed \"hot\".",
		Fields: []*gen.FieldEntry{
			{Name: "name", Type: "String", Description: `Say "hi"`},
			{
				Name: "price",
				Type: "Float",
				Arguments: []*gen.FieldEntry{
					{Name: "currency", Type: "String", Nullable: true, Description: "ISO code.", DefaultValue: `"EUR"`},
				},
			},
		},
	}}}
	doc, err := Emit(s)
	require.NoError(t, err)
	want := `"""
Caf` + "\u00e9" + ` menu.

Served "hot".
"""
type Cafe {
  """
  Say "hi"
  """
  name: String!
  price(
    """ISO code."""
    currency: String = "EUR"
  ): Float!
}
`
	assert.Equal(t, want, string(doc))
	require.NoError(t, Verify(doc))

	s = &gen.Schema{Types: []*gen.TypeEntry{{
		Name:        "Drive",
		Kind:        gen.KindObject,
		Description: `Windows root C:\`,
		Fields:      []*gen.FieldEntry{{Name: "path", Type: "String", Description: `ends with \`}},
	}}}
	doc, err = Emit(s)
	require.NoError(t, err)
	want = `"""
Windows root C:\
"""
type Drive {
  """
  ends with \
  """
  path: String!
}
`
	assert.Equal(t, want, string(doc))
	require.NoError(t, Verify(doc))
}

func TestEmitOptions(t *testing.T) {
	s := build(t, object("Product", nil, field("Name", load.Value("string"))))
	doc, err := Emit(s, WithIndent("\t"))
	require.NoError(t, err)
	assert.Equal(t, "type Product {\n\tname: String!\n}\n", string(doc))

	doc, err = Emit(s, WithIndent(""))
	require.NoError(t, err)
	assert.Equal(t, "type Product {\n  name: String!\n}\n", string(doc))
}

func TestEmitDirectives(t *testing.T) {
	s := &gen.Schema{
		Directives: []*gen.DirectiveDefinition{{
			Name:       "tag",
			Locations:  []gen.Location{gen.LocObject, gen.LocFieldDefinition},
			Arguments:  []*gen.DirectiveArgument{{Name: "name", Type: "String", DefaultValue: `"x"`}},
			Repeatable: true,
		}},
		Types: []*gen.TypeEntry{{
			Name:       "Product",
			Kind:       gen.KindObject,
			Directives: []*gen.AppliedDirective{{Name: "aws_iam"}, {Name: "tag", Arguments: gen.ArgumentList{{Name: "name", Value: `"a"`}}}},
			Fields: []*gen.FieldEntry{{
				Name:       "name",
				Type:       "String",
				Directives: []*gen.AppliedDirective{{Name: "tag"}, {Name: "tag", Arguments: gen.ArgumentList{{Name: "name", Value: `"b"`}}}},
				Deprecated: true,
			}},
		}},
		Operations: []*gen.OperationEntry{{
			Name:           "product",
			Root:           gen.RootQuery,
			ReturnType:     "Product",
			ReturnNullable: true,
		}, {
			Name:           "onProduct",
			Root:           gen.RootSubscription,
			ReturnType:     "Product",
			ReturnNullable: true,
			Directives:     []*gen.AppliedDirective{{Name: "aws_subscribe", Arguments: gen.ArgumentList{{Name: "mutations", Value: `["createProduct"]`}}}},
		}},
	}
	doc, err := Emit(s)
	require.NoError(t, err)
	want := `directive @tag(name: String = "x") repeatable on OBJECT | FIELD_DEFINITION

type Product @aws_iam @tag(name: "a") {
  name: String! @tag @tag(name: "b") @deprecated
}

type Query {
  product: Product
}

type Subscription {
  onProduct: Product @aws_subscribe(mutations: ["createProduct"])
}
`
	assert.Equal(t, want, string(doc))
	require.NoError(t, Verify(doc))
}

func TestEmitRepeatedDirectives(t *testing.T) {
	tag := &load.Declaration{Directive: &load.DirectiveDecl{
		Name:      "tag",
		Locations: []string{"FIELD_DEFINITION"},
		Arguments: []*load.DirectiveArgDecl{{Name: "name", Type: "String"}},
	}}
	p := field("Name", load.Value("string"))
	p.Directives = []*load.DirectiveUse{
		{Name: "tag", Args: []load.Arg{{Name: "name", Value: `"a"`}}},
		{Name: "aws_iam"},
		{Name: "tag", Args: []load.Arg{{Name: "name", Value: `"b"`}}},
		{Name: "aws_iam"},
	}
	doc, err := Emit(build(t, object("P", nil, p), tag))
	require.NoError(t, err)
	want := `directive @tag(name: String) repeatable on FIELD_DEFINITION

type P {
  name: String! @tag(name: "a") @aws_iam @tag(name: "b") @aws_iam
}
`
	assert.Equal(t, want, string(doc))
	require.NoError(t, Verify(doc))
}

func TestEmitEmpty(t *testing.T) {
	doc, err := Emit(&gen.Schema{})
	require.NoError(t, err)
	assert.Empty(t, doc)

	_, err = Emit(nil)
	assert.True(t, gen.IsConfigError(err))
}

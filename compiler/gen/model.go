package gen

import (
	"fmt"
	"slices"

	"github.com/syssam/appsyncgen/compiler/load"
)

// TypeKind is the kind of a named schema type.
type TypeKind int

// Type kinds, in SDL section order.
const (
	KindEnum TypeKind = iota + 1
	KindInterface
	KindObject
	KindInput
	KindUnion
)

var kindNames = map[TypeKind]string{
	KindEnum:      "enum",
	KindInterface: "interface",
	KindObject:    "object",
	KindInput:     "input",
	KindUnion:     "union",
}

// String returns the declaration keyword of the kind.
func (k TypeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// Keyword returns the SDL keyword introducing a declaration of kind k.
func (k TypeKind) Keyword() string {
	switch k {
	case KindObject:
		return "type"
	case KindInput:
		return "input"
	default:
		return k.String()
	}
}

// ParseTypeKind converts a declaration kind.
func ParseTypeKind(s string) (TypeKind, error) {
	switch s {
	case load.KindObject:
		return KindObject, nil
	case load.KindInput:
		return KindInput, nil
	case load.KindInterface:
		return KindInterface, nil
	case load.KindEnum:
		return KindEnum, nil
	case load.KindUnion:
		return KindUnion, nil
	}
	return 0, fmt.Errorf("unknown type kind %q", s)
}

// IsOutput reports whether values of the kind can be returned by fields.
func (k TypeKind) IsOutput() bool {
	return k != KindInput
}

// IsInput reports whether values of the kind can be passed as arguments.
func (k TypeKind) IsInput() bool {
	return k == KindInput || k == KindEnum
}

// RootKind is the root operation type of an operation.
type RootKind int

// Root kinds, in SDL order.
const (
	RootQuery RootKind = iota + 1
	RootMutation
	RootSubscription
)

// Roots lists the root kinds in SDL order.
var Roots = []RootKind{RootQuery, RootMutation, RootSubscription}

// TypeName returns the GraphQL root type name.
func (r RootKind) TypeName() string {
	switch r {
	case RootQuery:
		return "Query"
	case RootMutation:
		return "Mutation"
	case RootSubscription:
		return "Subscription"
	}
	return fmt.Sprintf("RootKind(%d)", int(r))
}

// String implements fmt.Stringer.
func (r RootKind) String() string {
	return r.TypeName()
}

// ParseRootKind converts a declaration root.
func ParseRootKind(s string) (RootKind, error) {
	switch s {
	case load.RootQuery:
		return RootQuery, nil
	case load.RootMutation:
		return RootMutation, nil
	case load.RootSubscription:
		return RootSubscription, nil
	}
	return 0, fmt.Errorf("unknown operation root %q", s)
}

// ResolverKind distinguishes unit and pipeline resolvers.
type ResolverKind int

// Resolver kinds.
const (
	ResolverUnit ResolverKind = iota + 1
	ResolverPipeline
)

// String returns the manifest spelling of the kind.
func (k ResolverKind) String() string {
	switch k {
	case ResolverUnit:
		return load.ResolverUnit
	case ResolverPipeline:
		return load.ResolverPipeline
	}
	return fmt.Sprintf("ResolverKind(%d)", int(k))
}

// Location is a type system directive location.
type Location string

// Type system directive locations.
const (
	LocSchema               Location = "SCHEMA"
	LocScalar               Location = "SCALAR"
	LocObject               Location = "OBJECT"
	LocFieldDefinition      Location = "FIELD_DEFINITION"
	LocArgumentDefinition   Location = "ARGUMENT_DEFINITION"
	LocInterface            Location = "INTERFACE"
	LocUnion                Location = "UNION"
	LocEnum                 Location = "ENUM"
	LocEnumValue            Location = "ENUM_VALUE"
	LocInputObject          Location = "INPUT_OBJECT"
	LocInputFieldDefinition Location = "INPUT_FIELD_DEFINITION"
)

var locations = []Location{
	LocSchema, LocScalar, LocObject, LocFieldDefinition, LocArgumentDefinition,
	LocInterface, LocUnion, LocEnum, LocEnumValue, LocInputObject, LocInputFieldDefinition,
}

// Valid reports whether l is a type system directive location.
func (l Location) Valid() bool {
	return slices.Contains(locations, l)
}

// LocationOf returns the directive location of a declaration of kind k.
func LocationOf(k TypeKind) Location {
	switch k {
	case KindObject:
		return LocObject
	case KindInput:
		return LocInputObject
	case KindInterface:
		return LocInterface
	case KindEnum:
		return LocEnum
	default:
		return LocUnion
	}
}

type (
	// Schema is the canonical, immutable model of one compilation pass.
	Schema struct {
		Name    string
		Version string
		// Types in declaration order.
		Types []*TypeEntry
		// Operations in declaration order.
		Operations []*OperationEntry
		// Directives are the custom directive definitions.
		Directives []*DirectiveDefinition
		// Scalars lists the referenced non-built-in scalars in first
		// referenced order.
		Scalars []string

		types map[string]*TypeEntry
	}

	// TypeEntry is a named type of the schema.
	TypeEntry struct {
		Name         string
		Description  string
		Kind         TypeKind
		Fields       []*FieldEntry
		EnumValues   []*EnumValue
		UnionMembers []string
		Interfaces   []string
		Directives   []*AppliedDirective
	}

	// FieldEntry is a field, an input field or an argument. Type is the
	// rendered GraphQL type without the outer non-null marker.
	FieldEntry struct {
		Name              string
		Description       string
		Type              string
		Nullable          bool
		Deprecated        bool
		DeprecationReason string
		DefaultValue      string
		Arguments         []*FieldEntry
		Directives        []*AppliedDirective
	}

	// EnumValue is a member of an enum type.
	EnumValue struct {
		Name              string
		Description       string
		Deprecated        bool
		DeprecationReason string
		Directives        []*AppliedDirective
	}

	// AppliedDirective is one directive application.
	AppliedDirective struct {
		Name      string
		Arguments ArgumentList
	}

	// ArgumentList is an ordered list of directive arguments.
	ArgumentList []Argument

	// Argument is a directive argument. Value is GraphQL literal syntax.
	Argument struct {
		Name  string
		Value string
	}

	// DirectiveDefinition is a custom directive definition.
	DirectiveDefinition struct {
		Name        string
		Description string
		Locations   []Location
		Arguments   []*DirectiveArgument
		Repeatable  bool
	}

	// DirectiveArgument is an argument of a directive definition.
	DirectiveArgument struct {
		Name         string
		Type         string
		Required     bool
		DefaultValue string
	}

	// OperationEntry is a query, mutation or subscription field.
	OperationEntry struct {
		Name              string
		Root              RootKind
		Description       string
		Arguments         []*FieldEntry
		ReturnType        string
		ReturnNullable    bool
		Resolver          *ResolverBinding
		Deprecated        bool
		DeprecationReason string
		Directives        []*AppliedDirective
	}

	// ResolverBinding binds an operation to a data source or a pipeline.
	ResolverBinding struct {
		Kind               ResolverKind
		DataSource         string
		Functions          []string
		RequestMappingRef  string
		ResponseMappingRef string
	}
)

// Type returns the named type, or nil.
func (s *Schema) Type(name string) *TypeEntry {
	if s.types != nil {
		return s.types[name]
	}
	for _, t := range s.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TypesOf returns the types of kind k in declaration order.
func (s *Schema) TypesOf(k TypeKind) []*TypeEntry {
	var types []*TypeEntry
	for _, t := range s.Types {
		if t.Kind == k {
			types = append(types, t)
		}
	}
	return types
}

// Operation returns the named operation of a root, or nil.
func (s *Schema) Operation(root RootKind, name string) *OperationEntry {
	for _, op := range s.Operations {
		if op.Root == root && op.Name == name {
			return op
		}
	}
	return nil
}

// OperationsOf returns the operations of a root in declaration order.
func (s *Schema) OperationsOf(root RootKind) []*OperationEntry {
	var ops []*OperationEntry
	for _, op := range s.Operations {
		if op.Root == root {
			ops = append(ops, op)
		}
	}
	return ops
}

// Directive returns the named custom directive definition, or nil.
func (s *Schema) Directive(name string) *DirectiveDefinition {
	for _, d := range s.Directives {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Field returns the named field, or nil.
func (t *TypeEntry) Field(name string) *FieldEntry {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TypeString renders the field type including the non-null marker.
func (f *FieldEntry) TypeString() string {
	if f.Nullable {
		return f.Type
	}
	return f.Type + "!"
}

// TypeString renders the return type including the non-null marker.
func (op *OperationEntry) TypeString() string {
	if op.ReturnNullable {
		return op.ReturnType
	}
	return op.ReturnType + "!"
}

// Get returns the value of the named argument.
func (l ArgumentList) Get(name string) (string, bool) {
	for _, a := range l {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// NamedType strips list and non-null wrappers from a rendered type:
// "[Product!]!" becomes "Product".
func NamedType(typ string) string {
	start, end := 0, len(typ)
	for start < end && (typ[start] == '[') {
		start++
	}
	for end > start && (typ[end-1] == ']' || typ[end-1] == '!') {
		end--
	}
	return typ[start:end]
}

package load

import (
	"errors"
	"fmt"
)

// Kinds of type declarations.
const (
	KindObject    = "object"
	KindInput     = "input"
	KindInterface = "interface"
	KindEnum      = "enum"
	KindUnion     = "union"
)

// Root operation kinds.
const (
	RootQuery        = "query"
	RootMutation     = "mutation"
	RootSubscription = "subscription"
)

// Resolver kinds.
const (
	ResolverUnit     = "unit"
	ResolverPipeline = "pipeline"
)

// Snapshot is a fully materialized, ordered list of declarations produced
// by a Source. The order of Declarations is the declaration order used by
// every emitter.
type Snapshot struct {
	Name         string         `json:"name,omitempty" yaml:"name,omitempty"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty"`
	Declarations []*Declaration `json:"declarations,omitempty" yaml:"declarations,omitempty"`
}

// Declaration holds exactly one of a type, an operation or a directive
// definition.
type Declaration struct {
	Type      *TypeDecl      `json:"type,omitempty" yaml:"type,omitempty"`
	Operation *OperationDecl `json:"operation,omitempty" yaml:"operation,omitempty"`
	Directive *DirectiveDecl `json:"directive,omitempty" yaml:"directive,omitempty"`
}

// TypeDecl describes an object, input, interface, enum or union declaration.
type TypeDecl struct {
	// Ident is the identifier of the declaration in the host code.
	Ident string `json:"ident,omitempty" yaml:"ident,omitempty"`
	// Name overrides the GraphQL type name. Defaults to Ident.
	Name        string           `json:"name,omitempty" yaml:"name,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        string           `json:"kind" yaml:"kind"`
	Fields      []*FieldDecl     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Values      []*EnumValueDecl `json:"values,omitempty" yaml:"values,omitempty"`
	Members     []string         `json:"members,omitempty" yaml:"members,omitempty"`
	Interfaces  []string         `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Directives  []*DirectiveUse  `json:"directives,omitempty" yaml:"directives,omitempty"`
	// Pos is the position of the declaration in the host code, if known.
	Pos string `json:"-" yaml:"-" msgpack:"-"`
}

// FieldDecl describes a field, an input field or an argument.
type FieldDecl struct {
	Ident       string   `json:"ident,omitempty" yaml:"ident,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Type        *TypeRef `json:"type,omitempty" yaml:"type,omitempty"`
	// TypeName overrides the mapped GraphQL type. A trailing "!" marks
	// the type as non-null.
	TypeName          string          `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	NonNull           bool            `json:"nonNull,omitempty" yaml:"nonNull,omitempty"`
	Ignore            bool            `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Deprecated        bool            `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationReason string          `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`
	Default           string          `json:"default,omitempty" yaml:"default,omitempty"`
	Arguments         []*FieldDecl    `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Directives        []*DirectiveUse `json:"directives,omitempty" yaml:"directives,omitempty"`
}

// EnumValueDecl describes one member of an enum declaration.
type EnumValueDecl struct {
	Ident             string          `json:"ident,omitempty" yaml:"ident,omitempty"`
	Name              string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description       string          `json:"description,omitempty" yaml:"description,omitempty"`
	Deprecated        bool            `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationReason string          `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`
	Directives        []*DirectiveUse `json:"directives,omitempty" yaml:"directives,omitempty"`
}

// OperationDecl describes a query, mutation or subscription.
type OperationDecl struct {
	Ident       string       `json:"ident,omitempty" yaml:"ident,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Root        string       `json:"root" yaml:"root"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Arguments   []*FieldDecl `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Returns     *TypeRef     `json:"returns,omitempty" yaml:"returns,omitempty"`
	// ReturnTypeName overrides the mapped return type, e.g. for operations
	// returning a union through a generic container.
	ReturnTypeName    string          `json:"returnTypeName,omitempty" yaml:"returnTypeName,omitempty"`
	NonNull           bool            `json:"nonNull,omitempty" yaml:"nonNull,omitempty"`
	Resolver          *ResolverConfig `json:"resolver,omitempty" yaml:"resolver,omitempty"`
	Deprecated        bool            `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationReason string          `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`
	Directives        []*DirectiveUse `json:"directives,omitempty" yaml:"directives,omitempty"`
	Pos               string          `json:"-" yaml:"-" msgpack:"-"`
}

// ResolverConfig is the resolver configuration attached to an operation.
type ResolverConfig struct {
	Kind            string   `json:"kind" yaml:"kind"`
	DataSource      string   `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Functions       []string `json:"functions,omitempty" yaml:"functions,omitempty"`
	RequestMapping  string   `json:"requestMapping,omitempty" yaml:"requestMapping,omitempty"`
	ResponseMapping string   `json:"responseMapping,omitempty" yaml:"responseMapping,omitempty"`
}

// DirectiveDecl defines a custom directive.
type DirectiveDecl struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Locations   []string            `json:"locations" yaml:"locations"`
	Arguments   []*DirectiveArgDecl `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Repeatable  bool                `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
	Pos         string              `json:"-" yaml:"-" msgpack:"-"`
}

// DirectiveArgDecl is an argument of a directive definition.
type DirectiveArgDecl struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

// DirectiveUse is one application of a directive. Args keep their
// declaration order.
type DirectiveUse struct {
	Name string `json:"name" yaml:"name"`
	Args []Arg  `json:"args,omitempty" yaml:"args,omitempty"`
}

// Arg is a directive argument. Value holds GraphQL literal syntax,
// e.g. `"ProductsLambda"` or `300`.
type Arg struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// ErrInvalidDeclaration is returned for declarations that do not hold
// exactly one payload.
var ErrInvalidDeclaration = errors.New("appsyncgen: invalid declaration")

// Validate checks that the declaration holds exactly one payload.
func (d *Declaration) Validate() error {
	n := 0
	if d.Type != nil {
		n++
	}
	if d.Operation != nil {
		n++
	}
	if d.Directive != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("%w: expected exactly one of type, operation or directive, got %d", ErrInvalidDeclaration, n)
	}
	return nil
}

// Label returns a short human readable label for error messages.
func (d *Declaration) Label() string {
	switch {
	case d.Type != nil:
		return d.Type.Kind + " " + d.Type.TypeName()
	case d.Operation != nil:
		name := d.Operation.Name
		if name == "" {
			name = d.Operation.Ident
		}
		return d.Operation.Root + " " + name
	case d.Directive != nil:
		return "directive @" + d.Directive.Name
	default:
		return "empty declaration"
	}
}

// TypeName returns the explicit name override or the identifier.
func (t *TypeDecl) TypeName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Ident
}

// Types returns the type declarations of the snapshot in order.
func (s *Snapshot) Types() []*TypeDecl {
	var types []*TypeDecl
	for _, d := range s.Declarations {
		if d.Type != nil {
			types = append(types, d.Type)
		}
	}
	return types
}

// Operations returns the operation declarations of the snapshot in order.
func (s *Snapshot) Operations() []*OperationDecl {
	var ops []*OperationDecl
	for _, d := range s.Declarations {
		if d.Operation != nil {
			ops = append(ops, d.Operation)
		}
	}
	return ops
}

// Directives returns the directive definitions of the snapshot in order.
func (s *Snapshot) Directives() []*DirectiveDecl {
	var dirs []*DirectiveDecl
	for _, d := range s.Declarations {
		if d.Directive != nil {
			dirs = append(dirs, d.Directive)
		}
	}
	return dirs
}

// Add appends declarations to the snapshot.
func (s *Snapshot) Add(decls ...*Declaration) *Snapshot {
	s.Declarations = append(s.Declarations, decls...)
	return s
}

// Source supplies a snapshot of declarations. Implementations discover
// declarations at compile time or at run time; the compiler depends only
// on this interface.
type Source interface {
	Snapshot() (*Snapshot, error)
}

// SnapshotSource is a Source over an already materialized snapshot.
type SnapshotSource struct {
	snap *Snapshot
}

// FromSnapshot wraps a snapshot into a Source.
func FromSnapshot(s *Snapshot) *SnapshotSource {
	return &SnapshotSource{snap: s}
}

// Snapshot implements Source.
func (s *SnapshotSource) Snapshot() (*Snapshot, error) {
	if s.snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidDeclaration)
	}
	return s.snap, nil
}

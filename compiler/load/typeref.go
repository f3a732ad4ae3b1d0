package load

import (
	"strings"
)

// Nullability is the explicit nullability annotation of a reference type.
type Nullability string

// Nullability annotations. The zero value means unknown.
const (
	NullUnknown  Nullability = ""
	NullNotNull  Nullability = "nonnull"
	NullNullable Nullability = "nullable"
)

// NativeType describes a host-language type as seen by the type mapper.
type NativeType interface {
	// IsValueType reports whether the type is a value type. Nullable
	// wrappers of value types are value types as well.
	IsValueType() bool
	// NullableElem returns the wrapped type of a nullable-wrapped value
	// type, or nil.
	NullableElem() NativeType
	// GenericName returns the generic definition name, or "" for
	// non-generic types.
	GenericName() string
	// TypeArgs returns the generic type arguments.
	TypeArgs() []NativeType
	// ArrayElem returns the element type of a native array, or nil.
	ArrayElem() NativeType
	// Nullability returns the explicit annotation of a reference type.
	Nullability() Nullability
	// FullName returns the fully-qualified type name.
	FullName() string
	// Name returns the simple type name.
	Name() string
}

// TypeRef is the serializable NativeType used by every Source.
//
// Exactly one shape applies: a nullable wrapper (Optional), a generic
// instantiation (Generic + Args), a native array (Elem), or a plain named
// type (Qualified).
type TypeRef struct {
	// Qualified is the fully-qualified name, e.g. "time.Time" or
	// "github.com/acme/shop.Product".
	Qualified string `json:"name,omitempty" yaml:"name,omitempty"`
	// Value marks value types.
	Value bool `json:"value,omitempty" yaml:"value,omitempty"`
	// Optional is the wrapped value type of a nullable wrapper.
	Optional *TypeRef   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Generic  string     `json:"generic,omitempty" yaml:"generic,omitempty"`
	Args     []*TypeRef `json:"args,omitempty" yaml:"args,omitempty"`
	Elem     *TypeRef   `json:"elem,omitempty" yaml:"elem,omitempty"`
	// Null is the nullability annotation of reference types.
	Null Nullability `json:"null,omitempty" yaml:"null,omitempty"`
}

var _ NativeType = (*TypeRef)(nil)

// IsValueType implements NativeType.
func (r *TypeRef) IsValueType() bool {
	return r.Value || r.Optional != nil
}

// NullableElem implements NativeType.
func (r *TypeRef) NullableElem() NativeType {
	if r.Optional == nil {
		return nil
	}
	return r.Optional
}

// GenericName implements NativeType.
func (r *TypeRef) GenericName() string {
	return r.Generic
}

// TypeArgs implements NativeType.
func (r *TypeRef) TypeArgs() []NativeType {
	args := make([]NativeType, 0, len(r.Args))
	for _, a := range r.Args {
		if a == nil {
			args = append(args, nil)
			continue
		}
		args = append(args, a)
	}
	return args
}

// ArrayElem implements NativeType.
func (r *TypeRef) ArrayElem() NativeType {
	if r.Elem == nil {
		return nil
	}
	return r.Elem
}

// Nullability implements NativeType.
func (r *TypeRef) Nullability() Nullability {
	return r.Null
}

// FullName implements NativeType.
func (r *TypeRef) FullName() string {
	return r.Qualified
}

// Name implements NativeType.
func (r *TypeRef) Name() string {
	return SimpleName(r.Qualified)
}

// String returns a Go-like rendering of the reference, used in errors.
func (r *TypeRef) String() string {
	if r == nil {
		return "<nil>"
	}
	switch {
	case r.Optional != nil:
		return "*" + r.Optional.String()
	case r.Elem != nil:
		return "[...]" + r.Elem.String()
	case r.Generic != "":
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			args[i] = a.String()
		}
		return r.Generic + "[" + strings.Join(args, ", ") + "]"
	default:
		return r.Qualified
	}
}

// NonNull returns a copy of r annotated as not nullable.
func (r *TypeRef) NonNull() *TypeRef {
	c := *r
	c.Null = NullNotNull
	return &c
}

// Nullable returns a copy of r annotated as nullable.
func (r *TypeRef) Nullable() *TypeRef {
	c := *r
	c.Null = NullNullable
	return &c
}

// SimpleName strips the package path and qualifier from a fully-qualified
// type name: "github.com/google/uuid.UUID" becomes "UUID".
func SimpleName(qualified string) string {
	name := qualified
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Value returns a reference to a named value type.
func Value(name string) *TypeRef {
	return &TypeRef{Qualified: name, Value: true}
}

// Ref returns a reference to a named reference type with unknown
// nullability.
func Ref(name string) *TypeRef {
	return &TypeRef{Qualified: name}
}

// Optional wraps a value type into a nullable wrapper.
func Optional(inner *TypeRef) *TypeRef {
	return &TypeRef{Optional: inner}
}

// ListOf returns a generic sequence of elem.
func ListOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Generic: "List", Args: []*TypeRef{elem}}
}

// ArrayOf returns a native array of elem.
func ArrayOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Elem: elem, Value: true}
}

// MapOf returns a generic dictionary from key to val.
func MapOf(key, val *TypeRef) *TypeRef {
	return &TypeRef{Generic: "Map", Args: []*TypeRef{key, val}}
}

// StringValue quotes s as a GraphQL string literal.
func StringValue(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte("0123456789abcdef"[r>>4])
				b.WriteByte("0123456789abcdef"[r&0xf])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

package gen

import (
	"slices"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/appsyncgen/compiler/load"
)

// Mapper maps native type descriptors to GraphQL types. Its tables are
// fixed at construction and never mutated, so one Mapper may be shared by
// concurrent compilation passes.
type Mapper struct {
	overrides    ScalarTable
	builtins     ScalarTable
	sequences    []string
	dictionaries []string
	jsonScalar   string
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithOverrides replaces the semantic scalar table.
func WithOverrides(t ScalarTable) MapperOption {
	return func(m *Mapper) { m.overrides = t }
}

// WithBuiltins replaces the built-in scalar table.
func WithBuiltins(t ScalarTable) MapperOption {
	return func(m *Mapper) { m.builtins = t }
}

// WithSequenceNames replaces the generic names treated as sequences.
func WithSequenceNames(names ...string) MapperOption {
	return func(m *Mapper) { m.sequences = slices.Clone(names) }
}

// WithDictionaryNames replaces the generic names treated as dictionaries.
func WithDictionaryNames(names ...string) MapperOption {
	return func(m *Mapper) { m.dictionaries = slices.Clone(names) }
}

// WithDictionaryScalar sets the scalar string-keyed dictionaries map to.
func WithDictionaryScalar(name string) MapperOption {
	return func(m *Mapper) { m.jsonScalar = name }
}

// NewMapper returns a Mapper with the default Go tables, modified by opts.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		overrides:    DefaultOverrides(),
		builtins:     DefaultBuiltins(),
		sequences:    DefaultSequenceNames,
		dictionaries: DefaultDictionaryNames,
		jsonScalar:   AWSJSON,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapType returns the GraphQL type of t, without the outer non-null
// marker. List elements carry their own marker: "[String!]".
func (m *Mapper) MapType(t load.NativeType) (string, error) {
	typ, err := m.mapNode(t)
	if err != nil {
		return "", err
	}
	return typ.String(), nil
}

// Resolve returns the full GraphQL type of t, including the outer
// non-null marker.
func (m *Mapper) Resolve(t load.NativeType) (*ast.Type, error) {
	typ, err := m.mapNode(t)
	if err != nil {
		return nil, err
	}
	typ.NonNull = m.IsNonNull(t)
	return typ, nil
}

// IsNonNull reports whether t maps to a non-null GraphQL type. Value types
// are non-null unless wrapped as nullable; reference types are non-null
// only when annotated so.
func (m *Mapper) IsNonNull(t load.NativeType) bool {
	if isNilType(t) {
		return false
	}
	if t.NullableElem() != nil {
		return false
	}
	if t.IsValueType() {
		return true
	}
	return t.Nullability() == load.NullNotNull
}

// IsScalar reports whether name is produced by one of the mapper tables.
func (m *Mapper) IsScalar(name string) bool {
	return IsBuiltinScalar(name) || name == m.jsonScalar ||
		slices.Contains(m.overrides.Scalars(), name) ||
		slices.Contains(m.builtins.Scalars(), name)
}

// JSONScalar returns the scalar used for dictionaries.
func (m *Mapper) JSONScalar() string {
	return m.jsonScalar
}

func (m *Mapper) mapNode(t load.NativeType) (*ast.Type, error) {
	if isNilType(t) {
		return nil, &MappingError{Message: "missing type"}
	}
	if inner := t.NullableElem(); inner != nil {
		return m.mapNode(inner)
	}
	if g := t.GenericName(); g != "" {
		args := t.TypeArgs()
		switch {
		case slices.Contains(m.sequences, g):
			if len(args) != 1 {
				return nil, &MappingError{NativeType: g, Message: "sequence without element type"}
			}
			return m.listOf(args[0])
		case slices.Contains(m.dictionaries, g):
			if len(args) != 2 {
				return nil, &MappingError{NativeType: g, Message: "dictionary without key and value types"}
			}
			key, err := m.mapNode(args[0])
			if err != nil {
				return nil, err
			}
			if key.NamedType != ScalarString {
				return nil, &MappingError{NativeType: g, Message: "dictionary keys must map to String, got " + key.String()}
			}
			return ast.NamedType(m.jsonScalar, nil), nil
		}
	}
	if elem := t.ArrayElem(); elem != nil {
		return m.listOf(elem)
	}
	full := t.FullName()
	if s, ok := m.overrides.Lookup(full); ok {
		return ast.NamedType(s, nil), nil
	}
	if s, ok := m.builtins.Lookup(full); ok {
		return ast.NamedType(s, nil), nil
	}
	name := t.Name()
	if s, ok := m.builtins.Lookup(name); ok {
		return ast.NamedType(s, nil), nil
	}
	if !ValidName(name) {
		native := full
		if native == "" {
			native = t.GenericName()
		}
		return nil, &MappingError{NativeType: native, Message: "no GraphQL type applies"}
	}
	return ast.NamedType(name, nil), nil
}

func (m *Mapper) listOf(elem load.NativeType) (*ast.Type, error) {
	if isNilType(elem) {
		return nil, &MappingError{Message: "list without element type"}
	}
	inner, err := m.mapNode(elem)
	if err != nil {
		return nil, err
	}
	inner.NonNull = m.IsNonNull(elem)
	return ast.ListType(inner, nil), nil
}

func isNilType(t load.NativeType) bool {
	if t == nil {
		return true
	}
	r, ok := t.(*load.TypeRef)
	return ok && r == nil
}

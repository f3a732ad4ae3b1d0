package gen

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/appsyncgen/compiler/load"
)

// NewSchema builds the canonical model of snap. The pass is all-or-nothing:
// the first validation failure aborts it and no Schema is returned.
func NewSchema(cfg *Config, snap *load.Snapshot) (*Schema, error) {
	if snap == nil {
		return nil, NewConfigError("Snapshot", nil, "snapshot is required")
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}
	b := &builder{
		cfg:    cfg,
		mapper: cfg.TypeMapper(),
		schema: &Schema{
			Name:    snap.Name,
			Version: snap.Version,
			types:   make(map[string]*TypeEntry),
		},
		ops: make(map[RootKind]map[string]bool),
	}
	steps := []func(*load.Snapshot) error{
		b.declare,
		func(*load.Snapshot) error { return b.checkShapes() },
		func(*load.Snapshot) error { return b.checkDirectives() },
		func(*load.Snapshot) error { return b.resolveReferences() },
		func(*load.Snapshot) error { return b.checkConformance() },
	}
	for _, step := range steps {
		if err := step(snap); err != nil {
			return nil, err
		}
	}
	return b.schema, nil
}

// MustNewSchema is like NewSchema but panics on error.
func MustNewSchema(cfg *Config, snap *load.Snapshot) *Schema {
	s, err := NewSchema(cfg, snap)
	if err != nil {
		panic(err)
	}
	return s
}

type (
	builder struct {
		cfg    *Config
		mapper *Mapper
		schema *Schema
		ops    map[RootKind]map[string]bool
		refs   []reference
	}

	// reference is a named type used by a field, an argument, a return
	// type or a directive argument.
	reference struct {
		name     string
		referrer string
		field    string
		role     string
		input    bool
	}
)

// declare converts every declaration in order.
func (b *builder) declare(snap *load.Snapshot) error {
	for i, d := range snap.Declarations {
		if d == nil {
			return fmt.Errorf("declaration %d: %w", i, load.ErrInvalidDeclaration)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Label(), err)
		}
		var err error
		switch {
		case d.Type != nil:
			err = b.addType(d.Type)
		case d.Operation != nil:
			err = b.addOperation(d.Operation)
		case d.Directive != nil:
			err = b.addDirective(d.Directive)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addType(d *load.TypeDecl) error {
	name := d.TypeName()
	kind, err := ParseTypeKind(d.Kind)
	if err != nil {
		return &InvalidTypeShapeError{Type: name, Kind: d.Kind, Message: err.Error()}
	}
	if !ValidName(name) {
		return &InvalidTypeShapeError{Type: name, Kind: kind.String(), Message: "invalid type name"}
	}
	switch {
	case b.schema.types[name] != nil:
		return &DuplicateDeclarationError{Kind: "type", Name: name}
	case IsBuiltinScalar(name) || IsAWSScalar(name) || b.mapper.IsScalar(name):
		return &DuplicateDeclarationError{Kind: "type", Name: name, Owner: "scalars"}
	case slices.ContainsFunc(Roots, func(r RootKind) bool { return r.TypeName() == name }):
		return &DuplicateDeclarationError{Kind: "type", Name: name, Owner: "root operation types"}
	}
	t := &TypeEntry{
		Name:         name,
		Description:  d.Description,
		Kind:         kind,
		UnionMembers: slices.Clone(d.Members),
		Interfaces:   slices.Clone(d.Interfaces),
		Directives:   appliedDirectives(d.Directives),
	}
	loc := LocFieldDefinition
	if kind == KindInput {
		loc = LocInputFieldDefinition
	}
	for _, fd := range d.Fields {
		if fd == nil || fd.Ignore {
			continue
		}
		f, err := b.field(name, fd, loc, kind == KindInput)
		if err != nil {
			return err
		}
		if t.Field(f.Name) != nil {
			return &DuplicateDeclarationError{Kind: "field", Name: f.Name, Owner: name}
		}
		t.Fields = append(t.Fields, f)
	}
	for _, vd := range d.Values {
		if vd == nil {
			continue
		}
		v, err := enumValue(name, vd)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(t.EnumValues, func(e *EnumValue) bool { return e.Name == v.Name }) {
			return &DuplicateDeclarationError{Kind: "enum value", Name: v.Name, Owner: name}
		}
		t.EnumValues = append(t.EnumValues, v)
	}
	for _, m := range t.UnionMembers {
		b.refs = append(b.refs, reference{name: m, referrer: name, role: "union member"})
	}
	for _, iface := range t.Interfaces {
		b.refs = append(b.refs, reference{name: iface, referrer: name, role: "interface"})
	}
	b.schema.Types = append(b.schema.Types, t)
	b.schema.types[name] = t
	return nil
}

func enumValue(owner string, d *load.EnumValueDecl) (*EnumValue, error) {
	name := d.Name
	if name == "" {
		name = EnumValueName(d.Ident)
	}
	if !ValidName(name) || name == "true" || name == "false" || name == "null" {
		return nil, &InvalidTypeShapeError{Type: owner, Kind: KindEnum.String(), Message: fmt.Sprintf("invalid enum value name %q", name)}
	}
	v := &EnumValue{
		Name:              name,
		Description:       d.Description,
		Deprecated:        d.Deprecated,
		DeprecationReason: d.DeprecationReason,
	}
	v.Directives, v.Deprecated, v.DeprecationReason = foldDeprecated(d.Directives, v.Deprecated, v.DeprecationReason)
	return v, nil
}

// field converts a field, an input field or an argument. owner is used in
// errors and reference tracking.
func (b *builder) field(owner string, d *load.FieldDecl, loc Location, input bool) (*FieldEntry, error) {
	name := d.Name
	if name == "" {
		name = FieldName(d.Ident)
	}
	if !ValidName(name) {
		return nil, &InvalidTypeShapeError{Type: owner, Message: fmt.Sprintf("invalid field name %q", name)}
	}
	typ, nullable, err := b.resolve(d.Type, d.TypeName)
	if err != nil {
		return nil, withOwner(err, owner, name)
	}
	f := &FieldEntry{
		Name:              name,
		Description:       d.Description,
		Type:              typ,
		Nullable:          nullable && !d.NonNull,
		Deprecated:        d.Deprecated,
		DeprecationReason: d.DeprecationReason,
		DefaultValue:      d.Default,
	}
	f.Directives, f.Deprecated, f.DeprecationReason = foldDeprecated(d.Directives, f.Deprecated, f.DeprecationReason)
	role := "type"
	if loc == LocArgumentDefinition {
		role = "argument type"
	}
	b.refs = append(b.refs, reference{name: NamedType(typ), referrer: owner, field: name, role: role, input: input})
	if len(d.Arguments) > 0 {
		if loc != LocFieldDefinition {
			return nil, &InvalidTypeShapeError{Type: owner, Message: fmt.Sprintf("field %q cannot declare arguments", name)}
		}
		args, err := b.arguments(owner+"."+name, d.Arguments)
		if err != nil {
			return nil, err
		}
		f.Arguments = args
	}
	return f, nil
}

func (b *builder) arguments(owner string, decls []*load.FieldDecl) ([]*FieldEntry, error) {
	var args []*FieldEntry
	for _, ad := range decls {
		if ad == nil || ad.Ignore {
			continue
		}
		a, err := b.field(owner, ad, LocArgumentDefinition, true)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(args, func(e *FieldEntry) bool { return e.Name == a.Name }) {
			return nil, &DuplicateDeclarationError{Kind: "argument", Name: a.Name, Owner: owner}
		}
		args = append(args, a)
	}
	return args, nil
}

// resolve returns the rendered type without the outer non-null marker and
// whether it is nullable. An explicit override wins over the native type.
func (b *builder) resolve(t *load.TypeRef, override string) (string, bool, error) {
	if override != "" {
		typ, err := ParseTypeString(override)
		if err != nil {
			return "", false, &MappingError{NativeType: override, Message: err.Error()}
		}
		nonNull := typ.NonNull
		typ.NonNull = false
		return typ.String(), !nonNull, nil
	}
	if t == nil {
		return "", false, &MappingError{Message: "missing type"}
	}
	typ, err := b.mapper.Resolve(t)
	if err != nil {
		var mapErr *MappingError
		if errors.As(err, &mapErr) && mapErr.NativeType == "" {
			mapErr.NativeType = t.String()
		}
		return "", false, err
	}
	nonNull := typ.NonNull
	typ.NonNull = false
	return typ.String(), !nonNull, nil
}

func (b *builder) addOperation(d *load.OperationDecl) error {
	root, err := ParseRootKind(d.Root)
	if err != nil {
		return &InvalidTypeShapeError{Type: d.Ident, Kind: "operation", Message: err.Error()}
	}
	name := d.Name
	if name == "" {
		name = FieldName(d.Ident)
	}
	if !ValidName(name) {
		return &InvalidTypeShapeError{Type: root.TypeName(), Kind: "operation", Message: fmt.Sprintf("invalid operation name %q", name)}
	}
	if b.ops[root] == nil {
		b.ops[root] = make(map[string]bool)
	}
	if b.ops[root][name] {
		return &DuplicateDeclarationError{Kind: "operation", Name: name, Owner: root.TypeName()}
	}
	b.ops[root][name] = true
	owner := root.TypeName() + "." + name
	args, err := b.arguments(owner, d.Arguments)
	if err != nil {
		return err
	}
	typ, nullable, err := b.resolve(d.Returns, d.ReturnTypeName)
	if err != nil {
		return withOwner(err, root.TypeName(), name)
	}
	op := &OperationEntry{
		Name:              name,
		Root:              root,
		Description:       d.Description,
		Arguments:         args,
		ReturnType:        typ,
		ReturnNullable:    nullable && !d.NonNull,
		Deprecated:        d.Deprecated,
		DeprecationReason: d.DeprecationReason,
	}
	op.Directives, op.Deprecated, op.DeprecationReason = foldDeprecated(d.Directives, op.Deprecated, op.DeprecationReason)
	b.refs = append(b.refs, reference{name: NamedType(typ), referrer: root.TypeName(), field: name, role: "return type"})
	if d.Resolver != nil {
		if op.Resolver, err = resolverBinding(owner, d.Resolver); err != nil {
			return err
		}
	}
	b.schema.Operations = append(b.schema.Operations, op)
	return nil
}

func resolverBinding(owner string, c *load.ResolverConfig) (*ResolverBinding, error) {
	shapeErr := func(msg string) error {
		return &InvalidTypeShapeError{Type: owner, Kind: "resolver", Message: msg}
	}
	r := &ResolverBinding{
		DataSource:         c.DataSource,
		Functions:          slices.Clone(c.Functions),
		RequestMappingRef:  c.RequestMapping,
		ResponseMappingRef: c.ResponseMapping,
	}
	switch c.Kind {
	case load.ResolverUnit:
		r.Kind = ResolverUnit
	case load.ResolverPipeline:
		r.Kind = ResolverPipeline
	case "":
		if len(c.Functions) > 0 {
			r.Kind = ResolverPipeline
		} else {
			r.Kind = ResolverUnit
		}
	default:
		return nil, shapeErr(fmt.Sprintf("unknown resolver kind %q", c.Kind))
	}
	switch {
	case r.DataSource != "" && len(r.Functions) > 0:
		return nil, shapeErr("both a data source and a function chain are set")
	case r.Kind == ResolverUnit && r.DataSource == "":
		return nil, shapeErr("unit resolver without data source")
	case r.Kind == ResolverPipeline && len(r.Functions) == 0:
		return nil, shapeErr("pipeline resolver with an empty function chain")
	case slices.Contains(r.Functions, ""):
		return nil, shapeErr("pipeline resolver with an empty function name")
	}
	return r, nil
}

func (b *builder) addDirective(d *load.DirectiveDecl) error {
	if !ValidName(d.Name) {
		return &InvalidTypeShapeError{Type: "@" + d.Name, Kind: "directive", Message: "invalid directive name"}
	}
	if b.schema.Directive(d.Name) != nil || builtinDirectives[d.Name] != nil {
		return &DuplicateDeclarationError{Kind: "directive", Name: "@" + d.Name}
	}
	if len(d.Locations) == 0 {
		return &InvalidTypeShapeError{Type: "@" + d.Name, Kind: "directive", Message: "no locations"}
	}
	def := &DirectiveDefinition{
		Name:        d.Name,
		Description: d.Description,
		Repeatable:  d.Repeatable,
	}
	for _, l := range d.Locations {
		loc := Location(l)
		if !loc.Valid() {
			return &InvalidTypeShapeError{Type: "@" + d.Name, Kind: "directive", Message: fmt.Sprintf("unknown location %q", l)}
		}
		if slices.Contains(def.Locations, loc) {
			return &DuplicateDeclarationError{Kind: "location", Name: l, Owner: "@" + d.Name}
		}
		def.Locations = append(def.Locations, loc)
	}
	for _, ad := range d.Arguments {
		if ad == nil {
			continue
		}
		if !ValidName(ad.Name) {
			return &InvalidTypeShapeError{Type: "@" + d.Name, Kind: "directive", Message: fmt.Sprintf("invalid argument name %q", ad.Name)}
		}
		if slices.ContainsFunc(def.Arguments, func(a *DirectiveArgument) bool { return a.Name == ad.Name }) {
			return &DuplicateDeclarationError{Kind: "argument", Name: ad.Name, Owner: "@" + d.Name}
		}
		typ, err := ParseTypeString(ad.Type)
		if err != nil {
			return &MappingError{Type: "@" + d.Name, Field: ad.Name, NativeType: ad.Type, Message: err.Error()}
		}
		required := ad.Required || typ.NonNull
		typ.NonNull = false
		def.Arguments = append(def.Arguments, &DirectiveArgument{
			Name:         ad.Name,
			Type:         typ.String(),
			Required:     required,
			DefaultValue: ad.Default,
		})
		b.refs = append(b.refs, reference{name: typ.Name(), referrer: "@" + d.Name, field: ad.Name, role: "argument type", input: true})
	}
	b.schema.Directives = append(b.schema.Directives, def)
	return nil
}

// checkShapes validates that every type holds the content its kind allows.
func (b *builder) checkShapes() error {
	for _, t := range b.schema.Types {
		shapeErr := func(msg string) error {
			return &InvalidTypeShapeError{Type: t.Name, Kind: t.Kind.String(), Message: msg}
		}
		switch t.Kind {
		case KindEnum:
			switch {
			case len(t.EnumValues) == 0:
				return shapeErr("enum without values")
			case len(t.Fields) > 0:
				return shapeErr("enum with fields")
			case len(t.UnionMembers) > 0:
				return shapeErr("enum with union members")
			case len(t.Interfaces) > 0:
				return shapeErr("enum implementing interfaces")
			}
		case KindUnion:
			switch {
			case len(t.UnionMembers) == 0:
				return shapeErr("union without members")
			case len(t.Fields) > 0:
				return shapeErr("union with fields")
			case len(t.EnumValues) > 0:
				return shapeErr("union with enum values")
			case len(t.Interfaces) > 0:
				return shapeErr("union implementing interfaces")
			}
			seen := make(map[string]bool, len(t.UnionMembers))
			for _, m := range t.UnionMembers {
				if seen[m] {
					return &DuplicateDeclarationError{Kind: "union member", Name: m, Owner: t.Name}
				}
				seen[m] = true
			}
		default:
			switch {
			case len(t.Fields) == 0:
				return shapeErr(t.Kind.String() + " without fields")
			case len(t.EnumValues) > 0:
				return shapeErr(t.Kind.String() + " with enum values")
			case len(t.UnionMembers) > 0:
				return shapeErr(t.Kind.String() + " with union members")
			case t.Kind == KindInput && len(t.Interfaces) > 0:
				return shapeErr("input implementing interfaces")
			case slices.Contains(t.Interfaces, t.Name):
				return shapeErr("type implementing itself")
			}
			seen := make(map[string]bool, len(t.Interfaces))
			for _, i := range t.Interfaces {
				if seen[i] {
					return &DuplicateDeclarationError{Kind: "interface", Name: i, Owner: t.Name}
				}
				seen[i] = true
			}
		}
	}
	return nil
}

// resolveReferences collects the referenced scalars in first-referenced
// order and, when eager, validates every reference.
func (b *builder) resolveReferences() error {
	seen := make(map[string]bool)
	for _, r := range b.refs {
		t := b.schema.types[r.name]
		scalar := t == nil && (IsBuiltinScalar(r.name) || b.mapper.IsScalar(r.name) || IsAWSScalar(r.name))
		if scalar && (r.role == "union member" || r.role == "interface") {
			if b.cfg.EagerReferences {
				return &InvalidTypeShapeError{Type: r.referrer, Message: fmt.Sprintf("%s %s is a scalar", r.role, r.name)}
			}
			continue
		}
		if IsBuiltinScalar(r.name) || seen[r.name] {
			continue
		}
		switch {
		case t != nil:
			if !b.cfg.EagerReferences {
				continue
			}
			if err := checkReferenceKind(r, t); err != nil {
				return err
			}
		case scalar:
			seen[r.name] = true
			b.schema.Scalars = append(b.schema.Scalars, r.name)
		case b.cfg.EagerReferences:
			return &MissingReferenceError{Name: r.name, Referrer: r.referrer, Field: r.field, Role: r.role}
		}
	}
	return nil
}

func checkReferenceKind(r reference, t *TypeEntry) error {
	shapeErr := func(msg string) error {
		return &InvalidTypeShapeError{Type: r.referrer, Message: msg}
	}
	switch {
	case r.role == "union member" && t.Kind != KindObject:
		return shapeErr(fmt.Sprintf("union member %s is not an object type", t.Name))
	case r.role == "interface" && t.Kind != KindInterface:
		return shapeErr(fmt.Sprintf("%s is not an interface", t.Name))
	case r.input && !t.Kind.IsInput():
		return shapeErr(fmt.Sprintf("%s.%s uses output type %s as input", r.referrer, r.field, t.Name))
	case !r.input && r.role != "union member" && r.role != "interface" && !t.Kind.IsOutput():
		return shapeErr(fmt.Sprintf("%s.%s uses input type %s as output", r.referrer, r.field, t.Name))
	}
	return nil
}

// checkConformance validates that implementers declare every interface
// field with the same type.
func (b *builder) checkConformance() error {
	if !b.cfg.CheckConformance {
		return nil
	}
	for _, t := range b.schema.Types {
		for _, name := range t.Interfaces {
			iface := b.schema.types[name]
			if iface == nil || iface.Kind != KindInterface {
				continue
			}
			for _, want := range iface.Fields {
				got := t.Field(want.Name)
				switch {
				case got == nil:
					return &InvalidTypeShapeError{Type: t.Name, Kind: t.Kind.String(), Message: fmt.Sprintf("missing field %q of interface %s", want.Name, name)}
				case got.TypeString() != want.TypeString():
					return &InvalidTypeShapeError{Type: t.Name, Kind: t.Kind.String(), Message: fmt.Sprintf("field %q has type %s, interface %s declares %s", want.Name, got.TypeString(), name, want.TypeString())}
				}
			}
		}
	}
	return nil
}

// withOwner fills the owner of mapping errors raised by the mapper.
func withOwner(err error, typ, field string) error {
	var mapErr *MappingError
	if errors.As(err, &mapErr) {
		if mapErr.Type == "" {
			mapErr.Type = typ
		}
		if mapErr.Field == "" {
			mapErr.Field = field
		}
	}
	return err
}

func appliedDirectives(uses []*load.DirectiveUse) []*AppliedDirective {
	var dirs []*AppliedDirective
	for _, u := range uses {
		if u == nil {
			continue
		}
		d := &AppliedDirective{Name: strings.TrimPrefix(u.Name, "@")}
		for _, a := range u.Args {
			d.Arguments = append(d.Arguments, Argument{Name: a.Name, Value: a.Value})
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// foldDeprecated moves explicit @deprecated applications into the
// deprecation flag so that emitters render it once.
func foldDeprecated(uses []*load.DirectiveUse, deprecated bool, reason string) ([]*AppliedDirective, bool, string) {
	var dirs []*AppliedDirective
	for _, d := range appliedDirectives(uses) {
		if d.Name != DirectiveDeprecated {
			dirs = append(dirs, d)
			continue
		}
		deprecated = true
		if v, ok := d.Arguments.Get("reason"); ok && reason == "" {
			reason = unquote(v)
		}
	}
	return dirs, deprecated, reason
}

func unquote(v string) string {
	if s, err := strconv.Unquote(v); err == nil {
		return s
	}
	return strings.Trim(v, `"`)
}

// ParseTypeString parses a GraphQL type reference such as "[Product!]!".
func ParseTypeString(s string) (*ast.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty type")
	}
	nonNull := strings.HasSuffix(s, "!")
	if nonNull {
		s = strings.TrimSpace(strings.TrimSuffix(s, "!"))
	}
	var typ *ast.Type
	switch {
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unbalanced list type %q", s)
		}
		elem, err := ParseTypeString(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		typ = ast.ListType(elem, nil)
	case ValidName(s):
		typ = ast.NamedType(s, nil)
	default:
		return nil, fmt.Errorf("invalid type %q", s)
	}
	typ.NonNull = nonNull
	return typ, nil
}

package load

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/syssam/appsyncgen/schema/graphql"
)

// Struct tags read from declared Go types.
const (
	TagGraphQL     = "graphql"
	TagDescription = "description"
	TagDirectives  = "directives"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// ReflectSource collects declarations from Go values at run time. It is the
// fallback for programs that cannot run the static PackageSource, and yields
// the same snapshot for equivalent declarations.
//
// Registration errors are collected and returned by Snapshot.
type ReflectSource struct {
	snap *Snapshot
	errs []error
}

// NewReflectSource returns an empty source for the named schema.
func NewReflectSource(name string) *ReflectSource {
	return &ReflectSource{snap: &Snapshot{Name: name}}
}

// Version sets the schema version.
func (s *ReflectSource) Version(v string) *ReflectSource {
	s.snap.Version = v
	return s
}

// Object declares an object type from a struct value or pointer.
func (s *ReflectSource) Object(v any, anns ...graphql.Annotation) *ReflectSource {
	return s.structType(KindObject, v, anns)
}

// Input declares an input type from a struct value or pointer.
func (s *ReflectSource) Input(v any, anns ...graphql.Annotation) *ReflectSource {
	return s.structType(KindInput, v, anns)
}

// Interface declares an interface type from a struct describing its fields.
func (s *ReflectSource) Interface(v any, anns ...graphql.Annotation) *ReflectSource {
	return s.structType(KindInterface, v, anns)
}

// Enum declares an enum type. The values are taken from graphql.Values, or
// from a `Values() []string` method on the type.
func (s *ReflectSource) Enum(v any, anns ...graphql.Annotation) *ReflectSource {
	ann := graphql.Merge(anns...)
	ident := typeIdent(v)
	if ident == "" && ann.Name == "" {
		return s.fail(fmt.Errorf("enum: %T has no name, use graphql.Name", v))
	}
	idents := ann.Values
	if len(idents) == 0 {
		if ev, ok := v.(interface{ Values() []string }); ok {
			idents = ev.Values()
		}
	}
	td := &TypeDecl{Ident: ident, Kind: KindEnum}
	for _, id := range idents {
		td.Values = append(td.Values, &EnumValueDecl{Ident: id})
	}
	if err := applyTypeAnnotation(td, ann); err != nil {
		return s.fail(err)
	}
	return s.Declare(&Declaration{Type: td})
}

// Union declares a union. v is either the union name or a value whose type
// names the union. Members are type names or values of member types.
func (s *ReflectSource) Union(v any, members ...any) *ReflectSource {
	td := &TypeDecl{Ident: typeIdent(v), Kind: KindUnion}
	for _, m := range members {
		td.Members = append(td.Members, typeIdent(m))
	}
	return s.Declare(&Declaration{Type: td})
}

// Query declares a query operation from a function.
func (s *ReflectSource) Query(fn any, anns ...graphql.Annotation) *ReflectSource {
	return s.operation(RootQuery, fn, anns)
}

// Mutation declares a mutation operation from a function.
func (s *ReflectSource) Mutation(fn any, anns ...graphql.Annotation) *ReflectSource {
	return s.operation(RootMutation, fn, anns)
}

// Subscription declares a subscription operation from a function.
func (s *ReflectSource) Subscription(fn any, anns ...graphql.Annotation) *ReflectSource {
	return s.operation(RootSubscription, fn, anns)
}

// Directive declares a custom directive from its GraphQL definition.
//
//	src.Directive(`@cost(weight: Int!) on FIELD_DEFINITION`)
func (s *ReflectSource) Directive(def string, anns ...graphql.Annotation) *ReflectSource {
	d, err := ParseDirectiveDefinition(def)
	if err != nil {
		return s.fail(err)
	}
	d.Description = graphql.Merge(anns...).Description
	return s.Declare(&Declaration{Directive: d})
}

// Declare appends raw declarations.
func (s *ReflectSource) Declare(decls ...*Declaration) *ReflectSource {
	s.snap.Add(decls...)
	return s
}

// Snapshot implements Source.
func (s *ReflectSource) Snapshot() (*Snapshot, error) {
	if err := errors.Join(s.errs...); err != nil {
		return nil, err
	}
	return s.snap, nil
}

func (s *ReflectSource) fail(err error) *ReflectSource {
	s.errs = append(s.errs, fmt.Errorf("reflect source: %w", err))
	return s
}

func (s *ReflectSource) structType(kind string, v any, anns []graphql.Annotation) *ReflectSource {
	t := indirect(reflect.TypeOf(v))
	if t == nil || t.Kind() != reflect.Struct {
		return s.fail(fmt.Errorf("%s: expected a struct, got %T", kind, v))
	}
	td := &TypeDecl{Ident: t.Name(), Kind: kind}
	fields, err := structFields(t)
	if err != nil {
		return s.fail(fmt.Errorf("%s %s: %w", kind, t.Name(), err))
	}
	td.Fields = fields
	if err := applyTypeAnnotation(td, graphql.Merge(anns...)); err != nil {
		return s.fail(err)
	}
	return s.Declare(&Declaration{Type: td})
}

func (s *ReflectSource) operation(root string, fn any, anns []graphql.Annotation) *ReflectSource {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return s.fail(fmt.Errorf("%s: expected a function, got %T", root, fn))
	}
	ann := graphql.Merge(anns...)
	op := &OperationDecl{Ident: funcIdent(v), Root: root}
	if op.Ident == "" && ann.Name == "" {
		return s.fail(fmt.Errorf("%s: anonymous function requires graphql.Name", root))
	}
	t := v.Type()
	var params []reflect.Type
	for i := range t.NumIn() {
		if p := t.In(i); p != contextType {
			params = append(params, p)
		}
	}
	switch {
	case len(ann.Args) == len(params):
		for i, p := range params {
			tag := parseFieldTag(ann.Args[i])
			op.Arguments = append(op.Arguments, tag.argument(tag.Name, typeRefOf(p)))
		}
	case len(ann.Args) == 0 && len(params) == 1 && indirect(params[0]).Kind() == reflect.Struct:
		args, err := structFields(indirect(params[0]))
		if err != nil {
			return s.fail(fmt.Errorf("%s %s: %w", root, op.Ident, err))
		}
		op.Arguments = args
	default:
		return s.fail(fmt.Errorf("%s %s: %d argument names for %d parameters", root, op.Ident, len(ann.Args), len(params)))
	}
	for i := range t.NumOut() {
		if r := t.Out(i); r != errorType {
			op.Returns = typeRefOf(r)
			break
		}
	}
	if op.Returns == nil && ann.Type == "" {
		return s.fail(fmt.Errorf("%s %s: function has no result", root, op.Ident))
	}
	op.Name = ann.Name
	op.Description = ann.Description
	op.ReturnTypeName = ann.Type
	op.NonNull = ann.NonNull
	if ann.Nullable && op.Returns != nil && !op.Returns.IsValueType() {
		op.Returns.Null = NullNullable
	}
	op.Deprecated, op.DeprecationReason = ann.Deprecated, ann.DeprecationReason
	if r := ann.Resolver; r != nil {
		op.Resolver = &ResolverConfig{
			Kind:            r.Kind,
			DataSource:      r.DataSource,
			Functions:       r.Functions,
			RequestMapping:  r.RequestMapping,
			ResponseMapping: r.ResponseMapping,
		}
	}
	dirs, err := parseDirectiveList(ann.Directives)
	if err != nil {
		return s.fail(err)
	}
	op.Directives = dirs
	return s.Declare(&Declaration{Operation: op})
}

func applyTypeAnnotation(td *TypeDecl, ann graphql.Annotation) error {
	if ann.Ignore {
		return fmt.Errorf("%s %s: types cannot be ignored, do not register them", td.Kind, td.Ident)
	}
	td.Name = ann.Name
	td.Description = ann.Description
	td.Interfaces = append(td.Interfaces, ann.Implements...)
	dirs, err := parseDirectiveList(ann.Directives)
	if err != nil {
		return fmt.Errorf("%s %s: %w", td.Kind, td.Ident, err)
	}
	td.Directives = dirs
	return nil
}

func parseDirectiveList(list []string) ([]*DirectiveUse, error) {
	var uses []*DirectiveUse
	for _, d := range list {
		if !strings.HasPrefix(strings.TrimSpace(d), "@") {
			d = "@" + strings.TrimSpace(d)
		}
		parsed, err := ParseDirectives(d)
		if err != nil {
			return nil, err
		}
		uses = append(uses, parsed...)
	}
	return uses, nil
}

// structFields converts the exported fields of t, flattening embedded
// structs in place.
func structFields(t reflect.Type) ([]*FieldDecl, error) {
	var fields []*FieldDecl
	for i := range t.NumField() {
		f := t.Field(i)
		tag := parseFieldTag(f.Tag.Get(TagGraphQL))
		if f.Anonymous && tag.Name == "" && !tag.Ignore {
			if et := indirect(f.Type); et.Kind() == reflect.Struct {
				embedded, err := structFields(et)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		fd := &FieldDecl{
			Ident:       f.Name,
			Description: f.Tag.Get(TagDescription),
			Type:        typeRefOf(f.Type),
		}
		tag.apply(fd)
		if raw := f.Tag.Get(TagDirectives); raw != "" {
			dirs, err := ParseDirectives(raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fd.Directives = dirs
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

// typeRefOf converts a reflect.Type into a TypeRef. Named types keep their
// name; only unnamed composites become lists, arrays and maps.
func typeRefOf(t reflect.Type) *TypeRef {
	if t.Name() != "" {
		if isReferenceKind(t.Kind()) {
			return Ref(qualifiedName(t))
		}
		return Value(qualifiedName(t))
	}
	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.Kind() == reflect.Struct {
			return Ref(qualifiedName(elem))
		}
		return Optional(typeRefOf(elem))
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Value("[]byte")
		}
		return ListOf(typeRefOf(t.Elem()))
	case reflect.Array:
		return ArrayOf(typeRefOf(t.Elem()))
	case reflect.Map:
		return MapOf(typeRefOf(t.Key()), typeRefOf(t.Elem()))
	case reflect.Struct:
		return Value(t.String())
	default:
		return Ref(t.String())
	}
}

func isReferenceKind(k reflect.Kind) bool {
	switch k {
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.Slice, reflect.Map, reflect.Pointer, reflect.UnsafePointer:
		return true
	}
	return false
}

// qualifiedName returns "pkgpath.Name" for named types and the bare name
// for predeclared ones. Type arguments of generic instances are dropped.
func qualifiedName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = t.String()
	}
	if t.PkgPath() == "" {
		return name
	}
	return t.PkgPath() + "." + name
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// typeIdent returns v itself for strings and the Go type name otherwise.
func typeIdent(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if t := indirect(reflect.TypeOf(v)); t != nil {
		return t.Name()
	}
	return ""
}

// funcIdent returns the declared name of a function value, or "" for
// closures.
func funcIdent(v reflect.Value) string {
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	// Drop the package name: "shop.GetProduct", "shop.(*API).Get-fm".
	_, name, _ = strings.Cut(name, ".")
	segs := strings.Split(strings.TrimSuffix(name, "-fm"), ".")
	for _, seg := range segs {
		if isClosureName(seg) {
			return ""
		}
	}
	return segs[len(segs)-1]
}

// isClosureName matches the "func1" and "1" segments the runtime assigns
// to function literals.
func isClosureName(seg string) bool {
	seg = strings.TrimPrefix(seg, "func")
	if seg == "" {
		return false
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

package load

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Declaration markers.
const (
	markerObject       = "object"
	markerInput        = "input"
	markerInterface    = "interface"
	markerEnum         = "enum"
	markerUnion        = "union"
	markerQuery        = "query"
	markerMutation     = "mutation"
	markerSubscription = "subscription"
	markerDefine       = "define"
	markerSchema       = "schema"
	markerName         = "name"
	markerImplements   = "implements"
	markerDirective    = "directive"
	markerDeprecated   = "deprecated"
	markerIgnore       = "ignore"
	markerNonNull      = "nonnull"
	markerNullable     = "nullable"
	markerReturns      = "returns"
	markerResolver     = "resolver"
	markerArg          = "arg"
)

// PackageSource discovers declarations by static analysis of Go packages.
// Types, functions and constants opt in with "+graphql:" markers in their
// doc comments:
//
//	// Product is a catalog entry.
//	// +graphql:object implements=Node
//	type Product struct { ... }
//
//	// +graphql:query name=getProduct
//	// +graphql:resolver=unit datasource=ProductsLambda
//	func GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
//
// Directive definitions and unions without a Go type may be declared in the
// package doc comment:
//
//	// +graphql:define=@cost(weight: Int!) on FIELD_DEFINITION
//	// +graphql:union=SearchResult members=Product,User
//	package shop
//
// Declarations are ordered by package, file name and source position.
type PackageSource struct {
	// Name and Version of the schema. A "+graphql:schema" marker fills
	// them when empty.
	Name    string
	Version string
	// Dir is the directory the patterns are resolved in.
	Dir string
	// Patterns are go/packages load patterns, e.g. "./api/...".
	Patterns []string
	// BuildFlags are passed to the build system.
	BuildFlags []string
}

// NewPackageSource returns a source over the packages matching patterns.
func NewPackageSource(name string, patterns ...string) *PackageSource {
	return &PackageSource{Name: name, Patterns: patterns}
}

// Snapshot implements Source.
func (s *PackageSource) Snapshot() (*Snapshot, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir:        s.Dir,
		BuildFlags: s.BuildFlags,
	}
	patterns := s.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages %v: %w", patterns, err)
	}
	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load packages %v: %w", patterns, err)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })
	snap := &Snapshot{Name: s.Name, Version: s.Version}
	for _, p := range pkgs {
		decls, err := (&pkgScanner{pkg: p, snap: snap}).scan()
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", p.PkgPath, err)
		}
		snap.Add(decls...)
	}
	return snap, nil
}

// pkgScanner collects the declarations of one package.
type pkgScanner struct {
	pkg  *packages.Package
	snap *Snapshot
}

type positioned struct {
	pos  token.Position
	decl *Declaration
}

func (sc *pkgScanner) scan() ([]*Declaration, error) {
	var found []positioned
	add := func(pos token.Pos, d *Declaration) {
		p := sc.pkg.Fset.Position(pos)
		switch {
		case d.Type != nil:
			d.Type.Pos = p.String()
		case d.Operation != nil:
			d.Operation.Pos = p.String()
		case d.Directive != nil:
			d.Directive.Pos = p.String()
		}
		found = append(found, positioned{pos: p, decl: d})
	}
	for _, f := range sc.pkg.Syntax {
		if f.Doc != nil {
			decls, err := sc.packageDoc(f.Doc.Text())
			if err != nil {
				return nil, err
			}
			for _, d := range decls {
				add(f.Package, d)
			}
		}
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if doc == nil && len(decl.Specs) == 1 {
						doc = decl.Doc
					}
					d, err := sc.typeSpec(ts, doc)
					if err != nil {
						return nil, fmt.Errorf("type %s: %w", ts.Name.Name, err)
					}
					if d != nil {
						add(ts.Pos(), d)
					}
				}
			case *ast.FuncDecl:
				if decl.Recv != nil || decl.Doc == nil {
					continue
				}
				d, err := sc.funcDecl(decl)
				if err != nil {
					return nil, fmt.Errorf("func %s: %w", decl.Name.Name, err)
				}
				if d != nil {
					add(decl.Pos(), d)
				}
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i].pos, found[j].pos
		if fa, fb := filepath.Base(a.Filename), filepath.Base(b.Filename); fa != fb {
			return fa < fb
		}
		return a.Offset < b.Offset
	})
	decls := make([]*Declaration, len(found))
	for i, p := range found {
		decls[i] = p.decl
	}
	return decls, nil
}

// packageDoc reads schema, define and union markers of a package comment.
func (sc *pkgScanner) packageDoc(text string) ([]*Declaration, error) {
	markers, _, err := parseMarkers(text)
	if err != nil {
		return nil, err
	}
	var decls []*Declaration
	for _, m := range markers {
		switch m.Key {
		case markerSchema:
			if sc.snap.Name == "" {
				sc.snap.Name = m.Value
			}
			if sc.snap.Version == "" {
				sc.snap.Version = m.param("version", "")
			}
		case markerDefine:
			raw, desc := m.Raw, ""
			if i := strings.Index(raw, " description="); i >= 0 {
				v, err := unquoteMarker(strings.TrimSpace(raw[i+len(" description="):]))
				if err != nil {
					return nil, fmt.Errorf("define %q: %w", raw, err)
				}
				raw, desc = raw[:i], v
			}
			d, err := ParseDirectiveDefinition(raw)
			if err != nil {
				return nil, err
			}
			d.Description = desc
			decls = append(decls, &Declaration{Directive: d})
		case markerUnion:
			td := &TypeDecl{
				Ident:       m.Value,
				Kind:        KindUnion,
				Description: m.param("description", ""),
				Members:     splitList(m.param("members", "")),
			}
			decls = append(decls, &Declaration{Type: td})
		}
	}
	return decls, nil
}

func kindOf(markers []*marker) (string, *marker) {
	for _, m := range markers {
		switch m.Key {
		case markerObject:
			return KindObject, m
		case markerInput:
			return KindInput, m
		case markerInterface:
			return KindInterface, m
		case markerEnum:
			return KindEnum, m
		case markerUnion:
			return KindUnion, m
		}
	}
	return "", nil
}

func (sc *pkgScanner) typeSpec(ts *ast.TypeSpec, doc *ast.CommentGroup) (*Declaration, error) {
	if doc == nil {
		return nil, nil
	}
	markers, desc, err := parseMarkers(doc.Text())
	if err != nil {
		return nil, err
	}
	kind, km := kindOf(markers)
	if kind == "" {
		return nil, nil
	}
	obj, ok := sc.pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("no type information")
	}
	td := &TypeDecl{
		Ident:       ts.Name.Name,
		Name:        km.param(markerName, km.Value),
		Kind:        kind,
		Description: desc,
	}
	if err := applyTypeMarkers(td, markers); err != nil {
		return nil, err
	}
	switch kind {
	case KindObject, KindInput, KindInterface:
		st, ok := obj.Type().Underlying().(*types.Struct)
		if !ok {
			return nil, fmt.Errorf("%s must be declared on a struct type", kind)
		}
		if td.Fields, err = sc.structFields(st); err != nil {
			return nil, err
		}
	case KindEnum:
		if td.Values, err = sc.enumValues(obj); err != nil {
			return nil, err
		}
	case KindUnion:
		td.Members = splitList(km.param("members", ""))
	}
	return &Declaration{Type: td}, nil
}

func applyTypeMarkers(td *TypeDecl, markers []*marker) error {
	for _, m := range markers {
		switch m.Key {
		case markerName:
			td.Name = m.Value
		case markerImplements:
			td.Interfaces = append(td.Interfaces, splitList(m.Value)...)
		case markerDirective:
			uses, err := parseDirectiveList([]string{m.Raw})
			if err != nil {
				return err
			}
			td.Directives = append(td.Directives, uses...)
		}
		if impl := m.param(markerImplements, ""); impl != "" {
			td.Interfaces = append(td.Interfaces, splitList(impl)...)
		}
	}
	return nil
}

// structFields converts struct fields with the same rules as the
// reflection source. Embedded structs are flattened.
func (sc *pkgScanner) structFields(st *types.Struct) ([]*FieldDecl, error) {
	var fields []*FieldDecl
	for i := range st.NumFields() {
		f := st.Field(i)
		stag := reflect.StructTag(st.Tag(i))
		tag := parseFieldTag(stag.Get(TagGraphQL))
		if f.Embedded() && tag.Name == "" && !tag.Ignore {
			t := types.Unalias(f.Type())
			if p, ok := t.(*types.Pointer); ok {
				t = types.Unalias(p.Elem())
			}
			if est, ok := t.Underlying().(*types.Struct); ok {
				embedded, err := sc.structFields(est)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			}
		}
		if !f.Exported() {
			continue
		}
		fd := &FieldDecl{
			Ident:       f.Name(),
			Description: stag.Get(TagDescription),
			Type:        typeRefFromTypes(f.Type()),
		}
		tag.apply(fd)
		if raw := stag.Get(TagDirectives); raw != "" {
			dirs, err := ParseDirectives(raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name(), err)
			}
			fd.Directives = dirs
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

// enumValues collects the constants of the enum type in source order.
// String constants contribute their value; other constants their name
// without the type name prefix.
func (sc *pkgScanner) enumValues(obj *types.TypeName) ([]*EnumValueDecl, error) {
	var values []*EnumValueDecl
	for _, f := range sc.pkg.Syntax {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				for _, id := range vs.Names {
					c, ok := sc.pkg.TypesInfo.Defs[id].(*types.Const)
					if !ok || !types.Identical(c.Type(), obj.Type()) {
						continue
					}
					v, err := enumValue(c, obj.Name(), vs.Doc)
					if err != nil {
						return nil, fmt.Errorf("const %s: %w", c.Name(), err)
					}
					if v != nil {
						values = append(values, v)
					}
				}
			}
		}
	}
	return values, nil
}

func enumValue(c *types.Const, typeName string, doc *ast.CommentGroup) (*EnumValueDecl, error) {
	v := &EnumValueDecl{Ident: strings.TrimPrefix(c.Name(), typeName)}
	if c.Val().Kind() == constant.String {
		v.Ident = constant.StringVal(c.Val())
	}
	if doc == nil {
		return v, nil
	}
	markers, desc, err := parseMarkers(doc.Text())
	if err != nil {
		return nil, err
	}
	v.Description = desc
	for _, m := range markers {
		switch m.Key {
		case markerIgnore:
			return nil, nil
		case markerName:
			v.Name = m.Value
		case markerDeprecated:
			v.Deprecated, v.DeprecationReason = true, m.Value
		case markerDirective:
			uses, err := parseDirectiveList([]string{m.Raw})
			if err != nil {
				return nil, err
			}
			v.Directives = append(v.Directives, uses...)
		}
	}
	return v, nil
}

func (sc *pkgScanner) funcDecl(fd *ast.FuncDecl) (*Declaration, error) {
	markers, desc, err := parseMarkers(fd.Doc.Text())
	if err != nil {
		return nil, err
	}
	op := &OperationDecl{Ident: fd.Name.Name, Description: desc}
	for _, m := range markers {
		switch m.Key {
		case markerQuery:
			op.Root = RootQuery
		case markerMutation:
			op.Root = RootMutation
		case markerSubscription:
			op.Root = RootSubscription
		default:
			continue
		}
		op.Name = m.param(markerName, m.Value)
		op.NonNull = m.hasFlag(markerNonNull)
	}
	if op.Root == "" {
		return nil, nil
	}
	fn, ok := sc.pkg.TypesInfo.Defs[fd.Name].(*types.Func)
	if !ok {
		return nil, fmt.Errorf("no type information")
	}
	sig := fn.Type().(*types.Signature)
	args := make(map[string]fieldTag)
	for _, m := range markers {
		switch m.Key {
		case markerName:
			op.Name = m.Value
		case markerArg:
			tag := parseFieldTag(m.Value)
			args[tag.Name] = tag
		case markerReturns:
			op.ReturnTypeName = m.Value
		case markerNonNull:
			op.NonNull = true
		case markerDeprecated:
			op.Deprecated, op.DeprecationReason = true, m.Value
		case markerDirective:
			uses, err := parseDirectiveList([]string{m.Raw})
			if err != nil {
				return nil, err
			}
			op.Directives = append(op.Directives, uses...)
		case markerResolver:
			op.Resolver = &ResolverConfig{
				Kind:            m.Value,
				DataSource:      m.param("datasource", ""),
				Functions:       splitList(m.param("functions", "")),
				RequestMapping:  m.param("request", ""),
				ResponseMapping: m.param("response", ""),
			}
		}
	}
	var params []*types.Var
	for i := range sig.Params().Len() {
		if p := sig.Params().At(i); !isContext(p.Type()) {
			params = append(params, p)
		}
	}
	if len(params) == 1 && isArgsParam(params[0]) {
		if st, ok := derefStruct(params[0].Type()); ok {
			if op.Arguments, err = sc.structFields(st); err != nil {
				return nil, err
			}
			params = nil
		}
	}
	for _, p := range params {
		if p.Name() == "" || p.Name() == "_" {
			return nil, fmt.Errorf("parameters of operations must be named")
		}
		op.Arguments = append(op.Arguments, args[p.Name()].argument(p.Name(), typeRefFromTypes(p.Type())))
	}
	for i := range sig.Results().Len() {
		if r := sig.Results().At(i).Type(); !isError(r) {
			op.Returns = typeRefFromTypes(r)
			break
		}
	}
	if op.Returns == nil && op.ReturnTypeName == "" {
		return nil, fmt.Errorf("function has no result")
	}
	for _, m := range markers {
		if m.Key == markerNullable && !op.Returns.IsValueType() {
			op.Returns.Null = NullNullable
		}
	}
	return &Declaration{Operation: op}, nil
}

// isArgsParam reports whether p is a parameter whose struct fields are the
// operation arguments: a struct parameter named "args" or left unnamed.
func isArgsParam(p *types.Var) bool {
	switch p.Name() {
	case "", "_", "args":
		return true
	}
	return false
}

func derefStruct(t types.Type) (*types.Struct, bool) {
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	st, ok := t.Underlying().(*types.Struct)
	return st, ok
}

func isContext(t types.Type) bool {
	n, ok := types.Unalias(t).(*types.Named)
	return ok && n.Obj().Pkg() != nil && n.Obj().Pkg().Path() == "context" && n.Obj().Name() == "Context"
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

// typeRefFromTypes converts a go/types type into a TypeRef with the rules
// of typeRefOf.
func typeRefFromTypes(t types.Type) *TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		switch t.Underlying().(type) {
		case *types.Interface, *types.Signature, *types.Chan, *types.Slice, *types.Map, *types.Pointer:
			return Ref(namedName(t))
		default:
			return Value(namedName(t))
		}
	case *types.Basic:
		return Value(types.Typ[t.Kind()].Name())
	case *types.Pointer:
		elem := types.Unalias(t.Elem())
		if n, ok := elem.(*types.Named); ok {
			if _, ok := n.Underlying().(*types.Struct); ok {
				return Ref(namedName(n))
			}
		}
		return Optional(typeRefFromTypes(elem))
	case *types.Slice:
		if b, ok := types.Unalias(t.Elem()).(*types.Basic); ok && b.Kind() == types.Uint8 {
			return Value("[]byte")
		}
		return ListOf(typeRefFromTypes(t.Elem()))
	case *types.Array:
		return ArrayOf(typeRefFromTypes(t.Elem()))
	case *types.Map:
		return MapOf(typeRefFromTypes(t.Key()), typeRefFromTypes(t.Elem()))
	case *types.Struct:
		return Value(t.String())
	default:
		return Ref(t.String())
	}
}

func namedName(n *types.Named) string {
	obj := n.Obj()
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

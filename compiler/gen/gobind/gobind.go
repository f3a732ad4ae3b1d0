// Package gobind renders Go bindings for a schema: operation name
// constants, the resolver table and an operation index.
package gobind

import (
	"bytes"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/syssam/appsyncgen/compiler/gen"
)

// Header is the first line of every generated file.
const Header = "Code generated by appsyncgen. DO NOT EDIT."

// Generate renders the bindings of s as the Go source of package pkg.
// The output follows schema order and is stable across runs.
func Generate(s *gen.Schema, pkg string) ([]byte, error) {
	if s == nil {
		return nil, gen.NewConfigError("Schema", nil, "schema is required")
	}
	if !token.IsIdentifier(pkg) || pkg == "_" {
		return nil, gen.NewConfigError("Package", pkg, "not a valid Go package name")
	}
	consts, err := constNames(s)
	if err != nil {
		return nil, err
	}

	f := jen.NewFile(pkg)
	f.HeaderComment(Header)

	if len(s.Operations) > 0 {
		defs := make([]jen.Code, 0, len(s.Operations))
		for _, op := range s.Operations {
			defs = append(defs, jen.Id(consts[op]).Op("=").Lit(op.Name))
		}
		f.Commentf("Operation names of the %s schema.", schemaName(s))
		f.Const().Defs(defs...)
	}

	f.Comment("Resolver binds an operation to a data source or a function chain.")
	f.Type().Id("Resolver").Struct(
		jen.Id("Operation").String(),
		jen.Id("Type").String(),
		jen.Id("Kind").String(),
		jen.Id("DataSource").String(),
		jen.Id("Functions").Index().String(),
	)

	var resolvers []jen.Code
	for _, op := range s.Operations {
		if op.Resolver == nil {
			continue
		}
		resolvers = append(resolvers, resolverValue(consts[op], op))
	}
	f.Comment("Resolvers lists the resolver bound operations in schema order.")
	f.Var().Id("Resolvers").Op("=").Index().Id("Resolver").ValuesFunc(func(g *jen.Group) {
		for _, r := range resolvers {
			g.Add(r)
		}
	})

	f.Comment("Operations maps operation names to the root types declaring them.")
	f.Var().Id("Operations").Op("=").Map(jen.String()).Index().String().Values(operationIndex(s, consts))

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, gen.NewGenerationError("gobind", "", "render Go bindings", err)
	}
	return buf.Bytes(), nil
}

// ConstName returns the constant name of an operation: the root type name
// followed by the exported operation name, e.g. "QueryGetProduct".
func ConstName(root gen.RootKind, name string) string {
	return root.TypeName() + exported(name)
}

func exported(name string) string {
	if strings.Contains(name, "_") {
		return inflect.Camelize(name)
	}
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}

func constNames(s *gen.Schema) (map[*gen.OperationEntry]string, error) {
	names := make(map[*gen.OperationEntry]string, len(s.Operations))
	owners := make(map[string]*gen.OperationEntry, len(s.Operations))
	for _, op := range s.Operations {
		name := ConstName(op.Root, op.Name)
		if prev, ok := owners[name]; ok {
			return nil, gen.NewGenerationError("gobind", "", "operations "+prev.Name+" and "+op.Name+" both bind to "+name, nil)
		}
		owners[name] = op
		names[op] = name
	}
	return names, nil
}

func resolverValue(id string, op *gen.OperationEntry) jen.Code {
	r := op.Resolver
	d := jen.Dict{
		jen.Id("Operation"): jen.Id(id),
		jen.Id("Type"):      jen.Lit(op.Root.TypeName()),
		jen.Id("Kind"):      jen.Lit(r.Kind.String()),
	}
	if r.DataSource != "" {
		d[jen.Id("DataSource")] = jen.Lit(r.DataSource)
	}
	if len(r.Functions) > 0 {
		d[jen.Id("Functions")] = jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, fn := range r.Functions {
				g.Lit(fn)
			}
		})
	}
	return jen.Values(d)
}

func operationIndex(s *gen.Schema, consts map[*gen.OperationEntry]string) jen.Dict {
	roots := make(map[string][]*gen.OperationEntry)
	var order []string
	for _, op := range s.Operations {
		if _, ok := roots[op.Name]; !ok {
			order = append(order, op.Name)
		}
		roots[op.Name] = append(roots[op.Name], op)
	}
	d := make(jen.Dict, len(order))
	for _, name := range order {
		ops := roots[name]
		d[jen.Id(consts[ops[0]])] = jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, op := range ops {
				g.Lit(op.Root.TypeName())
			}
		})
	}
	return d
}

func schemaName(s *gen.Schema) string {
	if s.Name == "" {
		return "generated"
	}
	return s.Name
}

// Package sdl renders the canonical schema model as a GraphQL SDL document
// and verifies documents against the AppSync prelude.
package sdl

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/load"
)

// DefaultIndent is the indentation of fields, values and arguments.
const DefaultIndent = "  "

type config struct {
	indent     string
	awsScalars bool
}

// Option configures the emitter.
type Option func(*config)

// WithIndent sets the indentation unit.
func WithIndent(indent string) Option {
	return func(c *config) {
		if indent != "" {
			c.indent = indent
		}
	}
}

// DeclareAWSScalars makes the emitter declare the AppSync scalars it
// references. AppSync rejects such declarations, other servers need them.
func DeclareAWSScalars() Option {
	return func(c *config) { c.awsScalars = true }
}

// Emit renders s. The output is a pure function of the model: sections
// follow a fixed order and declarations keep their model order.
func Emit(s *gen.Schema, opts ...Option) ([]byte, error) {
	if s == nil {
		return nil, gen.NewConfigError("Schema", nil, "schema is required")
	}
	cfg := &config{indent: DefaultIndent}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := checkReferences(s); err != nil {
		return nil, err
	}
	p := &printer{indent: cfg.indent}
	for _, name := range s.Scalars {
		if gen.IsAWSScalar(name) && !cfg.awsScalars {
			continue
		}
		p.decl(func() { p.line(0, "scalar ", name) })
	}
	for _, d := range s.Directives {
		p.decl(func() { p.directiveDefinition(d) })
	}
	for _, k := range []gen.TypeKind{gen.KindEnum, gen.KindInterface, gen.KindObject, gen.KindInput, gen.KindUnion} {
		for _, t := range s.TypesOf(k) {
			p.decl(func() { p.typeEntry(t) })
		}
	}
	for _, root := range gen.Roots {
		ops := s.OperationsOf(root)
		if len(ops) == 0 {
			continue
		}
		p.decl(func() { p.root(root, ops) })
	}
	return p.buf.Bytes(), nil
}

// checkReferences resolves every named type the document refers to.
func checkReferences(s *gen.Schema) error {
	known := func(name string) bool {
		return gen.IsBuiltinScalar(name) || s.Type(name) != nil ||
			slices.Contains(s.Scalars, name)
	}
	check := func(typ, referrer, field, role string) error {
		if name := gen.NamedType(typ); !known(name) {
			return &gen.MissingReferenceError{Name: name, Referrer: referrer, Field: field, Role: role}
		}
		return nil
	}
	for _, d := range s.Directives {
		for _, a := range d.Arguments {
			if err := check(a.Type, "@"+d.Name, a.Name, "argument type"); err != nil {
				return err
			}
		}
	}
	for _, t := range s.Types {
		for _, i := range t.Interfaces {
			switch it := s.Type(i); {
			case it == nil:
				return &gen.MissingReferenceError{Name: i, Referrer: t.Name, Role: "interface"}
			case it.Kind != gen.KindInterface:
				return &gen.InvalidTypeShapeError{Type: t.Name, Kind: t.Kind.String(), Message: fmt.Sprintf("%s is not an interface", i)}
			}
		}
		for _, m := range t.UnionMembers {
			switch mt := s.Type(m); {
			case mt == nil:
				return &gen.MissingReferenceError{Name: m, Referrer: t.Name, Role: "union member"}
			case mt.Kind != gen.KindObject:
				return &gen.InvalidTypeShapeError{Type: t.Name, Kind: t.Kind.String(), Message: fmt.Sprintf("union member %s is not an object type", m)}
			}
		}
		for _, f := range t.Fields {
			if err := check(f.Type, t.Name, f.Name, "type"); err != nil {
				return err
			}
			for _, a := range f.Arguments {
				if err := check(a.Type, t.Name+"."+f.Name, a.Name, "argument type"); err != nil {
					return err
				}
			}
		}
	}
	for _, op := range s.Operations {
		root := op.Root.TypeName()
		if err := check(op.ReturnType, root, op.Name, "return type"); err != nil {
			return err
		}
		for _, a := range op.Arguments {
			if err := check(a.Type, root+"."+op.Name, a.Name, "argument type"); err != nil {
				return err
			}
		}
	}
	return nil
}

type printer struct {
	buf    bytes.Buffer
	indent string
}

// decl prints one top-level declaration, separated from the previous one
// by a blank line.
func (p *printer) decl(fn func()) {
	if p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
	fn()
}

func (p *printer) line(depth int, parts ...string) {
	for range depth {
		p.buf.WriteString(p.indent)
	}
	for _, s := range parts {
		p.buf.WriteString(s)
	}
	p.buf.WriteByte('\n')
}

func (p *printer) description(depth int, desc string) {
	if desc == "" {
		return
	}
	desc = strings.ReplaceAll(norm.NFC.String(desc), "\r\n", "\n")
	desc = strings.ReplaceAll(desc, `"""`, `\"""`)
	// A trailing quote or backslash would merge with the closing quotes.
	if !strings.Contains(desc, "\n") && !strings.HasPrefix(desc, `"`) && !strings.HasSuffix(desc, `"`) && !strings.HasSuffix(desc, `\`) {
		p.line(depth, `"""`, desc, `"""`)
		return
	}
	p.line(depth, `"""`)
	for _, l := range strings.Split(desc, "\n") {
		if l == "" {
			p.buf.WriteByte('\n')
			continue
		}
		p.line(depth, l)
	}
	p.line(depth, `"""`)
}

func (p *printer) directiveDefinition(d *gen.DirectiveDefinition) {
	p.description(0, d.Description)
	var b strings.Builder
	b.WriteString("directive @")
	b.WriteString(d.Name)
	if len(d.Arguments) > 0 {
		b.WriteByte('(')
		for i, a := range d.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteString(": ")
			b.WriteString(a.Type)
			if a.Required {
				b.WriteByte('!')
			}
			if a.DefaultValue != "" {
				b.WriteString(" = ")
				b.WriteString(a.DefaultValue)
			}
		}
		b.WriteByte(')')
	}
	if d.Repeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	for i, l := range d.Locations {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(string(l))
	}
	p.line(0, b.String())
}

func (p *printer) typeEntry(t *gen.TypeEntry) {
	p.description(0, t.Description)
	head := t.Kind.Keyword() + " " + t.Name
	if len(t.Interfaces) > 0 {
		head += " implements " + strings.Join(t.Interfaces, " & ")
	}
	head += directives(t.Directives, false, "")
	switch t.Kind {
	case gen.KindUnion:
		p.line(0, head, " = ", strings.Join(t.UnionMembers, " | "))
	case gen.KindEnum:
		p.line(0, head, " {")
		for _, v := range t.EnumValues {
			p.description(1, v.Description)
			p.line(1, v.Name, directives(v.Directives, v.Deprecated, v.DeprecationReason))
		}
		p.line(0, "}")
	default:
		p.line(0, head, " {")
		for _, f := range t.Fields {
			p.field(f.Description, f.Name, f.Arguments, f.TypeString(), f.DefaultValue, f.Directives, f.Deprecated, f.DeprecationReason)
		}
		p.line(0, "}")
	}
}

func (p *printer) root(root gen.RootKind, ops []*gen.OperationEntry) {
	p.line(0, "type ", root.TypeName(), " {")
	for _, op := range ops {
		p.field(op.Description, op.Name, op.Arguments, op.TypeString(), "", op.Directives, op.Deprecated, op.DeprecationReason)
	}
	p.line(0, "}")
}

func (p *printer) field(desc, name string, args []*gen.FieldEntry, typ, def string, dirs []*gen.AppliedDirective, deprecated bool, reason string) {
	p.description(1, desc)
	tail := ": " + typ + defaultValue(def) + directives(dirs, deprecated, reason)
	if len(args) == 0 {
		p.line(1, name, tail)
		return
	}
	described := false
	for _, a := range args {
		described = described || a.Description != ""
	}
	if !described {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = argument(a)
		}
		p.line(1, name, "(", strings.Join(parts, ", "), ")", tail)
		return
	}
	p.line(1, name, "(")
	for _, a := range args {
		p.description(2, a.Description)
		p.line(2, argument(a))
	}
	p.line(1, ")", tail)
}

func argument(a *gen.FieldEntry) string {
	return a.Name + ": " + a.TypeString() + defaultValue(a.DefaultValue) + directives(a.Directives, a.Deprecated, a.DeprecationReason)
}

func defaultValue(v string) string {
	if v == "" {
		return ""
	}
	return " = " + v
}

// directives renders applications in order, followed by @deprecated.
func directives(dirs []*gen.AppliedDirective, deprecated bool, reason string) string {
	var b strings.Builder
	for _, d := range dirs {
		b.WriteString(" @")
		b.WriteString(d.Name)
		if len(d.Arguments) == 0 {
			continue
		}
		b.WriteByte('(')
		for i, a := range d.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteString(": ")
			b.WriteString(a.Value)
		}
		b.WriteByte(')')
	}
	if deprecated {
		b.WriteString(" @deprecated")
		if reason != "" {
			b.WriteString("(reason: ")
			b.WriteString(load.StringValue(norm.NFC.String(reason)))
			b.WriteByte(')')
		}
	}
	return b.String()
}

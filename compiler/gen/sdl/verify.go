package sdl

import (
	"bytes"
	"slices"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/syssam/appsyncgen/compiler/gen"
)

// DocumentName is the source name of emitted documents in errors.
const DocumentName = "schema.graphql"

var awsScalars = []string{
	gen.AWSDate, gen.AWSTime, gen.AWSDateTime, gen.AWSTimestamp, gen.AWSEmail,
	gen.AWSJSON, gen.AWSPhone, gen.AWSURL, gen.AWSIPAddress,
}

// Prelude returns the definitions AppSync provides implicitly: its scalars
// and directives, minus the names in skip.
func Prelude(skip ...string) string {
	p := &printer{indent: DefaultIndent}
	for _, name := range awsScalars {
		if slices.Contains(skip, name) {
			continue
		}
		p.decl(func() { p.line(0, "scalar ", name) })
	}
	for _, d := range gen.AWSDirectives() {
		if slices.Contains(skip, "@"+d.Name) {
			continue
		}
		p.decl(func() { p.directiveDefinition(d) })
	}
	return p.buf.String()
}

// Load parses and validates doc on top of the AppSync prelude. Prelude
// definitions are marked as built in.
func Load(doc []byte) (*ast.Schema, error) {
	src := &ast.Source{Name: DocumentName, Input: string(doc)}
	parsed, err := parser.ParseSchema(src)
	if err != nil {
		return nil, gen.NewGenerationError("verify", DocumentName, "cannot parse SDL", err)
	}
	var declared []string
	for _, d := range parsed.Definitions {
		if d.Kind == ast.Scalar {
			declared = append(declared, d.Name)
		}
	}
	for _, d := range parsed.Directives {
		declared = append(declared, "@"+d.Name)
	}
	prelude := &ast.Source{Name: "appsync.graphql", Input: Prelude(declared...), BuiltIn: true}
	schema, err := gqlparser.LoadSchema(prelude, src)
	if err != nil {
		return nil, gen.NewGenerationError("verify", DocumentName, "invalid SDL", err)
	}
	return schema, nil
}

// Verify reports whether doc is a valid AppSync schema document.
func Verify(doc []byte) error {
	if len(bytes.TrimSpace(doc)) == 0 {
		return gen.NewGenerationError("verify", DocumentName, "empty document", nil)
	}
	_, err := Load(doc)
	return err
}

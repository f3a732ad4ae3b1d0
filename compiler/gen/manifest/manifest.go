// Package manifest builds the resolver manifest consumed by infrastructure
// tooling from the canonical schema model.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/syssam/appsyncgen/compiler/gen"
	"github.com/syssam/appsyncgen/compiler/gen/sdl"
)

// Format is a manifest encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name. The empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", gen.NewConfigError("ManifestFormat", s, "expected json or yaml")
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

type (
	// Manifest lists the resolvers of a schema.
	Manifest struct {
		SchemaName string     `json:"schemaName" yaml:"schemaName"`
		Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
		Resolvers  []Resolver `json:"resolvers" yaml:"resolvers"`
	}

	// Resolver binds one operation to a data source or a function chain.
	Resolver struct {
		Operation          string   `json:"operation" yaml:"operation"`
		Type               string   `json:"type" yaml:"type"`
		Kind               string   `json:"kind" yaml:"kind"`
		DataSource         string   `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
		Functions          []string `json:"functions,omitempty" yaml:"functions,omitempty"`
		RequestMappingRef  string   `json:"requestMappingRef,omitempty" yaml:"requestMappingRef,omitempty"`
		ResponseMappingRef string   `json:"responseMappingRef,omitempty" yaml:"responseMappingRef,omitempty"`
	}
)

// Build returns one entry per operation with a resolver binding, in
// schema order.
func Build(s *gen.Schema) *Manifest {
	m := &Manifest{
		SchemaName: s.Name,
		Version:    s.Version,
		Resolvers:  []Resolver{},
	}
	for _, op := range s.Operations {
		r := op.Resolver
		if r == nil {
			continue
		}
		m.Resolvers = append(m.Resolvers, Resolver{
			Operation:          op.Name,
			Type:               op.Root.TypeName(),
			Kind:               r.Kind.String(),
			DataSource:         r.DataSource,
			Functions:          append([]string(nil), r.Functions...),
			RequestMappingRef:  r.RequestMappingRef,
			ResponseMappingRef: r.ResponseMappingRef,
		})
	}
	return m
}

// Lookup returns the entry of the named operation. Names are compared
// exactly. When several roots share a name, the first entry wins.
func (m *Manifest) Lookup(operation string) (Resolver, bool) {
	for _, r := range m.Resolvers {
		if r.Operation == operation {
			return r, true
		}
	}
	return Resolver{}, false
}

// LookupIn returns the entry of an operation of the given root type.
func (m *Manifest) LookupIn(typ, operation string) (Resolver, bool) {
	for _, r := range m.Resolvers {
		if r.Type == typ && r.Operation == operation {
			return r, true
		}
	}
	return Resolver{}, false
}

// Marshal encodes m. Both encodings are deterministic; JSON is indented by
// two spaces and ends with a newline.
func Marshal(m *Manifest, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, "":
		b, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, gen.NewGenerationError("manifest", "", "encode json", err)
		}
		return append(b, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, gen.NewGenerationError("manifest", "", "encode yaml", err)
		}
		if err := enc.Close(); err != nil {
			return nil, gen.NewGenerationError("manifest", "", "encode yaml", err)
		}
		return buf.Bytes(), nil
	}
	return nil, gen.NewConfigError("ManifestFormat", string(f), "expected json or yaml")
}

// Unmarshal decodes a manifest. YAML decoding accepts JSON documents.
func Unmarshal(data []byte, f Format) (*Manifest, error) {
	m := &Manifest{}
	var err error
	switch f {
	case FormatJSON, "":
		err = json.Unmarshal(data, m)
	case FormatYAML:
		err = yaml.Unmarshal(data, m)
	default:
		return nil, gen.NewConfigError("ManifestFormat", string(f), "expected json or yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// CheckAgainst verifies that every entry names an operation of the SDL
// document, on the root type it claims.
func (m *Manifest) CheckAgainst(doc []byte) error {
	schema, err := sdl.Load(doc)
	if err != nil {
		return err
	}
	for _, r := range m.Resolvers {
		root := schema.Types[r.Type]
		if root == nil || root.Fields.ForName(r.Operation) == nil {
			return &gen.MissingReferenceError{Name: r.Operation, Referrer: "manifest", Role: r.Type + " operation"}
		}
	}
	return nil
}

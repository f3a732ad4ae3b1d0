package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads a snapshot from a YAML or JSON document. Unknown keys
// are rejected.
//
//	name: ShopAPI
//	declarations:
//	  - type:
//	      ident: Product
//	      kind: object
//	      fields:
//	        - ident: Id
//	          type: {name: github.com/google/uuid.UUID, value: true}
//	  - operation:
//	      name: getProduct
//	      root: query
//	      returns: {name: example.com/shop.Product}
//	      resolver: {kind: unit, dataSource: ProductsLambda}
type FileSource struct {
	// Path of the document. Ignored when Data is set.
	Path string
	// Data holds the document contents.
	Data []byte
}

// FromFile returns a source reading the document at path.
func FromFile(path string) *FileSource {
	return &FileSource{Path: path}
}

// FromBytes returns a source over an in-memory document.
func FromBytes(data []byte) *FileSource {
	return &FileSource{Data: data}
}

// Snapshot implements Source.
func (s *FileSource) Snapshot() (*Snapshot, error) {
	data := s.Data
	if data == nil {
		b, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		data = b
	}
	snap, err := DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		if s.Path != "" {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		return nil, err
	}
	return snap, nil
}

// DecodeSnapshot strictly decodes a YAML or JSON snapshot document and
// validates each declaration.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	snap := &Snapshot{}
	if err := dec.Decode(snap); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for i, d := range snap.Declarations {
		if d == nil {
			return nil, fmt.Errorf("declaration %d: %w: empty entry", i, ErrInvalidDeclaration)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("declaration %d: %w", i, err)
		}
	}
	return snap, nil
}

// EncodeSnapshot writes snap as a YAML document.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

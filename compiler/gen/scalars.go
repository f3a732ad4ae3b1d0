package gen

import (
	"encoding/json"
	"maps"
	"net"
	"net/mail"
	"net/netip"
	"net/url"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Built-in GraphQL scalars. They are never declared in the SDL.
const (
	ScalarString  = "String"
	ScalarInt     = "Int"
	ScalarFloat   = "Float"
	ScalarBoolean = "Boolean"
	ScalarID      = "ID"
)

// AWS AppSync scalars.
const (
	AWSDate      = "AWSDate"
	AWSTime      = "AWSTime"
	AWSDateTime  = "AWSDateTime"
	AWSTimestamp = "AWSTimestamp"
	AWSEmail     = "AWSEmail"
	AWSJSON      = "AWSJSON"
	AWSPhone     = "AWSPhone"
	AWSURL       = "AWSURL"
	AWSIPAddress = "AWSIPAddress"
)

// IsBuiltinScalar reports whether name is one of the five GraphQL scalars.
func IsBuiltinScalar(name string) bool {
	switch name {
	case ScalarString, ScalarInt, ScalarFloat, ScalarBoolean, ScalarID:
		return true
	}
	return false
}

// IsAWSScalar reports whether name is a scalar provided by AppSync.
func IsAWSScalar(name string) bool {
	switch name {
	case AWSDate, AWSTime, AWSDateTime, AWSTimestamp, AWSEmail, AWSJSON, AWSPhone, AWSURL, AWSIPAddress:
		return true
	}
	return false
}

// ScalarTable is an immutable mapping from native type names to GraphQL
// scalar names.
type ScalarTable struct {
	m map[string]string
}

// NewScalarTable returns a table holding a copy of entries.
func NewScalarTable(entries map[string]string) ScalarTable {
	return ScalarTable{m: maps.Clone(entries)}
}

// Lookup returns the scalar mapped to name.
func (t ScalarTable) Lookup(name string) (string, bool) {
	s, ok := t.m[name]
	return s, ok
}

// With returns a new table with entries added to or replacing the ones
// of t.
func (t ScalarTable) With(entries map[string]string) ScalarTable {
	m := maps.Clone(t.m)
	if m == nil {
		m = make(map[string]string, len(entries))
	}
	maps.Copy(m, entries)
	return ScalarTable{m: m}
}

// Len returns the number of entries.
func (t ScalarTable) Len() int {
	return len(t.m)
}

// Names returns the mapped native type names, sorted.
func (t ScalarTable) Names() []string {
	return slices.Sorted(maps.Keys(t.m))
}

// Scalars returns the distinct scalar names of the table, sorted.
func (t ScalarTable) Scalars() []string {
	return slices.Compact(slices.Sorted(maps.Values(t.m)))
}

// nativeName returns the qualified name sources assign to t.
func nativeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// Default sequence and dictionary generic names.
var (
	DefaultSequenceNames   = []string{"List", "Slice", "Sequence", "Enumerable", "Collection", "Set", "Array"}
	DefaultDictionaryNames = []string{"Map", "Dictionary"}
)

// DefaultBuiltins returns the built-in scalar table.
func DefaultBuiltins() ScalarTable {
	return NewScalarTable(map[string]string{
		"string":  ScalarString,
		"[]byte":  ScalarString,
		"int":     ScalarInt,
		"int8":    ScalarInt,
		"int16":   ScalarInt,
		"int32":   ScalarInt,
		"int64":   ScalarInt,
		"uint":    ScalarInt,
		"uint8":   ScalarInt,
		"uint16":  ScalarInt,
		"uint32":  ScalarInt,
		"uint64":  ScalarInt,
		"byte":    ScalarInt,
		"rune":    ScalarInt,
		"float32": ScalarFloat,
		"float64": ScalarFloat,
		"decimal": ScalarFloat,
		"bool":    ScalarBoolean,

		"github.com/shopspring/decimal.Decimal": ScalarFloat,
		nativeName(reflect.TypeFor[uuid.UUID]()): ScalarID,
		nativeName(reflect.TypeFor[time.Time]()): AWSDateTime,
	})
}

// DefaultOverrides returns the semantic scalar table. It is consulted
// before the built-in table so that domain scalars win.
func DefaultOverrides() ScalarTable {
	return NewScalarTable(map[string]string{
		nativeName(reflect.TypeFor[time.Time]()):       AWSDateTime,
		nativeName(reflect.TypeFor[net.IP]()):          AWSIPAddress,
		nativeName(reflect.TypeFor[netip.Addr]()):      AWSIPAddress,
		nativeName(reflect.TypeFor[url.URL]()):         AWSURL,
		nativeName(reflect.TypeFor[mail.Address]()):    AWSEmail,
		nativeName(reflect.TypeFor[json.RawMessage]()): AWSJSON,

		"cloud.google.com/go/civil.Date":     AWSDate,
		"cloud.google.com/go/civil.Time":     AWSTime,
		"cloud.google.com/go/civil.DateTime": AWSDateTime,
	})
}

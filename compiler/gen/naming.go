package gen

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var nameRe = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidName reports whether name is a valid, non-reserved GraphQL name.
func ValidName(name string) bool {
	return nameRe.MatchString(name) && !strings.HasPrefix(name, "__")
}

// FieldName returns the default GraphQL name of a field, argument or
// operation identifier: "Id" becomes "id", "ProductID" becomes
// "productID" and "created_at" becomes "createdAt".
func FieldName(ident string) string {
	if strings.ContainsAny(ident, "_-") {
		return inflect.CamelizeDownFirst(ident)
	}
	runes := []rune(ident)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return ident
	case n == len(runes):
		return strings.ToLower(ident)
	case n > 1:
		// Acronym prefix: keep the last upper letter for the next word.
		n--
	}
	return strings.ToLower(string(runes[:n])) + string(runes[n:])
}

// EnumValueName returns the default GraphQL name of an enum value:
// "InProgress" becomes "IN_PROGRESS".
func EnumValueName(ident string) string {
	if isScreamingSnake(ident) {
		return ident
	}
	return strings.ToUpper(inflect.Underscore(ident))
}

func isScreamingSnake(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
	}
	return s != ""
}

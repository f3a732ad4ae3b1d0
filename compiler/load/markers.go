package load

import (
	"fmt"
	"strconv"
	"strings"
)

// MarkerPrefix starts a declaration marker inside a Go doc comment.
const MarkerPrefix = "+graphql:"

// marker is one parsed "+graphql:key=value k=v ..." comment line.
type marker struct {
	Key    string
	Value  string
	Raw    string
	Params map[string]string
	// Flags are the bare words that had no "=value".
	Flags []string
}

// param returns a parameter, or def if missing.
func (m *marker) param(name, def string) string {
	if v, ok := m.Params[name]; ok {
		return v
	}
	return def
}

// hasFlag reports whether a bare flag was set on the marker.
func (m *marker) hasFlag(name string) bool {
	for _, f := range m.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// parseMarkers extracts all markers from the given comment text and
// returns the remaining text as description.
func parseMarkers(text string) ([]*marker, string, error) {
	var (
		markers []*marker
		desc    []string
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, MarkerPrefix) {
			desc = append(desc, line)
			continue
		}
		m, err := parseMarker(strings.TrimPrefix(trimmed, MarkerPrefix))
		if err != nil {
			return nil, "", err
		}
		markers = append(markers, m)
	}
	return markers, strings.TrimSpace(strings.Join(desc, "\n")), nil
}

// parseMarker parses the text following the marker prefix. Directive and
// define markers keep their raw value, which is GraphQL syntax.
func parseMarker(s string) (*marker, error) {
	m := &marker{Params: make(map[string]string)}
	key, raw, _ := strings.Cut(s, "=")
	if key == "directive" || key == "define" {
		m.Key, m.Value, m.Raw = key, strings.TrimSpace(raw), strings.TrimSpace(raw)
		return m, nil
	}
	tokens, err := splitMarkerParams(s)
	if err != nil {
		return nil, fmt.Errorf("marker %q: %w", s, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty marker %q", MarkerPrefix+s)
	}
	head := tokens[0]
	m.Key, m.Value, _ = strings.Cut(head, "=")
	m.Raw = strings.TrimSpace(strings.TrimPrefix(s, head))
	if m.Key == "" {
		return nil, fmt.Errorf("empty marker %q", MarkerPrefix+s)
	}
	if m.Value, err = unquoteMarker(m.Value); err != nil {
		return nil, fmt.Errorf("marker %q: %w", m.Key, err)
	}
	for _, tok := range tokens[1:] {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			m.Flags = append(m.Flags, k)
			continue
		}
		if v, err = unquoteMarker(v); err != nil {
			return nil, fmt.Errorf("marker %q param %q: %w", m.Key, k, err)
		}
		m.Params[k] = v
	}
	return m, nil
}

// splitMarkerParams splits on spaces outside of double quotes.
func splitMarkerParams(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

func unquoteMarker(v string) (string, error) {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return strconv.Unquote(v)
	}
	return v, nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDirectives parses a sequence of directive applications such as
// `@aws_auth(cognito_groups: ["admin"]) @aws_iam`.
func ParseDirectives(s string) ([]*DirectiveUse, error) {
	var (
		uses []*DirectiveUse
		p    = &directiveParser{src: s}
	)
	for {
		p.skipSpace()
		if p.eof() {
			return uses, nil
		}
		use, err := p.directive()
		if err != nil {
			return nil, fmt.Errorf("parse directives %q: %w", s, err)
		}
		uses = append(uses, use)
	}
}

type directiveParser struct {
	src string
	pos int
}

func (p *directiveParser) eof() bool { return p.pos >= len(p.src) }

func (p *directiveParser) peek() byte { return p.src[p.pos] }

func (p *directiveParser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == ',' || p.peek() == '\n') {
		p.pos++
	}
}

func (p *directiveParser) name() (string, error) {
	start := p.pos
	for !p.eof() && isNameByte(p.peek(), p.pos == start) {
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected name at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *directiveParser) directive() (*DirectiveUse, error) {
	if p.peek() != '@' {
		return nil, fmt.Errorf("expected '@' at offset %d", p.pos)
	}
	p.pos++
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	use := &DirectiveUse{Name: name}
	p.skipInline()
	if p.eof() || p.peek() != '(' {
		return use, nil
	}
	p.pos++
	for {
		p.skipSpace()
		if p.eof() {
			return nil, fmt.Errorf("unterminated arguments of @%s", name)
		}
		if p.peek() == ')' {
			p.pos++
			return use, nil
		}
		arg, err := p.name()
		if err != nil {
			return nil, err
		}
		p.skipInline()
		if p.eof() || p.peek() != ':' {
			return nil, fmt.Errorf("expected ':' after argument %q of @%s", arg, name)
		}
		p.pos++
		p.skipInline()
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		use.Args = append(use.Args, Arg{Name: arg, Value: val})
	}
}

func (p *directiveParser) skipInline() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

// value scans one literal value, balancing brackets and braces and
// skipping over strings.
func (p *directiveParser) value() (string, error) {
	start, depth := p.pos, 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '"':
			if err := p.skipString(); err != nil {
				return "", err
			}
			continue
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case depth == 0 && (c == ',' || c == ')' || c == ' ' || c == '\t' || c == '\n'):
			v := strings.TrimSpace(p.src[start:p.pos])
			if v == "" {
				return "", fmt.Errorf("empty value at offset %d", start)
			}
			return v, nil
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated value at offset %d", start)
}

func (p *directiveParser) skipString() error {
	start := p.pos
	p.pos++
	for !p.eof() {
		switch p.peek() {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			return nil
		}
		p.pos++
	}
	return fmt.Errorf("unterminated string at offset %d", start)
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// fieldTag is the parsed form of a `graphql:"..."` struct tag.
type fieldTag struct {
	Name              string
	Ignore            bool
	NonNull           bool
	Nullable          bool
	TypeName          string
	Deprecated        bool
	DeprecationReason string
	Default           string
}

// parseFieldTag parses `graphql:"name,nonnull,type=AWSEmail,deprecated=reason"`.
// A name of "-" ignores the field.
func parseFieldTag(tag string) fieldTag {
	var ft fieldTag
	if tag == "" {
		return ft
	}
	parts := strings.Split(tag, ",")
	ft.Name = strings.TrimSpace(parts[0])
	if ft.Name == "-" {
		ft.Name, ft.Ignore = "", true
	}
	for _, p := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
		switch k {
		case "ignore":
			ft.Ignore = true
		case "nonnull":
			ft.NonNull = true
		case "nullable":
			ft.Nullable = true
		case "type":
			ft.TypeName = v
		case "deprecated":
			ft.Deprecated, ft.DeprecationReason = true, v
		case "default":
			ft.Default = v
		}
	}
	return ft
}

// apply copies the tag settings onto a field declaration.
func (ft fieldTag) apply(fd *FieldDecl) {
	if ft.Name != "" {
		fd.Name = ft.Name
	}
	fd.Ignore = fd.Ignore || ft.Ignore
	fd.NonNull = fd.NonNull || ft.NonNull
	if ft.TypeName != "" {
		fd.TypeName = ft.TypeName
	}
	if ft.Deprecated {
		fd.Deprecated, fd.DeprecationReason = true, ft.DeprecationReason
	}
	if ft.Default != "" {
		fd.Default = ft.Default
	}
	if fd.Type != nil && !fd.Type.IsValueType() {
		switch {
		case ft.NonNull:
			fd.Type.Null = NullNotNull
		case ft.Nullable:
			fd.Type.Null = NullNullable
		}
	}
}

// ParseDirectiveDefinition parses a directive definition in GraphQL syntax
// without the leading "directive" keyword:
//
//	@auth(requires: Role! = ADMIN, scope: String) repeatable on OBJECT | FIELD_DEFINITION
func ParseDirectiveDefinition(s string) (*DirectiveDecl, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "directive "))
	if !strings.HasPrefix(s, "@") {
		return nil, fmt.Errorf("directive definition %q: expected '@'", s)
	}
	p := &directiveParser{src: s, pos: 1}
	name, err := p.name()
	if err != nil {
		return nil, fmt.Errorf("directive definition %q: %w", s, err)
	}
	d := &DirectiveDecl{Name: name}
	rest := strings.TrimSpace(s[p.pos:])
	if strings.HasPrefix(rest, "(") {
		end := closingParen(rest)
		if end < 0 {
			return nil, fmt.Errorf("directive definition %q: unterminated arguments", s)
		}
		for _, a := range splitTopLevel(rest[1:end]) {
			arg, err := parseArgDef(a)
			if err != nil {
				return nil, fmt.Errorf("directive definition %q: %w", s, err)
			}
			d.Arguments = append(d.Arguments, arg)
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	if after, ok := strings.CutPrefix(rest, "repeatable"); ok {
		d.Repeatable, rest = true, strings.TrimSpace(after)
	}
	after, ok := strings.CutPrefix(rest, "on")
	if !ok {
		return nil, fmt.Errorf("directive definition %q: missing locations", s)
	}
	for _, loc := range strings.Split(after, "|") {
		if loc = strings.TrimSpace(loc); loc != "" {
			d.Locations = append(d.Locations, loc)
		}
	}
	if len(d.Locations) == 0 {
		return nil, fmt.Errorf("directive definition %q: missing locations", s)
	}
	return d, nil
}

// parseArgDef parses "name: Type! = default".
func parseArgDef(s string) (*DirectiveArgDecl, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("argument %q: expected ':'", s)
	}
	typ, def, _ := strings.Cut(rest, "=")
	arg := &DirectiveArgDecl{
		Name:    strings.TrimSpace(name),
		Type:    strings.TrimSpace(typ),
		Default: strings.TrimSpace(def),
	}
	if t, ok := strings.CutSuffix(arg.Type, "!"); ok {
		arg.Type, arg.Required = t, true
	}
	if arg.Name == "" || arg.Type == "" {
		return nil, fmt.Errorf("argument %q: empty name or type", s)
	}
	return arg, nil
}

// closingParen returns the index of the parenthesis closing s[0].
func closingParen(s string) int {
	depth, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quoted && c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			if depth--; depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas outside of strings, lists and objects.
func splitTopLevel(s string) []string {
	var (
		parts  []string
		depth  int
		quoted bool
		start  int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quoted && c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[' || c == '{' || c == '(':
			depth++
		case c == ']' || c == '}' || c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// argument builds an operation argument named by the host parameter.
func (ft fieldTag) argument(ident string, typ *TypeRef) *FieldDecl {
	arg := &FieldDecl{Ident: ident, Type: typ}
	ft.Name = ""
	ft.apply(arg)
	return arg
}

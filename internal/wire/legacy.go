package wire

// legacy.go implements the compatibility shim for the historical wire
// format, which rendered objects with Python's repr: single-quoted keys and
// string values, bare integers. The parser here accepts exactly that shape
// (flat objects, string or integer values) rather than arbitrary Python
// literals. Enabled only when the codec is in legacy mode.

import (
	"strconv"
	"strings"
)

// parseLegacyObject parses a flat {'key': 'value', 'n': 5} literal.
// Returns false for anything that is not a well-formed flat object.
func parseLegacyObject(raw string) (map[string]string, bool) {
	s := strings.TrimSpace(raw)

	// Historical responses were sometimes wrapped in an extra quote layer
	// by the original server. Strip one layer if present.
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}

	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}
	s = strings.TrimSpace(s[1 : len(s)-1])

	fields := make(map[string]string)
	if s == "" {
		return fields, true
	}

	p := &legacyParser{input: s}
	for {
		key, ok := p.parseString()
		if !ok {
			return nil, false
		}
		if !p.consume(':') {
			return nil, false
		}
		value, ok := p.parseValue()
		if !ok {
			return nil, false
		}
		fields[key] = value

		p.skipSpace()
		if p.done() {
			return fields, true
		}
		if !p.consume(',') {
			return nil, false
		}
	}
}

// legacyParser is a minimal scanner over the inside of a legacy object.
type legacyParser struct {
	input string
	pos   int
}

func (p *legacyParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *legacyParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *legacyParser) consume(ch byte) bool {
	p.skipSpace()
	if p.done() || p.input[p.pos] != ch {
		return false
	}
	p.pos++
	return true
}

// parseString reads a single- or double-quoted string.
func (p *legacyParser) parseString() (string, bool) {
	p.skipSpace()
	if p.done() {
		return "", false
	}
	quote := p.input[p.pos]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.input) {
		if p.input[p.pos] == quote {
			s := p.input[start:p.pos]
			p.pos++
			return s, true
		}
		p.pos++
	}
	return "", false
}

// parseValue reads a quoted string or a bare (optionally signed) integer.
func (p *legacyParser) parseValue() (string, bool) {
	p.skipSpace()
	if p.done() {
		return "", false
	}
	if p.input[p.pos] == '\'' || p.input[p.pos] == '"' {
		return p.parseString()
	}

	start := p.pos
	if p.input[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	token := p.input[start:p.pos]
	if _, err := strconv.Atoi(token); err != nil {
		return "", false
	}
	return token, true
}

// encodeLegacyObject renders an object the way the historical server did:
// {'key': 'value', 'pin': 5}.
func encodeLegacyObject(o Object) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(f.Key)
		b.WriteString("': ")
		b.WriteString(encodeLegacyValue(f.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// encodeLegacyList renders a list of values, e.g. device record rows or the
// one-element disconnected sentinel.
func encodeLegacyList(items []any) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(encodeLegacyValue(item))
	}
	b.WriteByte(']')
	return b.String()
}

func encodeLegacyValue(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + val + "'"
	case int:
		return strconv.Itoa(val)
	case []any:
		return encodeLegacyList(val)
	case Object:
		return encodeLegacyObject(val)
	default:
		return "'" + stringify(val) + "'"
	}
}

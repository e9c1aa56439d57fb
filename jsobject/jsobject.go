// Package jsobject converts JavaScript object literals embedded in web pages
// into JSON. The input is treated strictly as data: identifiers other than
// true, false and null, calls, member access and template literals are
// rejected instead of evaluated.
package jsobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrSyntax reports input that is not a well-formed literal.
	ErrSyntax = errors.New("jsobject: syntax error")
	// ErrUnsafe reports code (identifiers, calls, member access) where data was expected.
	ErrUnsafe = errors.New("jsobject: expression is not a literal")
)

const maxDepth = 512

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ToJSON parses src, a single object or array literal, and returns the
// equivalent JSON document. Trailing commas are dropped.
func ToJSON(src string) ([]byte, error) {
	p := &parser{src: src}
	p.skipSpace()
	switch p.peek() {
	case '{', '[':
	default:
		return nil, p.errorf(ErrSyntax, "expected object or array literal")
	}
	if err := p.value(0); err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.trailing()
	}
	return p.out.Bytes(), nil
}

type parser struct {
	src string
	pos int
	out bytes.Buffer
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", kind, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) && r != '\uFEFF' {
			return
		}
		p.pos += size
	}
}

// trailing classifies what follows a complete value. Anything that would
// turn the value into an expression is unsafe.
func (p *parser) trailing() error {
	switch p.peek() {
	case '.', '(', '[', '`':
		return p.errorf(ErrUnsafe, "unexpected %q after value", p.peek())
	}
	return p.errorf(ErrSyntax, "unexpected %q after value", p.peek())
}

func (p *parser) value(depth int) error {
	if depth > maxDepth {
		return p.errorf(ErrSyntax, "nesting deeper than %d", maxDepth)
	}
	p.skipSpace()
	c := p.peek()
	switch {
	case p.eof():
		return p.errorf(ErrSyntax, "unexpected end of input")
	case c == '{':
		return p.object(depth)
	case c == '[':
		return p.array(depth)
	case c == '"' || c == '\'':
		s, err := p.str()
		if err != nil {
			return err
		}
		return p.writeString(s)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case c == '`':
		return p.errorf(ErrUnsafe, "template literal")
	case c == '(':
		return p.errorf(ErrUnsafe, "parenthesized expression")
	case c == '/':
		return p.errorf(ErrSyntax, "comments and regular expressions are not allowed")
	}
	if id := p.ident(); id != "" {
		switch id {
		case "true", "false", "null":
			p.out.WriteString(id)
			return nil
		}
		return p.errorf(ErrUnsafe, "identifier %q", id)
	}
	return p.errorf(ErrSyntax, "unexpected %q", c)
}

func (p *parser) object(depth int) error {
	p.pos++ // {
	p.out.WriteByte('{')
	first := true
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			p.out.WriteByte('}')
			return nil
		}
		if !first {
			p.out.WriteByte(',')
		}
		first = false

		key, err := p.key()
		if err != nil {
			return err
		}
		if err := p.writeString(key); err != nil {
			return err
		}
		p.skipSpace()
		switch p.peek() {
		case ':':
			p.pos++
		case '(', '.':
			return p.errorf(ErrUnsafe, "unexpected %q after key %q", p.peek(), key)
		default:
			return p.errorf(ErrSyntax, "expected ':' after key %q", key)
		}
		p.out.WriteByte(':')
		if err := p.value(depth + 1); err != nil {
			return err
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		case 0:
			return p.errorf(ErrSyntax, "unterminated object")
		default:
			return p.trailing()
		}
	}
}

func (p *parser) array(depth int) error {
	p.pos++ // [
	p.out.WriteByte('[')
	first := true
	for {
		p.skipSpace()
		switch p.peek() {
		case ']':
			p.pos++
			p.out.WriteByte(']')
			return nil
		case ',':
			return p.errorf(ErrSyntax, "empty array element")
		}
		if !first {
			p.out.WriteByte(',')
		}
		first = false
		if err := p.value(depth + 1); err != nil {
			return err
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		case 0:
			return p.errorf(ErrSyntax, "unterminated array")
		default:
			return p.trailing()
		}
	}
}

func (p *parser) key() (string, error) {
	c := p.peek()
	switch {
	case c == '"' || c == '\'':
		return p.str()
	case c >= '0' && c <= '9':
		start := p.pos
		for !p.eof() && isNumberByte(p.peek()) {
			p.pos++
		}
		lit := p.src[start:p.pos]
		f, err := parseNumber(lit)
		if err != nil {
			return "", p.errorf(ErrSyntax, "bad numeric key %q", lit)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case c == '[':
		return "", p.errorf(ErrUnsafe, "computed property name")
	case c == '.':
		return "", p.errorf(ErrUnsafe, "spread element")
	}
	if id := p.ident(); id != "" {
		return id, nil
	}
	if p.eof() {
		return "", p.errorf(ErrSyntax, "unterminated object")
	}
	return "", p.errorf(ErrSyntax, "unexpected %q where a key was expected", c)
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		isStart := r == '_' || r == '$' || unicode.IsLetter(r)
		if !isStart && (p.pos == start || !unicode.IsDigit(r)) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
		c == '.' || c == 'x' || c == 'X' || c == '+' || c == '-' || c == '_'
}

func (p *parser) number() error {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() {
		c := p.peek()
		isExpSign := (c == '+' || c == '-') && p.pos > digits && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') &&
			!strings.HasPrefix(strings.ToLower(p.src[digits:]), "0x")
		if !isNumberByte(c) || ((c == '+' || c == '-') && !isExpSign) {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if p.pos == digits {
		if id := p.ident(); id != "" {
			return p.errorf(ErrUnsafe, "identifier %q", id)
		}
		return p.errorf(ErrSyntax, "bad number %q", lit)
	}
	f, err := parseNumber(lit)
	if err != nil {
		return p.errorf(ErrSyntax, "bad number %q", lit)
	}
	if jsonNumber.MatchString(strings.TrimPrefix(lit, "+")) {
		p.out.WriteString(strings.TrimPrefix(lit, "+"))
		return nil
	}
	p.out.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func parseNumber(lit string) (float64, error) {
	if strings.Contains(lit, "_") {
		return 0, ErrSyntax
	}
	body := strings.TrimLeft(lit, "+-")
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		n, err := strconv.ParseInt(lit, 0, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(lit, 64)
}

func (p *parser) str() (string, error) {
	quote := p.peek()
	p.pos++
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf(ErrSyntax, "unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\n' || c == '\r':
			return "", p.errorf(ErrSyntax, "newline in string")
		case c == '\\':
			p.pos++
			if err := p.escape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) escape(sb *strings.Builder) error {
	if p.eof() {
		return p.errorf(ErrSyntax, "unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if p.peek() == '\n' {
			p.pos++
		}
	case 'x':
		return p.hexEscape(sb, 2)
	case 'u':
		if p.peek() == '{' {
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end < 0 {
				return p.errorf(ErrSyntax, "bad unicode escape")
			}
			n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+end], 16, 32)
			if err != nil || n > unicode.MaxRune {
				return p.errorf(ErrSyntax, "bad unicode escape")
			}
			sb.WriteRune(rune(n))
			p.pos += end + 1
			return nil
		}
		return p.hexEscape(sb, 4)
	default:
		// \\, \', \", \/ and any other character escape to themselves.
		p.pos--
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		sb.WriteRune(r)
		p.pos += size
	}
	return nil
}

func (p *parser) hexEscape(sb *strings.Builder, n int) error {
	if p.pos+n > len(p.src) {
		return p.errorf(ErrSyntax, "short hex escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return p.errorf(ErrSyntax, "bad hex escape %q", p.src[p.pos:p.pos+n])
	}
	p.pos += n
	r := rune(v)
	// Surrogate pairs arrive as two \u escapes.
	if n == 4 && r >= 0xD800 && r <= 0xDBFF && strings.HasPrefix(p.src[p.pos:], `\u`) && p.pos+6 <= len(p.src) {
		if lo, err := strconv.ParseUint(p.src[p.pos+2:p.pos+6], 16, 32); err == nil && lo >= 0xDC00 && lo <= 0xDFFF {
			r = (r-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000
			p.pos += 6
		}
	}
	sb.WriteRune(r)
	return nil
}

func (p *parser) writeString(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return p.errorf(ErrSyntax, "encode string: %v", err)
	}
	p.out.Write(b)
	return nil
}

// Package json5 converts JSON5 documents to plain JSON and provides the
// literal helpers needed to write JSON5.
//
// Go's JSON5 decoders all produce unordered maps, while a manifest must keep
// its author's key order. Instead of decoding, [ToJSON] transcodes the source
// text to compact JSON with members in source order, so any order-preserving
// JSON decoder can consume the result.
//
// Supported JSON5 syntax:
//   - single and multi-line comments
//   - unquoted (identifier) object keys
//   - single-quoted strings, \x and line-continuation escapes
//   - trailing commas in objects and arrays
//   - hexadecimal numbers, leading/trailing decimal points, explicit plus sign
//
// Infinity, -Infinity and NaN have no JSON representation and become null,
// which is also how JSON.stringify renders them.
package json5

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// SyntaxError describes malformed JSON5 input. Line and Column are 1-based;
// Column counts runes.
type SyntaxError struct {
	Msg    string
	Offset int
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d column %d", e.Msg, e.Line, e.Column)
}

// ToJSON transcodes a JSON5 document into compact JSON, keeping object
// members in source order.
func ToJSON(src []byte) ([]byte, error) {
	p := &parser{src: src}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	if err := p.value(); err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("invalid character %q after top-level value", p.peek())
	}
	return p.out.Bytes(), nil
}

type parser struct {
	src []byte
	pos int
	out bytes.Buffer
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRune(p.src[p.pos:])
	return r
}

func (p *parser) next() rune {
	r, size := utf8.DecodeRune(p.src[p.pos:])
	p.pos += size
	return r
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return p.errorAt(p.pos, format, args...)
}

func (p *parser) errorAt(offset int, format string, args ...any) *SyntaxError {
	if offset > len(p.src) {
		offset = len(p.src)
	}
	line, col := 1, 1
	for _, r := range string(p.src[:offset]) {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: offset, Line: line, Column: col}
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func (p *parser) skipSpace() error {
	for !p.eof() {
		r := p.peek()
		switch {
		case isSpace(r):
			p.next()
		case r == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for !p.eof() && !isLineTerminator(p.peek()) {
				p.next()
			}
		case r == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			start := p.pos
			end := bytes.Index(p.src[p.pos+2:], []byte("*/"))
			if end < 0 {
				return p.errorAt(start, "unterminated comment")
			}
			p.pos += 2 + end + 2
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) value() error {
	switch r := p.peek(); {
	case r == '{':
		return p.object()
	case r == '[':
		return p.array()
	case r == '"' || r == '\'':
		s, err := p.str()
		if err != nil {
			return err
		}
		writeString(&p.out, s)
		return nil
	case r == '-' || r == '+' || r == '.' || (r >= '0' && r <= '9'):
		return p.number()
	case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		return p.keyword()
	default:
		return p.errorf("invalid character %q looking for beginning of value", r)
	}
}

func (p *parser) object() error {
	p.next()
	p.out.WriteByte('{')
	first := true
	for {
		if err := p.skipSpace(); err != nil {
			return err
		}
		if p.eof() {
			return p.errorf("unexpected end of input in object")
		}
		if p.peek() == '}' {
			p.next()
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
		writeString(&p.out, key)

		if err := p.skipSpace(); err != nil {
			return err
		}
		if p.eof() || p.peek() != ':' {
			return p.errorf("expected ':' after object key %q", key)
		}
		p.next()
		p.out.WriteByte(':')
		if err := p.skipSpace(); err != nil {
			return err
		}
		if p.eof() {
			return p.errorf("unexpected end of input in object")
		}
		if err := p.value(); err != nil {
			return err
		}

		if err := p.skipSpace(); err != nil {
			return err
		}
		switch {
		case p.eof():
			return p.errorf("unexpected end of input in object")
		case p.peek() == ',':
			p.next()
		case p.peek() == '}':
		default:
			return p.errorf("invalid character %q after object value", p.peek())
		}
	}
}

func (p *parser) array() error {
	p.next()
	p.out.WriteByte('[')
	first := true
	for {
		if err := p.skipSpace(); err != nil {
			return err
		}
		if p.eof() {
			return p.errorf("unexpected end of input in array")
		}
		if p.peek() == ']' {
			p.next()
			p.out.WriteByte(']')
			return nil
		}
		if !first {
			p.out.WriteByte(',')
		}
		first = false

		if err := p.value(); err != nil {
			return err
		}

		if err := p.skipSpace(); err != nil {
			return err
		}
		switch {
		case p.eof():
			return p.errorf("unexpected end of input in array")
		case p.peek() == ',':
			p.next()
		case p.peek() == ']':
		default:
			return p.errorf("invalid character %q after array element", p.peek())
		}
	}
}

func (p *parser) key() (string, error) {
	if r := p.peek(); r == '"' || r == '\'' {
		return p.str()
	}
	var b strings.Builder
	for i := 0; !p.eof(); i++ {
		start := p.pos
		r := p.peek()
		if r == '\\' {
			p.next()
			if p.eof() || p.next() != 'u' {
				return "", p.errorAt(start, "invalid escape in object key")
			}
			var err error
			if r, err = p.hex4(); err != nil {
				return "", err
			}
		} else {
			p.next()
		}
		ok := isIDStart(r) || (i > 0 && isIDContinue(r))
		if !ok {
			if i == 0 {
				return "", p.errorAt(start, "invalid character %q looking for object key", r)
			}
			p.pos = start
			break
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "", p.errorf("unexpected end of input looking for object key")
	}
	return b.String(), nil
}

func (p *parser) str() (string, error) {
	start := p.pos
	quote := p.next()
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorAt(start, "unterminated string")
		}
		r := p.next()
		switch {
		case r == quote:
			return b.String(), nil
		case r == '\n' || r == '\r':
			return "", p.errorAt(p.pos-1, "invalid line terminator in string")
		case r == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	if p.eof() {
		return p.errorf("unterminated string")
	}
	at := p.pos
	r := p.next()
	switch r {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case '0':
		if !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			return p.errorAt(at, "invalid escape: octal literals are not allowed")
		}
		b.WriteByte(0)
	case 'x':
		v, err := p.hexN(2)
		if err != nil {
			return err
		}
		b.WriteRune(v)
	case 'u':
		v, err := p.hex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(v) && p.pos+1 < len(p.src) && p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
			save := p.pos
			p.pos += 2
			lo, err := p.hex4()
			if err == nil {
				if dec := utf16.DecodeRune(v, lo); dec != unicode.ReplacementChar {
					b.WriteRune(dec)
					return nil
				}
			}
			p.pos = save
		}
		b.WriteRune(v)
	case '\r':
		if !p.eof() && p.peek() == '\n' {
			p.next()
		}
	case '\n', '\u2028', '\u2029':
	default:
		if r >= '1' && r <= '9' {
			return p.errorAt(at, "invalid escape %q", r)
		}
		b.WriteRune(r)
	}
	return nil
}

func (p *parser) hex4() (rune, error) {
	return p.hexN(4)
}

func (p *parser) hexN(n int) (rune, error) {
	if p.pos+n > len(p.src) {
		return 0, p.errorf("invalid hexadecimal escape")
	}
	var v rune
	for i := 0; i < n; i++ {
		d := hexValue(p.src[p.pos+i])
		if d < 0 {
			return 0, p.errorAt(p.pos+i, "invalid hexadecimal escape")
		}
		v = v<<4 | rune(d)
	}
	p.pos += n
	return v, nil
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func (p *parser) number() error {
	start := p.pos
	negative := false
	if c := p.src[p.pos]; c == '+' || c == '-' {
		negative = c == '-'
		p.pos++
	}
	rest := p.src[p.pos:]
	if word := string(wordAt(rest)); word != "" {
		if word != "Infinity" && word != "NaN" {
			return p.errorAt(start, "invalid number")
		}
		p.pos += len(word)
		p.out.WriteString("null")
		return nil
	}

	sign := ""
	if negative {
		sign = "-"
	}

	if bytes.HasPrefix(rest, []byte("0x")) || bytes.HasPrefix(rest, []byte("0X")) {
		p.pos += 2
		digits := p.pos
		for !p.eof() && hexValue(p.src[p.pos]) >= 0 {
			p.pos++
		}
		if digits == p.pos {
			return p.errorAt(start, "invalid hexadecimal number")
		}
		n, _ := new(big.Int).SetString(string(p.src[digits:p.pos]), 16)
		if negative && n.Sign() == 0 {
			sign = ""
		}
		p.out.WriteString(sign + n.String())
		return nil
	}

	intPart := p.digits()
	if len(intPart) > 1 && intPart[0] == '0' {
		return p.errorAt(start, "invalid number: leading zeros are not allowed")
	}
	var frac string
	if !p.eof() && p.src[p.pos] == '.' {
		p.pos++
		frac = p.digits()
	}
	if intPart == "" && frac == "" {
		return p.errorAt(start, "invalid number")
	}
	var exp string
	if !p.eof() && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		expSign := ""
		if !p.eof() && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			if p.src[p.pos] == '-' {
				expSign = "-"
			}
			p.pos++
		}
		d := p.digits()
		if d == "" {
			return p.errorAt(start, "invalid number: missing exponent digits")
		}
		exp = "e" + expSign + d
	}

	if intPart == "" {
		intPart = "0"
	}
	p.out.WriteString(sign + intPart)
	if frac != "" {
		p.out.WriteString("." + frac)
	}
	p.out.WriteString(exp)
	return nil
}

func (p *parser) digits() string {
	start := p.pos
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func wordAt(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z') {
		i++
	}
	return b[:i]
}

func (p *parser) keyword() error {
	start := p.pos
	word := string(wordAt(p.src[p.pos:]))
	p.pos += len(word)
	switch word {
	case "true", "false", "null":
		p.out.WriteString(word)
		return nil
	case "Infinity", "NaN":
		p.out.WriteString("null")
		return nil
	}
	return p.errorAt(start, "invalid literal %q", word)
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func isIDStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIDContinue(r rune) bool {
	return isIDStart(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc) ||
		r == '\u200c' || r == '\u200d'
}

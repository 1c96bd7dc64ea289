package json5

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IsIdentifier reports whether s can be written as an unquoted object key.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 && !isIDStart(r) || i > 0 && !isIDContinue(r) {
			return false
		}
	}
	return true
}

// Key returns the JSON5 spelling of an object key: bare when it is an
// identifier, quoted otherwise.
func Key(s string) string {
	if IsIdentifier(s) {
		return s
	}
	return Quote(s)
}

var escapes = map[rune]string{
	'\\':     `\\`,
	'\b':     `\b`,
	'\f':     `\f`,
	'\n':     `\n`,
	'\r':     `\r`,
	'\t':     `\t`,
	'\v':     `\v`,
	'\u2028': `\u2028`,
	'\u2029': `\u2029`,
}

// Quote returns s as a JSON5 string literal. It uses single quotes unless the
// string holds more single than double quotes, then escapes the chosen
// delimiter.
func Quote(s string) string {
	var singles, doubles int
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '\'':
			singles++
			b.WriteRune(r)
		case r == '"':
			doubles++
			b.WriteRune(r)
		case r == 0:
			if i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
				b.WriteString(`\x00`)
			} else {
				b.WriteString(`\0`)
			}
		case escapes[r] != "":
			b.WriteString(escapes[r])
		case r < ' ':
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}

	quote := "'"
	if singles > doubles {
		quote = `"`
	}
	return quote + strings.ReplaceAll(b.String(), quote, `\`+quote) + quote
}

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/orderedmap"

	"github.com/matzehuels/manifestkit/pkg/json5"
)

// syntax selects the dialect written by an encoder.
type syntax int

const (
	syntaxJSON syntax = iota
	syntaxJSON5
)

// encoder writes ordered manifest values in the layout JSON.stringify
// produces: one member per line at the given indent, "key": value pairs, and
// compact output when indent is empty.
type encoder struct {
	buf    bytes.Buffer
	indent string
	syntax syntax
}

func encodeJSON(v any, indent string) ([]byte, error) {
	e := &encoder{indent: indent, syntax: syntaxJSON}
	if err := e.value(v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

func encodeJSON5(v any, indent string) ([]byte, error) {
	e := &encoder{indent: indent, syntax: syntaxJSON5}
	if err := e.value(v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

func (e *encoder) value(v any, depth int) error {
	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case orderedmap.OrderedMap:
		return e.object(&x, depth)
	case *orderedmap.OrderedMap:
		if x == nil {
			e.buf.WriteString("null")
			return nil
		}
		return e.object(x, depth)
	case map[string]any:
		obj, _ := asObject(x)
		return e.object(obj, depth)
	case map[string]string:
		obj, _ := asObject(x)
		return e.object(obj, depth)
	case []any:
		return e.array(len(x), func(i int) any { return x[i] }, depth)
	case []string:
		return e.array(len(x), func(i int) any { return x[i] }, depth)
	case string:
		e.str(x)
	case bool:
		e.buf.WriteString(strconv.FormatBool(x))
	case float64:
		e.number(x)
	case float32:
		e.number(float64(x))
	case int:
		e.buf.WriteString(strconv.Itoa(x))
	case int64:
		e.buf.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		e.buf.WriteString(strconv.FormatUint(x, 10))
	case json.Number:
		e.buf.WriteString(x.String())
	default:
		return e.reflected(v, depth)
	}
	return nil
}

// reflected handles values outside the decoded shapes by letting
// encoding/json reduce them to plain data first.
func (e *encoder) reflected(v any, depth int) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("manifest: unsupported value of type %T", v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	plain, err := decodeValue(raw)
	if err != nil {
		return err
	}
	return e.value(plain, depth)
}

func (e *encoder) object(o *orderedmap.OrderedMap, depth int) error {
	keys := o.Keys()
	if len(keys) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if e.syntax == syntaxJSON5 {
			e.buf.WriteString(json5.Key(k))
		} else {
			writeJSONString(&e.buf, k)
		}
		e.buf.WriteByte(':')
		if e.indent != "" {
			e.buf.WriteByte(' ')
		}
		v, _ := o.Get(k)
		if err := e.value(v, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) array(n int, at func(int) any, depth int) error {
	if n == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.value(at(i), depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

func (e *encoder) str(s string) {
	if e.syntax == syntaxJSON5 {
		e.buf.WriteString(json5.Quote(s))
		return
	}
	writeJSONString(&e.buf, s)
}

// number writes f. Non-finite values are written as null in both dialects
// so that every file the encoder produces reads back.
func (e *encoder) number(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.buf.WriteString("null")
		return
	}
	e.buf.WriteString(formatNumber(f))
}

// formatNumber renders f the way JavaScript's Number#toString does.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "e" + string(sign) + exp
}

// writeJSONString quotes s as JSON.stringify does: only quotes, backslashes
// and control characters are escaped.
func writeJSONString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

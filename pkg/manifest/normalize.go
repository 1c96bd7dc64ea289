package manifest

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/iancoleman/orderedmap"
)

// Normalize returns an independent copy of m for comparison. Each dependency
// block that is an object is dropped when empty and key-sorted otherwise;
// every other field keeps its position. A nil manifest normalizes to nil.
func Normalize(m *Manifest) (*Manifest, error) {
	if m == nil {
		return nil, nil
	}
	c, err := canonical(m)
	if err != nil {
		return nil, err
	}
	out := New()
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		if isDependencyKind(k) {
			if block, ok := v.(orderedmap.OrderedMap); ok {
				if len(block.Keys()) == 0 {
					continue
				}
				out.Set(k, *sortedCopy(block))
				continue
			}
		}
		out.Set(k, v)
	}
	return out, nil
}

// Equal reports whether a and b normalize to the same content. Object key
// order is never significant.
func Equal(a, b *Manifest) (bool, error) {
	na, err := Normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := Normalize(b)
	if err != nil {
		return false, err
	}
	return equalNormalized(na, nb), nil
}

func equalNormalized(a, b *Manifest) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalValues(*a, *b)
}

func equalValues(a, b any) bool {
	switch x := a.(type) {
	case orderedmap.OrderedMap:
		y, ok := b.(orderedmap.OrderedMap)
		if !ok || len(x.Keys()) != len(y.Keys()) {
			return false
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, ok := y.Get(k)
			if !ok || !equalValues(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValues(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// canonical deep-copies m through its JSON encoding, which also reduces
// every value to the shapes the JSON reader produces.
func canonical(m *Manifest) (*Manifest, error) {
	raw, err := encodeJSON(m, "")
	if err != nil {
		return nil, err
	}
	out := New()
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeValue decodes any JSON value into ordered shapes.
func decodeValue(raw []byte) (any, error) {
	wrapped := make([]byte, 0, len(raw)+6)
	wrapped = append(wrapped, `{"v":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')
	holder := orderedmap.New()
	if err := json.Unmarshal(wrapped, holder); err != nil {
		return nil, err
	}
	v, _ := holder.Get("v")
	return v, nil
}

// sortedCopy returns a copy of obj with keys in ascending order.
func sortedCopy(obj orderedmap.OrderedMap) *orderedmap.OrderedMap {
	keys := append([]string(nil), obj.Keys()...)
	sort.Strings(keys)
	out := orderedmap.New()
	for _, k := range keys {
		v, _ := obj.Get(k)
		out.Set(k, v)
	}
	return out
}

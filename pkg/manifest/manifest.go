package manifest

import (
	"sort"

	"github.com/iancoleman/orderedmap"
)

// Manifest is a project manifest: string keys in author order mapped to
// arbitrary values. Nested objects are orderedmap.OrderedMap values, arrays
// are []any.
type Manifest = orderedmap.OrderedMap

// New returns an empty manifest.
func New() *Manifest {
	return orderedmap.New()
}

// FileName identifies one of the supported manifest files.
type FileName string

// Supported manifest file names, in lookup priority order.
const (
	FileJSON  FileName = "package.json"
	FileJSON5 FileName = "package.json5"
	FileYAML  FileName = "package.yaml"
)

// Record is the result of a manifest lookup. Manifest is nil when the
// directory holds no manifest; Writer is always set.
type Record struct {
	FileName FileName
	Path     string
	Manifest *Manifest
	Writer   *Writer
}

// Formatting is the layout captured from a JSON or JSON5 file and reapplied
// when it is rewritten.
type Formatting struct {
	// Indent is one indentation unit; empty means compact output.
	Indent string
	// InsertFinalNewline ends the file with "\n".
	InsertFinalNewline bool
}

// DependencyKind names one of the dependency blocks of a manifest.
type DependencyKind string

const (
	KindProd     DependencyKind = "dependencies"
	KindDev      DependencyKind = "devDependencies"
	KindOptional DependencyKind = "optionalDependencies"
	KindPeer     DependencyKind = "peerDependencies"
)

// DependencyKinds lists every dependency block.
var DependencyKinds = []DependencyKind{KindProd, KindDev, KindOptional, KindPeer}

func isDependencyKind(key string) bool {
	for _, k := range DependencyKinds {
		if string(k) == key {
			return true
		}
	}
	return false
}

// Dependencies returns a copy of the given dependency block, or nil if the
// manifest has no such block.
func Dependencies(m *Manifest, kind DependencyKind) *orderedmap.OrderedMap {
	if m == nil {
		return nil
	}
	v, ok := m.Get(string(kind))
	if !ok {
		return nil
	}
	block, ok := asObject(v)
	if !ok {
		return nil
	}
	return block
}

// SetDependency sets name to spec in the given block, creating the block if
// needed. Existing entries keep their position.
func SetDependency(m *Manifest, kind DependencyKind, name, spec string) {
	block := Dependencies(m, kind)
	if block == nil {
		block = orderedmap.New()
	}
	block.Set(name, spec)
	m.Set(string(kind), *block)
}

// RemoveDependency deletes name from the given block and reports whether it
// was present. The block itself is kept even when it becomes empty.
func RemoveDependency(m *Manifest, kind DependencyKind, name string) bool {
	block := Dependencies(m, kind)
	if block == nil {
		return false
	}
	if _, ok := block.Get(name); !ok {
		return false
	}
	block.Delete(name)
	m.Set(string(kind), *block)
	return true
}

// asObject returns a detached ordered copy of an object-shaped value.
func asObject(v any) (*orderedmap.OrderedMap, bool) {
	out := orderedmap.New()
	switch o := v.(type) {
	case orderedmap.OrderedMap:
		for _, k := range o.Keys() {
			val, _ := o.Get(k)
			out.Set(k, val)
		}
	case *orderedmap.OrderedMap:
		if o == nil {
			return nil, false
		}
		return asObject(*o)
	case map[string]any:
		for _, k := range sortedKeys(o) {
			out.Set(k, o[k])
		}
	case map[string]string:
		for _, k := range sortedKeys(o) {
			out.Set(k, o[k])
		}
	default:
		return nil, false
	}
	return out, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

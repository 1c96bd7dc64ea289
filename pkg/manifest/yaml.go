package manifest

import (
	"bytes"
	"fmt"
	"math"

	"github.com/iancoleman/orderedmap"
	"gopkg.in/yaml.v3"
)

const (
	tagNull      = "!!null"
	tagInt       = "!!int"
	tagFloat     = "!!float"
	tagMerge     = "!!merge"
	tagTimestamp = "!!timestamp"
	tagBinary    = "!!binary"
)

// yamlDecoder turns a yaml.Node tree into the value shapes the JSON reader
// produces, keeping mapping order. Aliases are expanded in place.
type yamlDecoder struct {
	active map[*yaml.Node]bool
}

// decodeYAML parses src into a manifest. An empty or null document yields an
// empty manifest; a top-level value that is not a mapping is rejected.
func decodeYAML(src []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New(), nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return New(), nil
	}
	d := &yamlDecoder{active: make(map[*yaml.Node]bool)}
	v, err := d.value(root)
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case nil:
		return New(), nil
	case orderedmap.OrderedMap:
		return &m, nil
	default:
		return nil, errNotObject
	}
}

func (d *yamlDecoder) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if d.active[n.Alias] {
			return nil, fmt.Errorf("yaml: line %d: anchor %q value contains itself", n.Line, n.Value)
		}
		d.active[n.Alias] = true
		defer delete(d.active, n.Alias)
		return d.value(n.Alias)
	case yaml.MappingNode:
		return d.mapping(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0])
	}
	return nil, fmt.Errorf("yaml: line %d: unexpected node kind %d", n.Line, n.Kind)
}

func (d *yamlDecoder) mapping(n *yaml.Node) (orderedmap.OrderedMap, error) {
	out := orderedmap.New()
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() == tagMerge {
			if err := d.merge(out, v); err != nil {
				return orderedmap.OrderedMap{}, err
			}
			continue
		}
		key, err := mappingKey(k)
		if err != nil {
			return orderedmap.OrderedMap{}, err
		}
		val, err := d.value(v)
		if err != nil {
			return orderedmap.OrderedMap{}, err
		}
		out.Set(key, val)
	}
	return *out, nil
}

// merge applies a "<<" entry. Keys already present win over merged ones.
func (d *yamlDecoder) merge(dst *orderedmap.OrderedMap, n *yaml.Node) error {
	sources := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		sources = n.Content
	}
	for _, src := range sources {
		v, err := d.value(src)
		if err != nil {
			return err
		}
		m, ok := v.(orderedmap.OrderedMap)
		if !ok {
			return fmt.Errorf("yaml: line %d: map merge requires map or sequence of maps as the value", src.Line)
		}
		for _, k := range m.Keys() {
			if _, exists := dst.Get(k); exists {
				continue
			}
			val, _ := m.Get(k)
			dst.Set(k, val)
		}
	}
	return nil
}

func mappingKey(n *yaml.Node) (string, error) {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("yaml: line %d: mapping keys must be scalars", n.Line)
	}
	if n.ShortTag() == tagNull {
		return "null", nil
	}
	return n.Value, nil
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case tagTimestamp, tagBinary:
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// encodeYAML renders a manifest as a 2-space block-style YAML document.
func encodeYAML(m *Manifest) ([]byte, error) {
	root, err := yamlNode(*m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case orderedmap.OrderedMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range x.Keys() {
			key := &yaml.Node{}
			if err := key.Encode(k); err != nil {
				return nil, err
			}
			val, _ := x.Get(k)
			vn, err := yamlNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, vn)
		}
		return n, nil
	case *orderedmap.OrderedMap:
		if x == nil {
			return nullNode(), nil
		}
		return yamlNode(*x)
	case map[string]any:
		obj, _ := asObject(x)
		return yamlNode(*obj)
	case map[string]string:
		obj, _ := asObject(x)
		return yamlNode(*obj)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			en, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	case []string:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			en, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	case nil:
		return nullNode(), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nullNode(), nil
		}
		tag := tagFloat
		if x == math.Trunc(x) && math.Abs(x) < 1e21 {
			tag = tagInt
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: formatNumber(x)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
}

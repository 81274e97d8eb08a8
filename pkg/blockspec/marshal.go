package blockspec

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Tree returns the descriptor as a generic key/value tree with the same
// shape as its source document. Optional sections appear only if they were
// present when loaded.
func (d *Descriptor) Tree() map[string]any {
	t := cloneMap(d.Extra)
	if t == nil {
		t = make(map[string]any)
	}

	t[KeyDescription] = d.Description
	t[KeyCategory] = d.Category
	t[KeyVersion] = d.Version

	props := make(map[string]any, len(d.Properties))
	for name, p := range d.Properties {
		props[name] = p.tree()
	}
	t[KeyProperties] = props
	t[KeyInput] = d.Input.tree()
	t[KeyOutput] = d.Output.tree()

	if d.Miscellaneous != nil {
		misc := make(map[string]any, len(d.Miscellaneous))
		for topic, note := range d.Miscellaneous {
			misc[topic] = note
		}
		t[KeyMiscellaneous] = misc
	}
	if d.Commands != nil {
		t[KeyCommands] = cloneMap(d.Commands)
	}
	return t
}

func (p PropertySpec) tree() map[string]any {
	t := cloneMap(p.Extra)
	if t == nil {
		t = make(map[string]any)
	}
	t[keyPropertyDescription] = p.Description
	if p.HasExample {
		t[keyPropertyExample] = p.Example
	}
	return t
}

func (p Port) tree() map[string]any {
	t := cloneMap(p.Extra)
	if t == nil {
		t = make(map[string]any)
	}
	t[keyPortDescription] = p.Description
	return t
}

// MarshalJSON encodes the descriptor body (without its identifier).
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Tree())
}

// MarshalYAML encodes the descriptor body for yaml.v3.
func (d *Descriptor) MarshalYAML() (any, error) {
	return plainValue(d.Tree()), nil
}

// MarshalJSON encodes the document with blocks in document order.
func (doc *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range doc.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		body, err := doc.blocks[id].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the document as a YAML mapping with blocks in document
// order.
func (doc *Document) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range doc.ids {
		var body yaml.Node
		if err := body.Encode(plainValue(doc.blocks[id].Tree())); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id},
			&body,
		)
	}
	return node, nil
}

// Tree returns the whole document as a generic key/value tree.
func (doc *Document) Tree() map[string]any {
	t := make(map[string]any, len(doc.ids))
	for _, id := range doc.ids {
		t[id] = doc.blocks[id].Tree()
	}
	return t
}

// plainValue replaces json.Number values with int64 or float64 so that
// encoders other than encoding/json see ordinary numbers.
func plainValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

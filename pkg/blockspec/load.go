package blockspec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/version"
	"gopkg.in/yaml.v3"
)

// Load parses and validates a JSON metadata document.
func Load(data []byte) (*Document, error) {
	return load(data)
}

// LoadYAML parses and validates a metadata document written in YAML. The
// document is converted to JSON first and then goes through the same
// checks as Load.
func LoadYAML(data []byte) (*Document, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &ParseError{Err: err}
	}
	if v == nil {
		return nil, &ParseError{Err: errEmptyDocument}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &ParseError{Err: errNotObject}
	}

	converted, err := json.Marshal(v)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("converting YAML to JSON: %w", err)}
	}
	return load(converted)
}

// LoadReader reads a JSON document from r and loads it. The source name is
// attached to any loading error.
func LoadReader(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	doc, err := Load(data)
	if err != nil {
		return nil, setSource(err, source)
	}
	return doc, nil
}

// LoadFile loads a metadata document from a file. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return LoadNamed(path, data)
}

// LoadNamed loads a document whose format follows the extension of name, as
// in LoadFile. The name is attached to any loading error.
func LoadNamed(name string, data []byte) (*Document, error) {
	var (
		doc *Document
		err error
	)
	if IsYAMLPath(name) {
		doc, err = LoadYAML(data)
	} else {
		doc, err = Load(data)
	}
	if err != nil {
		return nil, setSource(err, name)
	}
	return doc, nil
}

// IsYAMLPath reports whether path has a YAML file extension.
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func load(data []byte) (*Document, error) {
	d, err := decode(data)
	if err != nil {
		return nil, err
	}
	if len(d.order) == 0 {
		return nil, &SchemaError{Violations: []string{"document declares no blocks"}}
	}

	doc := &Document{blocks: make(map[string]*Descriptor, len(d.order))}
	for _, id := range d.order {
		if _, seen := doc.blocks[id]; seen {
			return nil, &SchemaError{Block: id, Violations: []string{"duplicate block id"}}
		}

		block, ok := d.tree[id].(map[string]any)
		if !ok {
			return nil, &SchemaError{Block: id, Violations: []string{"block must be a JSON object"}}
		}

		res := Validate(block)
		violations := checkSchema(block)
		violations = append(violations, d.duplicatesIn(id)...)
		if s, ok := block[KeyVersion].(string); ok {
			if _, err := version.Parse(s); err != nil {
				violations = append(violations, fmt.Sprintf("%s: %v", KeyVersion, err))
			}
		}

		if len(res.Missing) > 0 || len(violations) > 0 {
			return nil, &SchemaError{Block: id, Missing: res.Missing, Violations: violations}
		}

		if err := doc.add(newDescriptor(id, block)); err != nil {
			return nil, err
		}
		for _, w := range res.Warnings {
			w.Block = id
			doc.warnings = append(doc.warnings, w)
		}
	}
	return doc, nil
}

// duplicatesIn returns violations for repeated keys inside the given block.
func (d *decoded) duplicatesIn(id string) []string {
	var out []string
	for _, path := range d.dups {
		if len(path) < 2 || path[0] != id {
			continue
		}
		out = append(out, fmt.Sprintf("%s: duplicate key", strings.Join(path[1:], ".")))
	}
	return out
}

package blockspec

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const blockSchemaURL = "block.schema.json"

//go:embed block.schema.json
var blockSchemaJSON string

var (
	blockSchemaOnce sync.Once
	blockSchema     *jsonschema.Schema
	blockSchemaErr  error
)

// BlockSchema returns the JSON Schema describing the shape of one block
// descriptor, as raw JSON text.
func BlockSchema() string {
	return blockSchemaJSON
}

// compiledSchema compiles the embedded block schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	blockSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(blockSchemaURL, strings.NewReader(blockSchemaJSON)); err != nil {
			blockSchemaErr = fmt.Errorf("adding block schema: %w", err)
			return
		}
		blockSchema, blockSchemaErr = compiler.Compile(blockSchemaURL)
	})
	return blockSchema, blockSchemaErr
}

// checkSchema validates the field types of a block tree. Absent fields are
// not reported here; see Validate.
func checkSchema(block map[string]any) []string {
	schema, err := compiledSchema()
	if err != nil {
		return []string{err.Error()}
	}

	err = schema.Validate(block)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}

	var out []string
	collectViolations(ve, &out)
	sort.Strings(out)
	return out
}

// collectViolations flattens a validation error tree into its leaf messages.
func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, fmt.Sprintf("%s: %s", pointerToPath(ve.InstanceLocation), ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}

// pointerToPath turns a JSON pointer ("/Properties/a~1b") into a dotted path
// ("Properties.a/b").
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "(block)"
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

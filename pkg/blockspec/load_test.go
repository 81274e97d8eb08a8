package blockspec

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const i2cBaseID = "nio/I2CBase"

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// i2cBaseTree returns the I2C base document as a generic tree for editing.
func i2cBaseTree(t *testing.T) map[string]any {
	t.Helper()
	var tree map[string]any
	require.NoError(t, json.Unmarshal(readTestdata(t, "i2c_base.json"), &tree))
	return tree
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestLoad_I2CBase(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "i2c_base.json"))
	require.NoError(t, err)

	assert.Equal(t, []string{i2cBaseID}, doc.IDs())
	d, ok := doc.Descriptor(i2cBaseID)
	require.True(t, ok)

	assert.Equal(t, i2cBaseID, d.ID)
	assert.Equal(t, "Hardware", d.Category)
	assert.Equal(t, "1.0.0", d.Version)
	assert.Equal(t, []string{"I2C_address", "platform"}, d.PropertyNames())
	assert.Equal(t, uint32(1), d.ParsedVersion().Major)

	platform, ok := d.Property("platform")
	require.True(t, ok)
	assert.Equal(t, "generic", platform.Example)
	assert.True(t, platform.HasExample)

	assert.NotEmpty(t, d.Input.Description)
	assert.NotEmpty(t, d.Output.Description)
	assert.Equal(t, []string{"Permissions", "Platforms"}, d.MiscellaneousTopics())
	assert.NotNil(t, d.Commands)
	assert.Empty(t, d.Commands)
	assert.Empty(t, doc.Warnings())
}

func TestLoad_RoundTrip(t *testing.T) {
	original := readTestdata(t, "i2c_base.json")
	doc, err := Load(original)
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(original), string(out))
}

func TestLoad_RoundTripKeepsUnknownKeys(t *testing.T) {
	input := `{
  "acme/Thing": {
    "Description": "d",
    "Category": "Misc",
    "Version": "2.3.4",
    "Tags": ["a", "b"],
    "Priority": 7,
    "Properties": {
      "speed": {"description": "how fast", "title": "Speed", "default": 1.5}
    },
    "Input": {"Description": "in", "Schema": {"type": "number"}},
    "Output": {"Description": "out"}
  },
  "acme/Other": {
    "Description": "",
    "Category": "Misc",
    "Version": "0.0.1",
    "Properties": {},
    "Input": {"Description": ""},
    "Output": {"Description": ""},
    "Miscellaneous": {}
  }
}`
	doc, err := Load([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/Thing", "acme/Other"}, doc.IDs())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))

	other, _ := doc.Descriptor("acme/Other")
	assert.NotNil(t, other.Miscellaneous)
	assert.Nil(t, other.Commands)
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	for _, key := range RequiredKeys() {
		t.Run(key, func(t *testing.T) {
			tree := i2cBaseTree(t)
			delete(tree[i2cBaseID].(map[string]any), key)

			_, err := Load(mustJSON(t, tree))
			require.Error(t, err)

			var se *SchemaError
			require.True(t, errors.As(err, &se), "want SchemaError, got %T: %v", err, err)
			assert.Equal(t, []string{key}, se.Missing)
			assert.Empty(t, se.Violations)
			assert.Equal(t, i2cBaseID, se.Block)
			assert.False(t, IsParseError(err))
		})
	}
}

func TestLoad_MissingOptionalSections(t *testing.T) {
	tree := i2cBaseTree(t)
	block := tree[i2cBaseID].(map[string]any)
	delete(block, KeyMiscellaneous)
	delete(block, KeyCommands)

	doc, err := Load(mustJSON(t, tree))
	require.NoError(t, err)

	d, _ := doc.Descriptor(i2cBaseID)
	assert.Nil(t, d.Miscellaneous)
	assert.Nil(t, d.Commands)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(mustJSON(t, tree)), string(out))
}

func TestLoad_MissingPortDescription(t *testing.T) {
	tree := i2cBaseTree(t)
	tree[i2cBaseID].(map[string]any)[KeyOutput] = map[string]any{}

	_, err := Load(mustJSON(t, tree))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"Output.Description"}, se.Missing)
}

func TestLoad_PropertyWithoutDescription(t *testing.T) {
	tree := i2cBaseTree(t)
	props := tree[i2cBaseID].(map[string]any)[KeyProperties].(map[string]any)
	props["platform"] = map[string]any{"example": "generic"}

	_, err := Load(mustJSON(t, tree))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"Properties.platform.description"}, se.Missing)
}

func TestLoad_PropertyWithoutExampleWarns(t *testing.T) {
	tree := i2cBaseTree(t)
	props := tree[i2cBaseID].(map[string]any)[KeyProperties].(map[string]any)
	props["I2C_address"] = map[string]any{"description": "address"}

	doc, err := Load(mustJSON(t, tree))
	require.NoError(t, err)

	warnings := doc.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, i2cBaseID, warnings[0].Block)
	assert.Equal(t, "Properties.I2C_address.example", warnings[0].Path)

	d, _ := doc.Descriptor(i2cBaseID)
	p, _ := d.Property("I2C_address")
	assert.False(t, p.HasExample)
}

func TestLoad_MalformedSyntax(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing comma", `{"nio/I2CBase": {"Category": "Hardware",}}`},
		{"trailing comma in array", `{"a": {"Tags": [1, 2,]}}`},
		{"unterminated string", `{"nio/I2CBase": {"Category": "Hardw`},
		{"unterminated object", `{"nio/I2CBase": {"Category": "Hardware"}`},
		{"empty input", ``},
		{"whitespace only", "  \n\t"},
		{"top-level array", `[{"Category": "Hardware"}]`},
		{"top-level string", `"nio/I2CBase"`},
		{"trailing data", `{"a": {}} {"b": {}}`},
		{"bare word", `{"a": nope}`},
		{"single quotes", `{'a': {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, IsParseError(err), "want ParseError, got %T: %v", err, err)
			assert.False(t, IsSchemaError(err))
		})
	}
}

func TestLoad_ParseErrorPosition(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "malformed.json"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "want ParseError, got %T: %v", err, err)

	assert.Equal(t, 5, pe.Line)
	assert.Equal(t, filepath.Join("testdata", "malformed.json"), pe.Source)
	assert.Contains(t, pe.Error(), "malformed.json")
}

func TestLoad_TypeViolations(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantPfx string
	}{
		{"numeric version", KeyVersion, 1, "Version:"},
		{"two-part version", KeyVersion, "1.0", "Version:"},
		{"properties not an object", KeyProperties, []any{"platform"}, "Properties:"},
		{"input not an object", KeyInput, "signals", "Input:"},
		{"category not a string", KeyCategory, true, "Category:"},
		{"misc note not a string", KeyMiscellaneous, map[string]any{"a": 1}, "Miscellaneous.a:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := i2cBaseTree(t)
			tree[i2cBaseID].(map[string]any)[tt.key] = tt.value

			_, err := Load(mustJSON(t, tree))
			var se *SchemaError
			require.True(t, errors.As(err, &se), "want SchemaError, got %T: %v", err, err)
			assert.Empty(t, se.Missing)
			require.NotEmpty(t, se.Violations)
			assert.True(t, strings.HasPrefix(se.Violations[0], tt.wantPfx), "violations: %v", se.Violations)
		})
	}
}

func TestLoad_DuplicatePropertyKey(t *testing.T) {
	input := `{"a/B": {
  "Description": "d", "Category": "c", "Version": "1.0.0",
  "Properties": {
    "platform": {"description": "one", "example": "x"},
    "platform": {"description": "two", "example": "y"}
  },
  "Input": {"Description": "i"}, "Output": {"Description": "o"}
}}`
	_, err := Load([]byte(input))
	var se *SchemaError
	require.True(t, errors.As(err, &se), "want SchemaError, got %T: %v", err, err)
	assert.Equal(t, []string{"Properties.platform: duplicate key"}, se.Violations)
}

func TestLoad_DuplicateBlockID(t *testing.T) {
	block := `{"Description": "d", "Category": "c", "Version": "1.0.0", "Properties": {}, "Input": {"Description": "i"}, "Output": {"Description": "o"}}`
	input := `{"a/B": ` + block + `, "a/B": ` + block + `}`

	_, err := Load([]byte(input))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a/B", se.Block)
	assert.Equal(t, []string{"duplicate block id"}, se.Violations)
}

func TestLoad_DocumentShape(t *testing.T) {
	_, err := Load([]byte(`{}`))
	assert.True(t, IsSchemaError(err))

	_, err = Load([]byte(`{"a/B": "not a block"}`))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a/B", se.Block)
}

func TestLoad_NoPartialSuccess(t *testing.T) {
	tree := i2cBaseTree(t)
	tree["nio/Broken"] = map[string]any{"Category": "Hardware"}

	doc, err := Load(mustJSON(t, tree))
	assert.Nil(t, doc)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "nio/Broken", se.Block)
}

func TestLoad_Idempotent(t *testing.T) {
	data := readTestdata(t, "i2c_base.json")

	first, err := Load(data)
	require.NoError(t, err)
	second, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	d1, _ := first.Descriptor(i2cBaseID)
	d2, _ := second.Descriptor(i2cBaseID)
	assert.True(t, d1.Equal(d2))
	assert.Equal(t, d1.Fingerprint(), d2.Fingerprint())
}

func TestLoadYAML_MultipleBlocks(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "multi.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())

	htu, ok := doc.Descriptor("nio/HTU21D")
	require.True(t, ok)
	assert.Equal(t, "0.2.1", htu.Version)
	assert.Nil(t, htu.Miscellaneous)
	assert.Nil(t, htu.Commands)

	ads, ok := doc.Descriptor("nio/ADS1115")
	require.True(t, ok)
	assert.Contains(t, ads.Commands, "calibrate")

	warnings := doc.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "nio/HTU21D", warnings[0].Block)
	assert.Equal(t, "Properties.units.example", warnings[0].Path)
}

func TestLoadYAML_Errors(t *testing.T) {
	_, err := LoadYAML([]byte("a: [1, 2"))
	assert.True(t, IsParseError(err))

	_, err = LoadYAML([]byte("- just\n- a list\n"))
	assert.True(t, IsParseError(err))

	_, err = LoadYAML([]byte(""))
	assert.True(t, IsParseError(err))

	_, err = LoadYAML([]byte("a/B:\n  Category: Hardware\n"))
	assert.True(t, IsSchemaError(err))
}

func TestLoadReader_Source(t *testing.T) {
	_, err := LoadReader(strings.NewReader(`{"a/B": {}}`), "inline.json")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "inline.json", se.Source)
	assert.Contains(t, err.Error(), "inline.json")
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, IsParseError(err))
	assert.False(t, IsSchemaError(err))
}

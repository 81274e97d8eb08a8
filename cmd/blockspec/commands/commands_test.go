package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"github.com/nio-blocks/blockspec/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	i2cFile       = "../../../pkg/blockspec/testdata/i2c_base.json"
	multiFile     = "../../../pkg/blockspec/testdata/multi.yaml"
	malformedFile = "../../../pkg/blockspec/testdata/malformed.json"
)

func TestRunValidate_ValidFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := RunValidate([]string{i2cFile}, stdout, stderr)

	if exitCode != exitSuccess {
		t.Errorf("expected exit code %d, got %d", exitSuccess, exitCode)
		t.Logf("stderr: %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "OK (1 blocks)") {
		t.Errorf("expected OK in output, got: %s", stdout.String())
	}
}

func TestRunValidate_MalformedFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := RunValidate([]string{malformedFile}, stdout, stderr)

	if exitCode != exitValidation {
		t.Errorf("expected exit code %d, got %d", exitValidation, exitCode)
	}
	if !strings.Contains(stdout.String(), "ERROR PARSE [line 5") {
		t.Errorf("expected parse error with line, got: %s", stdout.String())
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := RunValidate([]string{"nonexistent.json"}, stdout, stderr)

	if exitCode != exitCommandError {
		t.Errorf("expected exit code %d for I/O error, got %d", exitCommandError, exitCode)
	}
}

func TestRunValidate_NoFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := RunValidate([]string{}, stdout, stderr)

	if exitCode != exitCommandError {
		t.Errorf("expected exit code %d, got %d", exitCommandError, exitCode)
	}
	if !strings.Contains(stderr.String(), "no files specified") {
		t.Errorf("expected 'no files specified' in stderr, got: %s", stderr.String())
	}
}

func TestRunValidate_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	incomplete := filepath.Join(dir, "incomplete.json")
	require.NoError(t, os.WriteFile(incomplete, []byte(`{"nio/X": {"Category": "Hardware"}}`), 0o644))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	exitCode := RunValidate([]string{"--json", "-v", multiFile, incomplete}, stdout, stderr)
	assert.Equal(t, exitValidation, exitCode)

	var results []ValidationOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 2)

	assert.True(t, results[0].Valid)
	assert.Equal(t, []string{"nio/HTU21D", "nio/ADS1115"}, results[0].Blocks)
	require.Len(t, results[0].Warnings, 1)
	assert.Equal(t, "EXAMPLE", results[0].Warnings[0].Code)

	assert.False(t, results[1].Valid)
	var missing []string
	for _, e := range results[1].Errors {
		if e.Code == "MISSING" {
			missing = append(missing, e.Path)
		}
	}
	assert.ElementsMatch(t, []string{"Description", "Version", "Properties", "Input", "Output"}, missing)
}

func TestRunValidate_Help(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	exitCode := RunValidate([]string{"-h"}, stdout, stderr)

	assert.Equal(t, exitSuccess, exitCode)
	assert.Contains(t, stderr.String(), "Usage: blockspec validate")
}

func TestRunShow(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains []string
	}{
		{
			name:     "text",
			args:     []string{i2cFile},
			wantCode: exitSuccess,
			contains: []string{"nio/I2CBase  (Hardware, v1.0.0)", "I2C_address", "(example: 0x40)", "Permissions:", "Commands: none"},
		},
		{
			name:     "json single block",
			args:     []string{"--format", "json", multiFile, "nio/ADS1115"},
			wantCode: exitSuccess,
			contains: []string{`"Version": "1.1.0"`, `"calibrate"`},
		},
		{
			name:     "yaml",
			args:     []string{"-f", "yaml", i2cFile},
			wantCode: exitSuccess,
			contains: []string{"nio/I2CBase:", "Category: Hardware"},
		},
		{
			name:     "unknown block",
			args:     []string{i2cFile, "nio/Nope"},
			wantCode: exitCommandError,
		},
		{
			name:     "unknown format",
			args:     []string{"--format", "xml", i2cFile},
			wantCode: exitCommandError,
		},
		{
			name:     "malformed",
			args:     []string{malformedFile},
			wantCode: exitValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			code := RunShow(tt.args, stdout, stderr)

			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr.String())
			for _, want := range tt.contains {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}

func TestRunConvert_YAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "spec.yaml")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := RunConvert([]string{"-o", out, i2cFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	converted, err := blockspec.LoadFile(out)
	require.NoError(t, err)
	original, err := blockspec.LoadFile(i2cFile)
	require.NoError(t, err)

	d1, _ := original.Descriptor("nio/I2CBase")
	d2, ok := converted.Descriptor("nio/I2CBase")
	require.True(t, ok)
	assert.True(t, d1.Equal(d2))
}

func TestRunConvert_JSONToStdout(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunConvert([]string{"--to", "json", multiFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	doc, err := blockspec.Load(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"nio/HTU21D", "nio/ADS1115"}, doc.IDs())
}

func TestRunConvert_CBOR(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunConvert([]string{"--to", "cbor", i2cFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	var decoded map[string]any
	require.NoError(t, cbor.Unmarshal(stdout.Bytes(), &decoded))
	assert.Contains(t, decoded, "nio/I2CBase")
}

func TestRunConvert_Errors(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	assert.Equal(t, exitCommandError, RunConvert([]string{}, stdout, stderr))
	assert.Equal(t, exitCommandError, RunConvert([]string{"--to", "toml", i2cFile}, stdout, stderr))
	assert.Equal(t, exitValidation, RunConvert([]string{malformedFile}, stdout, stderr))
}

func TestRunDocs(t *testing.T) {
	dir := t.TempDir()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunDocs([]string{"-o", dir, i2cFile, multiFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	page, err := os.ReadFile(filepath.Join(dir, "nio_I2CBase.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "# nio/I2CBase")
	assert.Contains(t, string(page), "| `I2C_address` |")
	assert.Contains(t, string(page), "### Permissions")

	page, err = os.ReadFile(filepath.Join(dir, "nio_ADS1115.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "## Commands")
	assert.Contains(t, string(page), "calibrate")

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "## Hardware")
	assert.Contains(t, string(index), "[nio/HTU21D](nio_HTU21D.md)")
}

func TestRunDocs_DuplicateBlock(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunDocs([]string{"-o", t.TempDir(), i2cFile, i2cFile}, stdout, stderr)

	assert.Equal(t, exitValidation, code)
	assert.Contains(t, stderr.String(), "declared in both")
}

func TestRunGen(t *testing.T) {
	out := filepath.Join(t.TempDir(), "props_gen.go")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunGen([]string{"-pkg", "i2c", "-o", out, i2cFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	src, err := os.ReadFile(out)
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), out, src, parser.ParseComments)
	require.NoError(t, err, "generated code must parse:\n%s", src)
	assert.Equal(t, "i2c", f.Name.Name)

	text := string(src)
	assert.Contains(t, text, "DO NOT EDIT")
	assert.Contains(t, text, "I2CBaseID")
	assert.Contains(t, text, `"nio/I2CBase"`)
	assert.Contains(t, text, "I2CBasePropI2CAddress")
	assert.Contains(t, text, `"I2C_address"`)
	assert.Contains(t, text, "I2CBasePropertyExamples")
}

func TestRunGen_StdoutMultiBlock(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunGen([]string{multiFile}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", stdout.Bytes(), 0)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "package blocks")
	assert.Contains(t, stdout.String(), "HTU21DPropUnits")
	assert.Contains(t, stdout.String(), "ADS1115PropGain")
}

func TestRunGen_InvalidPackage(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunGen([]string{"-pkg", "not-a-name", i2cFile}, stdout, stderr)

	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "invalid package name")
}

func TestGoIdent(t *testing.T) {
	tests := map[string]string{
		"I2C_address": "I2CAddress",
		"platform":    "Platform",
		"read-rate":   "ReadRate",
		"2nd":         "X2nd",
		"":            "X",
	}
	for in, want := range tests {
		assert.Equal(t, want, goIdent(in), in)
	}
	assert.Equal(t, "I2CBase", blockIdent("nio/I2CBase"))
}

func TestRunLoadAndEvents(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(multiFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "multi.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"nio/Bad": {"Category": 1}}`), 0o644))
	eventLog := filepath.Join(t.TempDir(), "events.cbor")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := RunLoad([]string{"--dir", dir, "--events", eventLog, "--json"}, stdout, stderr)
	require.Equal(t, exitValidation, code, stderr.String())

	var report LoadOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, []string{"nio/ADS1115", "nio/HTU21D", "nio/I2CBase"}, report.Loaded)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, filepath.Join(dir, "bad.json"), report.Rejected[0].Document)

	stdout.Reset()
	stderr.Reset()
	code = RunEvents([]string{"--kind", "rejected", eventLog}, stdout, stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "REJECTED")
	assert.Contains(t, lines[0], "nio/Bad")

	stdout.Reset()
	code = RunEvents([]string{"--json", "--block", "nio/I2CBase", eventLog}, stdout, stderr)
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.Contains(t, stdout.String(), report.LoadID)
}

func TestRunLoad_EnvDir(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(multiFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "multi.yaml"), data, 0o644))
	t.Setenv(EnvDir, dir)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := RunLoad([]string{"--no-builtin"}, stdout, stderr)

	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Contains(t, stdout.String(), "2 blocks, 0 rejected, 1 warnings")
}

func TestRunLoad_StrictFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"nio/Bad": {}}`), 0o644))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := RunLoad([]string{"--dir", dir, "--strict"}, stdout, stderr)

	assert.Equal(t, exitValidation, code)
	assert.Contains(t, stdout.String(), "REJECTED")
}

func TestRunEvents_BadKind(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := RunEvents([]string{"--kind", "exploded", "x.cbor"}, stdout, stderr)

	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "unknown event kind")
}

func TestRunI2C(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains string
	}{
		{"defaults", nil, exitSuccess, "device path: /dev/i2c-1"},
		{"raspberry pi", []string{"platform=raspberry_pi", "I2C_address=0x40"}, exitSuccess, "address:     0x40"},
		{"ft232h", []string{"platform=1"}, exitSuccess, "device path: none"},
		{"generic bus", []string{"bus=3"}, exitSuccess, "/dev/i2c-3"},
		{"address too large", []string{"I2C_address=0x80"}, exitValidation, ""},
		{"unknown key", []string{"speed=fast"}, exitValidation, ""},
		{"not key value", []string{"platform"}, exitCommandError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			code := RunI2C(tt.args, stdout, stderr)

			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr.String())
			if tt.contains != "" {
				assert.Contains(t, stdout.String(), tt.contains)
			}
		})
	}
}

func TestShell_Exec(t *testing.T) {
	cat := catalog.New(catalog.WithSource(catalog.Builtin()))
	out := &bytes.Buffer{}
	sh := NewShell(cat, out)
	ctx := context.Background()

	require.True(t, sh.Exec(ctx, "reload"))
	assert.Contains(t, out.String(), "Loaded 1 blocks")

	out.Reset()
	require.True(t, sh.Exec(ctx, "list"))
	assert.Contains(t, out.String(), "nio/I2CBase")

	out.Reset()
	require.True(t, sh.Exec(ctx, "list Utility"))
	assert.Contains(t, out.String(), "no blocks")

	out.Reset()
	require.True(t, sh.Exec(ctx, "show nio/I2CBase"))
	assert.Contains(t, out.String(), "source: builtin/spec.json")

	out.Reset()
	require.True(t, sh.Exec(ctx, "props nio/I2CBase"))
	assert.Contains(t, out.String(), "I2C_address")
	assert.Contains(t, out.String(), "0x40")

	out.Reset()
	require.True(t, sh.Exec(ctx, "show nio/Nope"))
	assert.Contains(t, out.String(), "Unknown block")

	out.Reset()
	require.True(t, sh.Exec(ctx, "i2c platform=raspberry_pi I2C_address=64"))
	assert.Contains(t, out.String(), "raspberry_pi 0x40 on /dev/i2c-1")

	out.Reset()
	require.True(t, sh.Exec(ctx, "categories"))
	assert.Contains(t, out.String(), "Hardware")

	out.Reset()
	require.True(t, sh.Exec(ctx, "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command")

	assert.True(t, sh.Exec(ctx, "   "))
	assert.False(t, sh.Exec(ctx, "quit"))
}

func TestShell_BlockRemovedByReload(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(multiFile)
	require.NoError(t, err)
	path := filepath.Join(dir, "multi.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cat := catalog.New(catalog.WithSource(catalog.NewDirSource(dir)))
	out := &bytes.Buffer{}
	sh := NewShell(cat, out)
	ctx := context.Background()

	require.True(t, sh.Exec(ctx, "reload"))
	out.Reset()
	require.True(t, sh.Exec(ctx, "props nio/HTU21D"))
	assert.Contains(t, out.String(), "units")

	require.NoError(t, os.Remove(path))
	require.True(t, sh.Exec(ctx, "reload"))

	for _, cmd := range []string{"show nio/HTU21D", "props nio/HTU21D"} {
		out.Reset()
		require.NotPanics(t, func() { sh.Exec(ctx, cmd) })
		assert.Contains(t, out.String(), "Unknown block", cmd)
	}
}

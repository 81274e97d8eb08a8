package commands

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"goIdent":    goIdent,
	"blockIdent": blockIdent,
	"quote":      func(s string) string { return fmt.Sprintf("%q", s) },
	"mdCell":     mdCell,
	"oneLine":    oneLine,
	"commands":   commandList,
	"docFile":    docFileName,
}

// templates holds the Markdown and Go source templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	blockDocTmpl +
		indexDocTmpl +
		goConstantsTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) error {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	return nil
}

// --- Template data types ---

type propertyRow struct {
	Name    string
	Const   string
	Spec    blockspec.PropertySpec
	Example string
}

type blockData struct {
	Desc       *blockspec.Descriptor
	Ident      string
	Source     string
	Properties []propertyRow
	Misc       []miscRow
}

type miscRow struct {
	Topic string
	Text  string
}

type indexData struct {
	Categories []categoryRow
}

type categoryRow struct {
	Name   string
	Blocks []*blockspec.Descriptor
}

type genData struct {
	Package string
	Source  string
	Blocks  []blockData
}

func newBlockData(d *blockspec.Descriptor, source string) blockData {
	bd := blockData{Desc: d, Ident: blockIdent(d.ID), Source: source}
	for _, n := range d.PropertyNames() {
		p, _ := d.Property(n)
		row := propertyRow{Name: n, Const: bd.Ident + "Prop" + goIdent(n), Spec: p}
		if p.HasExample {
			row.Example = p.Example
		}
		bd.Properties = append(bd.Properties, row)
	}
	for _, t := range d.MiscellaneousTopics() {
		bd.Misc = append(bd.Misc, miscRow{Topic: t, Text: d.Miscellaneous[t]})
	}
	return bd
}

// goIdent converts a property or block name to an exported Go identifier:
// "I2C_address" becomes "I2CAddress", "platform" becomes "Platform".
func goIdent(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "X" + s
	}
	return s
}

// blockIdent drops the namespace of a block id: "nio/I2CBase" becomes
// "I2CBase".
func blockIdent(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return goIdent(id)
}

// docFileName returns the Markdown file name for a block id.
func docFileName(id string) string {
	return strings.ReplaceAll(id, "/", "_") + ".md"
}

// mdCell escapes text for a Markdown table cell.
func mdCell(s string) string {
	return oneLine(strings.ReplaceAll(s, "|", `\|`))
}

// oneLine collapses all whitespace runs, newlines included, to one space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const blockDocTmpl = `
{{define "block"}}# {{.Desc.ID}}

{{.Desc.Description}}

| | |
|---|---|
| Category | {{.Desc.Category}} |
| Version | {{.Desc.Version}} |
| Fingerprint | ` + "`{{.Desc.Fingerprint.Short}}`" + ` |
{{- if .Source}}
| Source | ` + "`{{.Source}}`" + ` |
{{- end}}

## Properties
{{if .Properties}}
| Name | Description | Example |
|---|---|---|
{{- range .Properties}}
| ` + "`{{.Name}}`" + ` | {{mdCell .Spec.Description}} | {{if .Spec.HasExample}}` + "`{{.Example}}`" + `{{end}} |
{{- end}}
{{else}}
This block has no properties.
{{end}}
## Input

{{.Desc.Input.Description}}

## Output

{{.Desc.Output.Description}}
{{if .Misc}}
## Notes
{{range .Misc}}
### {{.Topic}}

{{.Text}}
{{end}}{{end}}
{{- if .Desc.Commands}}
## Commands

{{commands .Desc}}
{{end}}{{end}}`

const indexDocTmpl = `
{{define "index"}}# Blocks
{{range .Categories}}
## {{.Name}}

| Block | Version | Description |
|---|---|---|
{{- range .Blocks}}
| [{{.ID}}]({{docFile .ID}}) | {{.Version}} | {{mdCell .Description}} |
{{- end}}
{{end}}{{end}}`

const goConstantsTmpl = `
{{define "constants"}}// Code generated by blockspec gen from {{.Source}}. DO NOT EDIT.

package {{.Package}}
{{range .Blocks}}
// Metadata of block {{.Desc.ID}}.
const (
	{{.Ident}}ID = {{quote .Desc.ID}}
	{{.Ident}}Category = {{quote .Desc.Category}}
	{{.Ident}}Version = {{quote .Desc.Version}}
	{{.Ident}}Fingerprint = {{quote .Desc.Fingerprint.String}}
)
{{if .Properties}}
// Property names of block {{.Desc.ID}}.
const (
{{- range .Properties}}
	// {{.Const}}: {{oneLine .Spec.Description}}
	{{.Const}} = {{quote .Name}}
{{- end}}
)

// {{.Ident}}PropertyExamples maps property names of {{.Desc.ID}} to their
// example values.
var {{.Ident}}PropertyExamples = map[string]string{
{{- range .Properties}}{{if .Spec.HasExample}}
	{{.Const}}: {{quote .Example}},
{{- end}}{{end}}
}
{{end}}{{end}}{{end}}`

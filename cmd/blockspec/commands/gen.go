package commands

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"golang.org/x/tools/imports"
)

// GenOptions configures the gen command.
type GenOptions struct {
	Package string
	Output  string
	Block   string
	File    string
}

// RunGen generates Go constants for the blocks of a metadata document:
// identifiers, versions and property names.
func RunGen(args []string, stdout, stderr io.Writer) int {
	opts, err := parseGenArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printGenUsage)
	}

	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no file specified")
		printGenUsage(stderr)
		return exitCommandError
	}
	if !token.IsIdentifier(opts.Package) {
		fmt.Fprintf(stderr, "Error: invalid package name %q\n", opts.Package)
		return exitCommandError
	}

	doc, err := blockspec.LoadFile(opts.File)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if isLoadFailure(err) {
			return exitValidation
		}
		return exitCommandError
	}

	blocks, err := selectBlocks(doc, opts.Block)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	code, err := generateConstants(opts.Package, filepath.Base(opts.File), blocks)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.Output == "" {
		formatted, err := imports.Process("blockspec_gen.go", []byte(code), nil)
		if err != nil {
			fmt.Fprintf(stderr, "Error: goimports: %v\n", err)
			return exitCommandError
		}
		stdout.Write(formatted)
		return exitSuccess
	}

	if err := writeFormatted(opts.Output, code); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "  generated %s\n", opts.Output)
	return exitSuccess
}

// generateConstants renders the Go source for the given blocks. The result
// is not yet formatted.
func generateConstants(pkg, source string, descs []*blockspec.Descriptor) (string, error) {
	data := genData{Package: pkg, Source: source}
	idents := make(map[string]string)
	for _, d := range descs {
		bd := newBlockData(d, source)
		if prev, ok := idents[bd.Ident]; ok {
			return "", fmt.Errorf("blocks %s and %s both map to identifier %s", prev, d.ID, bd.Ident)
		}
		idents[bd.Ident] = d.ID
		data.Blocks = append(data.Blocks, bd)
	}

	var b strings.Builder
	if err := renderTemplate(&b, "constants", data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output around for debugging the template.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}

func parseGenArgs(args []string) (GenOptions, error) {
	fs := newFlagSet("gen")
	opts := GenOptions{}

	fs.StringVar(&opts.Package, "pkg", "blocks", "Go package name of the generated file")
	fs.StringVar(&opts.Output, "o", "", "Output file (default stdout)")
	fs.StringVar(&opts.Block, "block", "", "Generate only this block")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.File = rest[0]
	}
	if len(rest) > 1 {
		return opts, fmt.Errorf("unexpected arguments: %v", rest[1:])
	}
	return opts, nil
}

func printGenUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec gen [options] <file>

Options:
  -pkg    Go package name (default "blocks")
  -o      Output file (default stdout)
  -block  Generate only the named block

Examples:
  blockspec gen -pkg i2c -o i2c_props_gen.go spec.json`)
}

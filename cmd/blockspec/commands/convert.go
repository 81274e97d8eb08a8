package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"gopkg.in/yaml.v3"
)

// ConvertOptions configures the convert command.
type ConvertOptions struct {
	To     string // json, yaml, cbor
	Output string
	File   string
}

// RunConvert runs the convert command. The input is fully validated before
// anything is written.
func RunConvert(args []string, stdout, stderr io.Writer) int {
	opts, err := parseConvertArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printConvertUsage)
	}

	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no input file specified")
		printConvertUsage(stderr)
		return exitCommandError
	}

	if opts.To == "" {
		opts.To = formatFromPath(opts.Output)
	}

	doc, err := blockspec.LoadFile(opts.File)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if isLoadFailure(err) {
			return exitValidation
		}
		return exitCommandError
	}

	data, err := encodeDocument(doc, opts.To)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	w, closeFn, err := openOutput(opts.Output, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	_, err = w.Write(data)
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: writing output: %v\n", err)
		return exitCommandError
	}

	if opts.Output != "" {
		fmt.Fprintf(stderr, "Converted %s -> %s (%s)\n", opts.File, opts.Output, opts.To)
	}
	return exitSuccess
}

// encodeDocument serializes doc in the given format.
func encodeDocument(doc *blockspec.Document, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(doc)
	case "cbor":
		return doc.MarshalCBOR()
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: json, yaml, cbor)", format)
	}
}

// formatFromPath guesses the output format from a file name, defaulting to
// JSON.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".cbor":
		return "cbor"
	}
	return "json"
}

func parseConvertArgs(args []string) (ConvertOptions, error) {
	fs := newFlagSet("convert")
	opts := ConvertOptions{}

	fs.StringVar(&opts.To, "to", "", "Output format: json, yaml, cbor (default from -o extension, else json)")
	fs.StringVar(&opts.Output, "output", "", "Output file (default stdout)")
	fs.StringVar(&opts.Output, "o", "", "Output file (shorthand)")

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

func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec convert [options] <file>

Options:
  --to          Output format: json, yaml, cbor
  -o, --output  Output file (default stdout)

The output format defaults to the extension of the output file, else JSON.

Examples:
  blockspec convert --to yaml spec.json
  blockspec convert -o spec.cbor spec.yaml`)
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"gopkg.in/yaml.v3"
)

// ShowOptions configures the show command.
type ShowOptions struct {
	Format string // text, json, yaml
	File   string
	Block  string
}

// RunShow runs the show command.
func RunShow(args []string, stdout, stderr io.Writer) int {
	opts, err := parseShowArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printShowUsage)
	}

	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no file specified")
		printShowUsage(stderr)
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

	switch opts.Format {
	case "json":
		var v any = doc
		if opts.Block != "" {
			v = blocks[0]
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintln(stdout, string(data))
	case "yaml":
		var v any = doc
		if opts.Block != "" {
			v = blocks[0]
		}
		data, err := yaml.Marshal(v)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprint(stdout, string(data))
	case "text", "":
		for i, d := range blocks {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			printDescriptorText(stdout, d)
		}
	default:
		fmt.Fprintf(stderr, "Error: unknown format %q (supported: text, json, yaml)\n", opts.Format)
		return exitCommandError
	}

	return exitSuccess
}

// printDescriptorText writes a human-readable summary of one block.
func printDescriptorText(w io.Writer, d *blockspec.Descriptor) {
	fmt.Fprintf(w, "%s  (%s, v%s)\n", d.ID, d.Category, d.Version)
	fmt.Fprintf(w, "  fingerprint: %s\n", d.Fingerprint().Short())
	fmt.Fprintf(w, "  %s\n", d.Description)
	fmt.Fprintf(w, "  Input:  %s\n", d.Input.Description)
	fmt.Fprintf(w, "  Output: %s\n", d.Output.Description)

	names := d.PropertyNames()
	if len(names) == 0 {
		fmt.Fprintln(w, "  Properties: none")
	} else {
		fmt.Fprintln(w, "  Properties:")
		width := 0
		for _, n := range names {
			width = max(width, len(n))
		}
		for _, n := range names {
			p, _ := d.Property(n)
			line := fmt.Sprintf("    %-*s  %s", width, n, p.Description)
			if p.HasExample {
				line += fmt.Sprintf(" (example: %s)", p.Example)
			}
			fmt.Fprintln(w, line)
		}
	}

	if topics := d.MiscellaneousTopics(); len(topics) > 0 {
		fmt.Fprintln(w, "  Miscellaneous:")
		for _, t := range topics {
			fmt.Fprintf(w, "    %s: %s\n", t, d.Miscellaneous[t])
		}
	}

	if d.Commands != nil {
		fmt.Fprintf(w, "  Commands: %s\n", commandList(d))
	}
}

func commandList(d *blockspec.Descriptor) string {
	if len(d.Commands) == 0 {
		return "none"
	}
	names := make([]string, 0, len(d.Commands))
	for n := range d.Commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func parseShowArgs(args []string) (ShowOptions, error) {
	fs := newFlagSet("show")
	opts := ShowOptions{}

	fs.StringVar(&opts.Format, "format", "text", "Output format: text, json, yaml")
	fs.StringVar(&opts.Format, "f", "text", "Output format (shorthand)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.File = rest[0]
	}
	if len(rest) > 1 {
		opts.Block = rest[1]
	}
	if len(rest) > 2 {
		return opts, fmt.Errorf("unexpected arguments: %v", rest[2:])
	}
	return opts, nil
}

func printShowUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec show [options] <file> [block]

Options:
  -f, --format  Output format: text (default), json, yaml

Examples:
  blockspec show spec.json
  blockspec show --format json spec.json nio/I2CBase`)
}

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
)

// DocsOptions configures the docs command.
type DocsOptions struct {
	Output string
	Files  []string
}

// RunDocs renders one Markdown page per block plus an index grouped by
// category.
func RunDocs(args []string, stdout, stderr io.Writer) int {
	opts, err := parseDocsArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printDocsUsage)
	}

	if opts.Output == "" || len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: an output directory and at least one file are required")
		printDocsUsage(stderr)
		return exitCommandError
	}

	var blocks []blockData
	seen := make(map[string]string)
	for _, file := range opts.Files {
		doc, err := blockspec.LoadFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			if isLoadFailure(err) {
				return exitValidation
			}
			return exitCommandError
		}
		for _, d := range doc.Descriptors() {
			if prev, ok := seen[d.ID]; ok {
				fmt.Fprintf(stderr, "Error: block %s declared in both %s and %s\n", d.ID, prev, file)
				return exitValidation
			}
			seen[d.ID] = file
			blocks = append(blocks, newBlockData(d, file))
		}
	}

	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		fmt.Fprintf(stderr, "Error: creating output dir: %v\n", err)
		return exitCommandError
	}

	for _, bd := range blocks {
		var b strings.Builder
		if err := renderTemplate(&b, "block", bd); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		path := filepath.Join(opts.Output, docFileName(bd.Desc.ID))
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "  generated %s\n", path)
	}

	var b strings.Builder
	if err := renderTemplate(&b, "index", buildIndex(blocks)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	index := filepath.Join(opts.Output, "index.md")
	if err := os.WriteFile(index, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "  generated %s\n", index)

	return exitSuccess
}

func buildIndex(blocks []blockData) indexData {
	byCat := make(map[string][]*blockspec.Descriptor)
	for _, bd := range blocks {
		byCat[bd.Desc.Category] = append(byCat[bd.Desc.Category], bd.Desc)
	}

	var idx indexData
	for name, descs := range byCat {
		sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
		idx.Categories = append(idx.Categories, categoryRow{Name: name, Blocks: descs})
	}
	sort.Slice(idx.Categories, func(i, j int) bool { return idx.Categories[i].Name < idx.Categories[j].Name })
	return idx
}

func parseDocsArgs(args []string) (DocsOptions, error) {
	fs := newFlagSet("docs")
	opts := DocsOptions{}

	fs.StringVar(&opts.Output, "output", "", "Output directory")
	fs.StringVar(&opts.Output, "o", "", "Output directory (shorthand)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.Files = fs.Args()
	return opts, nil
}

func printDocsUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec docs -o <dir> <files...>

Writes <dir>/<namespace>_<block>.md for every block and <dir>/index.md.

Examples:
  blockspec docs -o docs/blocks blocks/*/spec.json`)
}

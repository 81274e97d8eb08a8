// Package commands implements the blockspec subcommands. Each Run function
// takes the arguments after the subcommand name and returns a process exit
// code.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
)

// Version is reported by "blockspec version".
const Version = "0.1.0"

// EnvDir names the environment variable holding the default catalog
// directory.
const EnvDir = "BLOCKSPEC_DIR"

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

// newFlagSet returns a flag set that reports errors instead of exiting and
// prints nothing on its own.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// handleParseError prints usage on -h and the error otherwise.
func handleParseError(err error, stderr io.Writer, usage func(io.Writer)) int {
	if errors.Is(err, flag.ErrHelp) {
		usage(stderr)
		return exitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	usage(stderr)
	return exitCommandError
}

// isLoadFailure reports whether err means the document itself is bad, as
// opposed to an I/O problem.
func isLoadFailure(err error) bool {
	return blockspec.IsParseError(err) || blockspec.IsSchemaError(err)
}

// selectBlocks returns either all descriptors of doc or the named one.
func selectBlocks(doc *blockspec.Document, id string) ([]*blockspec.Descriptor, error) {
	if id == "" {
		return doc.Descriptors(), nil
	}
	d, ok := doc.Descriptor(id)
	if !ok {
		return nil, fmt.Errorf("block %q not found (document has %v)", id, doc.IDs())
	}
	return []*blockspec.Descriptor{d}, nil
}

// openOutput returns stdout when path is empty and a new file otherwise.
// The returned close function is always safe to call.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// dirFromEnv returns dir, or the catalog directory from the environment
// when dir is empty.
func dirFromEnv(dir string) string {
	if dir != "" {
		return dir
	}
	return os.Getenv(EnvDir)
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	JSON    bool
	Verbose bool
	Files   []string
}

// ValidationOutput is the validation result for one file.
type ValidationOutput struct {
	File     string        `json:"file"`
	Valid    bool          `json:"valid"`
	Blocks   []string      `json:"blocks,omitempty"`
	Errors   []IssueOutput `json:"errors,omitempty"`
	Warnings []IssueOutput `json:"warnings,omitempty"`
}

// IssueOutput is one validation finding.
type IssueOutput struct {
	// Code is PARSE, MISSING, SCHEMA, IO or EXAMPLE.
	Code    string `json:"code"`
	Block   string `json:"block,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// RunValidate runs the validate command. It exits with 2 if any document
// is invalid and with 1 on usage or I/O errors.
func RunValidate(args []string, stdout, stderr io.Writer) int {
	opts, err := parseValidateArgs(args)
	if err != nil {
		return handleParseError(err, stderr, printValidateUsage)
	}

	if len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: no files specified")
		printValidateUsage(stderr)
		return exitCommandError
	}

	var (
		results   []*ValidationOutput
		hasErrors bool
		hasIO     bool
	)
	for _, file := range opts.Files {
		result, ioErr := validateFile(file)
		results = append(results, result)
		if ioErr {
			hasIO = true
		} else if !result.Valid {
			hasErrors = true
		}

		if !opts.JSON {
			printValidationResult(stdout, result, opts.Verbose)
		}
	}

	if opts.JSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(stdout, string(output))
	}

	switch {
	case hasIO:
		return exitCommandError
	case hasErrors:
		return exitValidation
	}
	return exitSuccess
}

// validateFile loads one file. The second result is true when the file
// could not be read at all.
func validateFile(path string) (*ValidationOutput, bool) {
	output := &ValidationOutput{File: path, Valid: true}

	doc, err := blockspec.LoadFile(path)
	if err != nil {
		output.Valid = false
		output.Errors = issuesFromError(err)
		return output, !isLoadFailure(err)
	}

	output.Blocks = doc.IDs()
	for _, w := range doc.Warnings() {
		output.Warnings = append(output.Warnings, IssueOutput{
			Code:    "EXAMPLE",
			Block:   w.Block,
			Path:    w.Path,
			Message: w.Message,
		})
	}
	return output, false
}

func issuesFromError(err error) []IssueOutput {
	var pe *blockspec.ParseError
	if errors.As(err, &pe) {
		return []IssueOutput{{
			Code:    "PARSE",
			Message: pe.Err.Error(),
			Line:    pe.Line,
			Column:  pe.Column,
		}}
	}

	var se *blockspec.SchemaError
	if errors.As(err, &se) {
		var issues []IssueOutput
		for _, m := range se.Missing {
			issues = append(issues, IssueOutput{
				Code:    "MISSING",
				Block:   se.Block,
				Path:    m,
				Message: "required key is missing",
			})
		}
		for _, v := range se.Violations {
			issues = append(issues, IssueOutput{
				Code:    "SCHEMA",
				Block:   se.Block,
				Message: v,
			})
		}
		return issues
	}

	return []IssueOutput{{Code: "IO", Message: err.Error()}}
}

func printValidationResult(w io.Writer, result *ValidationOutput, verbose bool) {
	if result.Valid && len(result.Warnings) == 0 {
		fmt.Fprintf(w, "%s: OK (%d blocks)\n", result.File, len(result.Blocks))
		return
	}

	if result.Valid {
		fmt.Fprintf(w, "%s: OK (%d blocks, %d warnings)\n", result.File, len(result.Blocks), len(result.Warnings))
	} else {
		fmt.Fprintf(w, "%s: FAILED (%d errors)\n", result.File, len(result.Errors))
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "  ERROR %s\n", formatIssue(e))
	}

	if verbose {
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  WARNING %s\n", formatIssue(warn))
		}
	}
}

func formatIssue(i IssueOutput) string {
	s := i.Code
	if i.Line > 0 {
		s += fmt.Sprintf(" [line %d, column %d]", i.Line, i.Column)
	}
	if i.Block != "" {
		s += " " + i.Block
	}
	if i.Path != "" {
		s += " " + i.Path
	}
	return s + ": " + i.Message
}

func parseValidateArgs(args []string) (ValidateOptions, error) {
	fs := newFlagSet("validate")
	opts := ValidateOptions{}

	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Show warnings")
	fs.BoolVar(&opts.Verbose, "v", false, "Show warnings (shorthand)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.Files = fs.Args()
	return opts, nil
}

func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: blockspec validate [options] <files...>

Options:
  --json         Output results as JSON
  -v, --verbose  Show warnings such as properties without examples

Exit codes:
  0  every document is valid
  2  at least one document is malformed or incomplete
  1  usage or I/O error

Examples:
  blockspec validate spec.json
  blockspec validate --json blocks/*/spec.json`)
}

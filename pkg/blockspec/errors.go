package blockspec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyDocument = errors.New("empty document")
	errNotObject     = errors.New("document must be a JSON object")
	errTrailingData  = errors.New("unexpected data after top-level object")
	errUnexpectedEOF = errors.New("unexpected end of input")
)

// ParseError reports a document that is not well-formed.
type ParseError struct {
	// Source names the file the document came from, if any.
	Source string

	// Line and Column locate the error (1-based). Zero when unknown.
	Line   int
	Column int

	// Offset is the byte offset of the error in the input.
	Offset int64

	Err error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError builds a ParseError positioned at offset within data.
func newParseError(data []byte, offset int64, err error) *ParseError {
	pe := &ParseError{Offset: offset, Err: err}
	if offset < 0 || offset > int64(len(data)) {
		return pe
	}
	pe.Line, pe.Column = 1, 1
	for _, c := range data[:offset] {
		if c == '\n' {
			pe.Line++
			pe.Column = 1
		} else {
			pe.Column++
		}
	}
	return pe
}

// SchemaError reports a well-formed document that does not describe a valid
// block.
type SchemaError struct {
	// Source names the file the document came from, if any.
	Source string

	// Block is the identifier of the rejected block. Empty when the problem
	// concerns the document as a whole.
	Block string

	// Missing lists required keys that are absent, as dotted paths
	// ("Version", "Input.Description", "Properties.platform.description").
	Missing []string

	// Violations lists fields that are present but malformed.
	Violations []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Block != "" {
		fmt.Fprintf(&b, " for block %q", e.Block)
	}
	sep := ": "
	if len(e.Missing) > 0 {
		b.WriteString(sep)
		b.WriteString("missing required keys: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		sep = "; "
	}
	if len(e.Violations) > 0 {
		b.WriteString(sep)
		b.WriteString(strings.Join(e.Violations, "; "))
	}
	return b.String()
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsSchemaError reports whether err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// setSource records the document source on a loading error.
func setSource(err error, source string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Source = source
	}
	var se *SchemaError
	if errors.As(err, &se) {
		se.Source = source
	}
	return err
}

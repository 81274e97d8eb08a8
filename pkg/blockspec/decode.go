package blockspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// decoded is the generic form of a document before validation.
type decoded struct {
	tree map[string]any

	// order holds the top-level keys in input order, duplicates included.
	order []string

	// dups holds the key paths of repeated object keys at any depth.
	dups [][]string
}

// decode parses data into a generic tree. Numbers are kept as json.Number
// so re-encoding does not change them.
func decode(data []byte) (*decoded, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: errEmptyDocument}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, tokenError(data, dec, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, newParseError(data, 0, errNotObject)
	}

	d := &decoded{}
	d.tree, d.order, err = d.readObject(dec, data, nil)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return nil, tokenError(data, dec, err)
	}
	return d, nil
}

// readObject reads object members after the opening brace has been consumed.
func (d *decoded) readObject(dec *json.Decoder, data []byte, path []string) (map[string]any, []string, error) {
	obj := make(map[string]any)
	var order []string

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, tokenError(data, dec, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, newParseError(data, dec.InputOffset(), errors.New("object key must be a string"))
		}

		keyPath := append(append([]string(nil), path...), key)
		val, err := d.readValue(dec, data, keyPath)
		if err != nil {
			return nil, nil, err
		}

		if _, exists := obj[key]; exists {
			d.dups = append(d.dups, keyPath)
		}
		obj[key] = val
		order = append(order, key)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, tokenError(data, dec, err)
	}
	return obj, order, nil
}

func (d *decoded) readValue(dec *json.Decoder, data []byte, path []string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, tokenError(data, dec, err)
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj, _, err := d.readObject(dec, data, path)
			return obj, err
		case '[':
			return d.readArray(dec, data, path)
		default:
			return nil, newParseError(data, dec.InputOffset(), errors.New("unexpected "+v.String()))
		}
	default:
		// string, json.Number, bool or nil
		return v, nil
	}
}

func (d *decoded) readArray(dec *json.Decoder, data []byte, path []string) ([]any, error) {
	arr := []any{}
	for dec.More() {
		val, err := d.readValue(dec, data, path)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, tokenError(data, dec, err)
	}
	return arr, nil
}

// tokenError converts a decoder error into a positioned ParseError.
func tokenError(data []byte, dec *json.Decoder, err error) *ParseError {
	var syn *json.SyntaxError
	switch {
	case errors.As(err, &syn):
		return newParseError(data, syn.Offset, err)
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return newParseError(data, int64(len(data)), errUnexpectedEOF)
	default:
		return newParseError(data, dec.InputOffset(), err)
	}
}

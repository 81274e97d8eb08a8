// Package blockspec loads and validates block metadata documents.
//
// A metadata document is a JSON object whose top-level keys are block
// identifiers (for example "nio/I2CBase"). Each value describes one block:
//
//	{
//	  "nio/I2CBase": {
//	    "Description": "...",
//	    "Category": "Hardware",
//	    "Version": "1.0.0",
//	    "Properties": {"platform": {"description": "...", "example": "generic"}},
//	    "Input": {"Description": "..."},
//	    "Output": {"Description": "..."},
//	    "Miscellaneous": {"Notes": "..."},
//	    "Commands": {}
//	  }
//	}
//
// # Loading
//
// Load, LoadYAML and LoadFile turn document text into a Document. Loading
// fails with a *ParseError when the text is not well-formed, and with a
// *SchemaError when it is well-formed but a block lacks a required field or
// has a field of the wrong type. There is no partial success: one invalid
// block rejects the whole document.
//
// # Validation
//
// Validate checks the required keys of a single block given as a generic
// key/value tree. It never reports the optional Miscellaneous and Commands
// sections. A property without an example produces a warning, not an error.
//
// Descriptors are never modified after loading and are safe for concurrent
// reads. Callers must not mutate the maps they expose.
package blockspec

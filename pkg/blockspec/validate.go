package blockspec

import (
	"fmt"
	"sort"
	"strings"
)

// Top-level descriptor keys.
const (
	KeyDescription   = "Description"
	KeyCategory      = "Category"
	KeyVersion       = "Version"
	KeyProperties    = "Properties"
	KeyInput         = "Input"
	KeyOutput        = "Output"
	KeyMiscellaneous = "Miscellaneous"
	KeyCommands      = "Commands"
)

// Property and port keys.
const (
	keyPortDescription     = "Description"
	keyPropertyDescription = "description"
	keyPropertyExample     = "example"
)

// requiredKeys is the fixed set of required top-level keys, in report order.
var requiredKeys = []string{
	KeyDescription,
	KeyCategory,
	KeyVersion,
	KeyProperties,
	KeyInput,
	KeyOutput,
}

// RequiredKeys returns the required top-level keys of a block descriptor.
func RequiredKeys() []string {
	return append([]string(nil), requiredKeys...)
}

// Issue is a non-fatal finding about a block.
type Issue struct {
	Block   string `json:"block,omitempty"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Block != "" {
		return fmt.Sprintf("%s: %s: %s", i.Block, i.Path, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Result holds the outcome of validating one block.
type Result struct {
	// Missing lists absent required keys as dotted paths. Empty if valid.
	Missing []string

	// Warnings holds tolerated problems such as properties without examples.
	Warnings []Issue
}

// Valid reports whether no required key is missing.
func (r Result) Valid() bool {
	return len(r.Missing) == 0
}

// Validate checks a single block, given as a generic key/value tree, for the
// required top-level keys and the required fields of its ports and
// properties. Optional sections are never reported. Values of the wrong type
// are left to the schema check and do not appear in the result.
func Validate(block map[string]any) Result {
	var r Result

	for _, key := range requiredKeys {
		if _, ok := block[key]; !ok {
			r.Missing = append(r.Missing, key)
		}
	}

	for _, port := range []string{KeyInput, KeyOutput} {
		if obj, ok := block[port].(map[string]any); ok {
			if _, ok := obj[keyPortDescription]; !ok {
				r.Missing = append(r.Missing, port+"."+keyPortDescription)
			}
		}
	}

	if props, ok := block[KeyProperties].(map[string]any); ok {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			path := KeyProperties + "." + name
			if desc, ok := prop[keyPropertyDescription]; !ok || isBlank(desc) {
				r.Missing = append(r.Missing, path+"."+keyPropertyDescription)
			}
			if _, ok := prop[keyPropertyExample]; !ok {
				r.Warnings = append(r.Warnings, Issue{
					Path:    path + "." + keyPropertyExample,
					Message: "property has no example value",
				})
			}
		}
	}

	return r
}

// isBlank reports whether v is an empty or whitespace-only string.
func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

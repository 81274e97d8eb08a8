package blockspec

import (
	"fmt"
	"slices"
	"sort"

	"github.com/nio-blocks/blockspec/pkg/version"
)

// Descriptor is the in-memory form of one block's metadata.
type Descriptor struct {
	// ID is the block identifier, e.g. "nio/I2CBase".
	ID string

	Description string
	Category    string

	// Version is the block version as written in the document. It always
	// parses with version.Parse.
	Version string

	Properties map[string]PropertySpec
	Input      Port
	Output     Port

	// Miscellaneous maps topic names to free-text notes. Nil when the
	// document has no Miscellaneous section.
	Miscellaneous map[string]string

	// Commands is kept as generic JSON values. Nil when the document has no
	// Commands section, empty when the section is "{}".
	Commands map[string]any

	// Extra holds top-level keys this package does not interpret.
	Extra map[string]any
}

// PropertySpec describes one user-configurable block property.
type PropertySpec struct {
	Description string

	// Example is an illustrative value. It is not checked against any type.
	Example string

	// HasExample distinguishes an absent example from an empty one.
	HasExample bool

	Extra map[string]any
}

// Port describes a block input or output.
type Port struct {
	Description string
	Extra       map[string]any
}

// ParsedVersion returns the descriptor version as a version.Version.
func (d *Descriptor) ParsedVersion() version.Version {
	v, _ := version.Parse(d.Version)
	return v
}

// PropertyNames returns the property names in sorted order.
func (d *Descriptor) PropertyNames() []string {
	names := make([]string, 0, len(d.Properties))
	for name := range d.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Property looks up a property by name.
func (d *Descriptor) Property(name string) (PropertySpec, bool) {
	p, ok := d.Properties[name]
	return p, ok
}

// MiscellaneousTopics returns the Miscellaneous topic names in sorted order.
func (d *Descriptor) MiscellaneousTopics() []string {
	topics := make([]string, 0, len(d.Miscellaneous))
	for t := range d.Miscellaneous {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// String returns a short human-readable label for the descriptor.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s (%s)", d.ID, d.Version, d.Category)
}

// Equal reports whether two descriptors carry the same metadata.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Fingerprint() == other.Fingerprint()
}

// newDescriptor builds a descriptor from a block tree that already passed
// Validate and the schema check.
func newDescriptor(id string, block map[string]any) *Descriptor {
	d := &Descriptor{
		ID:          id,
		Description: asString(block[KeyDescription]),
		Category:    asString(block[KeyCategory]),
		Version:     asString(block[KeyVersion]),
		Properties:  make(map[string]PropertySpec),
		Input:       newPort(block[KeyInput]),
		Output:      newPort(block[KeyOutput]),
	}

	if props, ok := block[KeyProperties].(map[string]any); ok {
		for name, raw := range props {
			d.Properties[name] = newPropertySpec(raw)
		}
	}

	if misc, ok := block[KeyMiscellaneous].(map[string]any); ok {
		d.Miscellaneous = make(map[string]string, len(misc))
		for topic, note := range misc {
			d.Miscellaneous[topic] = asString(note)
		}
	}

	if cmds, ok := block[KeyCommands].(map[string]any); ok {
		d.Commands = cloneMap(cmds)
	}

	d.Extra = extraKeys(block, KeyDescription, KeyCategory, KeyVersion,
		KeyProperties, KeyInput, KeyOutput, KeyMiscellaneous, KeyCommands)
	return d
}

func newPropertySpec(raw any) PropertySpec {
	obj, _ := raw.(map[string]any)
	example, hasExample := obj[keyPropertyExample]
	return PropertySpec{
		Description: asString(obj[keyPropertyDescription]),
		Example:     asString(example),
		HasExample:  hasExample,
		Extra:       extraKeys(obj, keyPropertyDescription, keyPropertyExample),
	}
}

func newPort(raw any) Port {
	obj, _ := raw.(map[string]any)
	return Port{
		Description: asString(obj[keyPortDescription]),
		Extra:       extraKeys(obj, keyPortDescription),
	}
}

// extraKeys returns a copy of the entries of obj not named in known, or nil
// if there are none.
func extraKeys(obj map[string]any, known ...string) map[string]any {
	var extra map[string]any
	for k, v := range obj {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = cloneValue(v)
	}
	return extra
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

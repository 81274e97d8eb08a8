package blockspec

import (
	"fmt"
	"slices"
)

// Document is a loaded metadata document: one or more block descriptors
// keyed by block identifier.
type Document struct {
	ids      []string
	blocks   map[string]*Descriptor
	warnings []Issue
}

// NewDocument assembles a document from descriptors. Identifiers must be
// unique.
func NewDocument(descs ...*Descriptor) (*Document, error) {
	doc := &Document{blocks: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if err := doc.add(d); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (doc *Document) add(d *Descriptor) error {
	if _, exists := doc.blocks[d.ID]; exists {
		return fmt.Errorf("duplicate block id %q", d.ID)
	}
	doc.ids = append(doc.ids, d.ID)
	doc.blocks[d.ID] = d
	return nil
}

// IDs returns the block identifiers in document order.
func (doc *Document) IDs() []string {
	return slices.Clone(doc.ids)
}

// Len returns the number of blocks in the document.
func (doc *Document) Len() int {
	return len(doc.ids)
}

// Descriptor looks up a block by identifier.
func (doc *Document) Descriptor(id string) (*Descriptor, bool) {
	d, ok := doc.blocks[id]
	return d, ok
}

// Descriptors returns all blocks in document order.
func (doc *Document) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(doc.ids))
	for _, id := range doc.ids {
		out = append(out, doc.blocks[id])
	}
	return out
}

// Warnings returns the non-fatal issues found while loading.
func (doc *Document) Warnings() []Issue {
	return slices.Clone(doc.warnings)
}

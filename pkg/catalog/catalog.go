package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nio-blocks/blockspec/pkg/blockspec"
	"github.com/nio-blocks/blockspec/pkg/log"
)

// ErrDuplicateBlock is reported when two documents declare the same block.
var ErrDuplicateBlock = errors.New("duplicate block id")

// Catalog is a set of block descriptors gathered from one or more sources.
// It is safe for concurrent use.
type Catalog struct {
	sources []Source
	logger  log.Logger
	strict  bool
	now     func() time.Time
	newID   func() string

	// reloadMu serializes reloads; mu guards the published contents.
	reloadMu sync.Mutex
	mu       sync.RWMutex
	blocks   map[string]*record
	lastLoad string
}

type record struct {
	desc        *blockspec.Descriptor
	source      string
	fingerprint blockspec.Fingerprint
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSource adds a document source. Sources are read in the order given.
func WithSource(s Source) Option {
	return func(c *Catalog) { c.sources = append(c.sources, s) }
}

// WithLogger sets the event logger.
func WithLogger(l log.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithStrict makes any rejected document fail the whole reload.
func WithStrict() Option {
	return func(c *Catalog) { c.strict = true }
}

// New creates an empty catalog. Call Reload to fill it.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger: log.NoopLogger{},
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		blocks: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NoopLogger{}
	}
	return c
}

// Rejection describes a document that could not be loaded.
type Rejection struct {
	Document string
	Err      error
}

// Report summarizes one reload.
type Report struct {
	LoadID string

	// Loaded lists every block in the new catalog, sorted.
	Loaded []string

	// Changed lists blocks whose metadata differs from the previous load.
	Changed []string

	// Removed lists blocks present before and absent now.
	Removed []string

	Rejected []Rejection
	Warnings []blockspec.Issue
}

// OK reports whether every document loaded.
func (r *Report) OK() bool {
	return len(r.Rejected) == 0
}

// Reload reads all sources and replaces the catalog contents. It returns an
// error if a source cannot be read, or in strict mode if any document is
// rejected; in both cases the catalog is left unchanged.
func (c *Catalog) Reload(ctx context.Context) (*Report, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	report := &Report{LoadID: c.newID()}
	next := make(map[string]*record)
	var events []log.Event

	for _, src := range c.sources {
		entries, err := src.Documents(ctx)
		if err != nil {
			return report, fmt.Errorf("catalog: %w", err)
		}

		for _, e := range entries {
			recs, doc, err := c.loadEntry(e, next)
			if err != nil {
				report.Rejected = append(report.Rejected, Rejection{Document: e.Name, Err: err})
				events = append(events, c.rejectedEvent(report.LoadID, e.Name, err))
				continue
			}
			for _, r := range recs {
				next[r.desc.ID] = r
			}
			for _, w := range doc.Warnings() {
				report.Warnings = append(report.Warnings, w)
				events = append(events, log.Event{
					LoadID:  report.LoadID,
					Kind:    log.KindWarning,
					Source:  e.Name,
					BlockID: w.Block,
					Message: w.Path + ": " + w.Message,
				})
			}
		}
	}

	if c.strict && len(report.Rejected) > 0 {
		c.emit(events)
		first := report.Rejected[0]
		return report, fmt.Errorf("catalog: %d document(s) rejected, first %s: %w",
			len(report.Rejected), first.Document, first.Err)
	}

	c.mu.Lock()
	prev := c.blocks
	c.blocks = next
	c.lastLoad = report.LoadID
	c.mu.Unlock()

	for _, id := range sortedIDs(next) {
		r := next[id]
		report.Loaded = append(report.Loaded, id)
		changed := false
		if old, ok := prev[id]; ok && old.fingerprint != r.fingerprint {
			changed = true
			report.Changed = append(report.Changed, id)
		}
		events = append(events, log.Event{
			LoadID:      report.LoadID,
			Kind:        log.KindLoaded,
			Source:      r.source,
			BlockID:     id,
			Version:     r.desc.Version,
			Fingerprint: r.fingerprint.String(),
			Changed:     changed,
		})
	}
	for _, id := range sortedIDs(prev) {
		if _, ok := next[id]; !ok {
			report.Removed = append(report.Removed, id)
			events = append(events, log.Event{
				LoadID:  report.LoadID,
				Kind:    log.KindRemoved,
				Source:  prev[id].source,
				BlockID: id,
			})
		}
	}

	c.emit(events)
	return report, nil
}

// loadEntry loads one document and checks its blocks against those already
// collected in this reload.
func (c *Catalog) loadEntry(e Entry, next map[string]*record) ([]*record, *blockspec.Document, error) {
	doc, err := blockspec.LoadNamed(e.Name, e.Data)
	if err != nil {
		return nil, nil, err
	}

	recs := make([]*record, 0, doc.Len())
	for _, d := range doc.Descriptors() {
		if other, ok := next[d.ID]; ok {
			return nil, nil, fmt.Errorf("%w %q: already declared by %s", ErrDuplicateBlock, d.ID, other.source)
		}
		recs = append(recs, &record{desc: d, source: e.Name, fingerprint: d.Fingerprint()})
	}
	return recs, doc, nil
}

func (c *Catalog) rejectedEvent(loadID, name string, err error) log.Event {
	ev := log.Event{
		LoadID:  loadID,
		Kind:    log.KindRejected,
		Source:  name,
		Message: err.Error(),
	}
	var se *blockspec.SchemaError
	if errors.As(err, &se) {
		ev.BlockID = se.Block
		ev.Missing = se.Missing
		ev.Violations = se.Violations
	}
	return ev
}

func (c *Catalog) emit(events []log.Event) {
	ts := c.now()
	for _, ev := range events {
		ev.Timestamp = ts
		c.logger.Log(ev)
	}
}

// Get returns the descriptor of a block.
func (c *Catalog) Get(id string) (*blockspec.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.blocks[id]
	if !ok {
		return nil, false
	}
	return r.desc, true
}

// SourceOf returns the document a block was loaded from.
func (c *Catalog) SourceOf(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.blocks[id]
	if !ok {
		return "", false
	}
	return r.source, true
}

// IDs returns all block identifiers, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedIDs(c.blocks)
}

// Len returns the number of blocks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Descriptors returns all descriptors sorted by block identifier.
func (c *Catalog) Descriptors() []*blockspec.Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*blockspec.Descriptor, 0, len(c.blocks))
	for _, id := range sortedIDs(c.blocks) {
		out = append(out, c.blocks[id].desc)
	}
	return out
}

// ByCategory returns the descriptors of one category, sorted by identifier.
func (c *Catalog) ByCategory(category string) []*blockspec.Descriptor {
	var out []*blockspec.Descriptor
	for _, d := range c.Descriptors() {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.Descriptors() {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out
}

// LastLoadID returns the LoadID of the most recent successful reload.
func (c *Catalog) LastLoadID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastLoad
}

func sortedIDs(m map[string]*record) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package log

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Event describes one catalog occurrence. CBOR encoding uses integer keys
// for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// LoadID groups the events of a single catalog load (UUID).
	LoadID string `cbor:"2,keyasint"`

	Kind Kind `cbor:"3,keyasint"`

	// Source names the document source, e.g. a file path or "builtin".
	Source string `cbor:"4,keyasint,omitempty"`

	// BlockID is empty for events about a whole document.
	BlockID string `cbor:"5,keyasint,omitempty"`

	Version     string `cbor:"6,keyasint,omitempty"`
	Fingerprint string `cbor:"7,keyasint,omitempty"`

	// Message is a human-readable summary.
	Message string `cbor:"8,keyasint,omitempty"`

	// Missing and Violations are copied from a schema error.
	Missing    []string `cbor:"9,keyasint,omitempty"`
	Violations []string `cbor:"10,keyasint,omitempty"`

	// Changed is set on Loaded events when the block existed before with
	// a different fingerprint.
	Changed bool `cbor:"11,keyasint,omitempty"`
}

// Kind classifies an event.
type Kind uint8

const (
	// KindLoaded indicates a block descriptor was accepted.
	KindLoaded Kind = 0
	// KindRejected indicates a document failed to load.
	KindRejected Kind = 1
	// KindWarning indicates a tolerated problem in an accepted block.
	KindWarning Kind = 2
	// KindRemoved indicates a block is no longer provided by any source.
	KindRemoved Kind = 3
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLoaded:
		return "LOADED"
	case KindRejected:
		return "REJECTED"
	case KindWarning:
		return "WARNING"
	case KindRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= KindRemoved
}

// ParseKind parses a kind name as returned by String, ignoring case.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindLoaded, KindRejected, KindWarning, KindRemoved} {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}
	return 0, false
}

// ErrUnknownKind is returned when a decoded event carries a kind this
// package does not define.
var ErrUnknownKind = errors.New("unknown event kind")

// Timestamps are written as tagged RFC 3339 strings so generic CBOR tools
// show them as times. Repeated map keys only occur in a corrupted log and
// are rejected.
var (
	eventEncMode = mustEncMode(cbor.EncOptions{
		Sort:    cbor.SortCoreDeterministic,
		Time:    cbor.TimeRFC3339Nano,
		TimeTag: cbor.EncTagRequired,
	})
	eventDecMode = mustDecMode(cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 16,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("event CBOR encoder mode: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("event CBOR decoder mode: %v", err))
	}
	return dm
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEncMode.Marshal(event)
}

// DecodeEvent decodes one CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := event.check(); err != nil {
		return Event{}, err
	}
	return event, nil
}

func (e Event) check() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(e.Kind))
	}
	return nil
}

func newEventEncoder(w io.Writer) *cbor.Encoder {
	return eventEncMode.NewEncoder(w)
}

func newEventDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}

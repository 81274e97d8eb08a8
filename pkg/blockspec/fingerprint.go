package blockspec

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies the content of a descriptor.
type Fingerprint [blake2b.Size256]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first eight hex digits, for display.
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// canonicalMode encodes descriptor trees deterministically.
var canonicalMode cbor.EncMode

func init() {
	var err error
	canonicalMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create canonical CBOR encoder mode: %v", err))
	}
}

// MarshalCBOR encodes the descriptor tree in canonical CBOR. Numbers are
// encoded as CBOR integers or floats, never as text.
func (d *Descriptor) MarshalCBOR() ([]byte, error) {
	return canonicalMode.Marshal(plainValue(d.Tree()))
}

// MarshalCBOR encodes the document tree in canonical CBOR. Block order is
// not preserved.
func (doc *Document) MarshalCBOR() ([]byte, error) {
	return canonicalMode.Marshal(plainValue(doc.Tree()))
}

// Fingerprint returns a blake2b-256 digest of the block identifier and the
// canonical CBOR encoding of its metadata. Equal descriptors have equal
// fingerprints.
func (d *Descriptor) Fingerprint() Fingerprint {
	body, err := canonicalMode.Marshal([]any{d.ID, plainValue(d.Tree())})
	if err != nil {
		// Trees hold only strings, numbers, booleans, nil, maps and slices.
		panic(fmt.Sprintf("encoding descriptor %s: %v", d.ID, err))
	}
	return blake2b.Sum256(body)
}

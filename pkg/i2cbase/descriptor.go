package i2cbase

import (
	"embed"
	"fmt"
	"sync"

	"github.com/nio-blocks/blockspec/pkg/blockspec"
)

// BlockID identifies the I2C base block.
const BlockID = "nio/I2CBase"

// SpecFS holds the block's metadata document as spec.json.
//
//go:embed spec.json
var SpecFS embed.FS

var (
	descOnce sync.Once
	desc     *blockspec.Descriptor
	descErr  error
)

// Descriptor returns the block's metadata, loaded from the embedded
// document on first use.
func Descriptor() (*blockspec.Descriptor, error) {
	descOnce.Do(func() {
		data, err := SpecFS.ReadFile("spec.json")
		if err != nil {
			descErr = fmt.Errorf("reading embedded spec: %w", err)
			return
		}
		doc, err := blockspec.Load(data)
		if err != nil {
			descErr = fmt.Errorf("loading embedded spec: %w", err)
			return
		}
		d, ok := doc.Descriptor(BlockID)
		if !ok {
			descErr = fmt.Errorf("embedded spec does not declare %s", BlockID)
			return
		}
		desc = d
	})
	return desc, descErr
}

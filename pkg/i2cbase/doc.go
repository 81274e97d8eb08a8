// Package i2cbase resolves the configuration of the I2C base block.
//
// The block talks to an I2C device through one of three platform adaptors.
// This package turns the user-supplied property values into a typed Config
// and rejects values the adaptors cannot use. It does not open devices or
// perform bus IO.
//
// The block's own metadata document is embedded and available through
// Descriptor.
package i2cbase

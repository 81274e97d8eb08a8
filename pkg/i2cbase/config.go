package i2cbase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Property names accepted by Resolve.
const (
	PropPlatform = "platform"
	PropAddress  = "I2C_address"
	PropBus      = "bus"
)

// Defaults applied by Resolve for absent or empty values.
const (
	DefaultAddress = "0x00"
	DefaultBus     = "1"
)

// MaxAddress is the highest 7-bit I2C address.
const MaxAddress = 0x7F

// raspberryPiBus is the only bus the Raspberry Pi adaptor opens.
const raspberryPiBus = "1"

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrInvalidAddress  = errors.New("invalid I2C address")
	ErrInvalidBus      = errors.New("invalid bus")
	ErrUnknownProperty = errors.New("unknown property")
)

// PropertyError reports a property value that cannot be used.
type PropertyError struct {
	Property string
	Value    string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %s=%q: %v", e.Property, e.Value, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// Config is the resolved configuration of an I2C base block.
type Config struct {
	Platform Platform
	Address  uint8
	Bus      string
}

// Resolve applies defaults to the given property values and validates them.
// Keys other than platform, I2C_address and bus are rejected.
func Resolve(values map[string]string) (Config, error) {
	for key, val := range values {
		switch key {
		case PropPlatform, PropAddress, PropBus:
		default:
			return Config{}, &PropertyError{Property: key, Value: val, Err: ErrUnknownProperty}
		}
	}

	cfg := Config{Platform: DefaultPlatform, Bus: DefaultBus}

	if v := strings.TrimSpace(values[PropPlatform]); v != "" {
		p, err := ParsePlatform(v)
		if err != nil {
			return Config{}, &PropertyError{Property: PropPlatform, Value: v, Err: ErrUnknownPlatform}
		}
		cfg.Platform = p
	}

	addr := strings.TrimSpace(values[PropAddress])
	if addr == "" {
		addr = DefaultAddress
	}
	a, err := ParseAddress(addr)
	if err != nil {
		return Config{}, &PropertyError{Property: PropAddress, Value: addr, Err: err}
	}
	cfg.Address = a

	if v := strings.TrimSpace(values[PropBus]); v != "" {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return Config{}, &PropertyError{Property: PropBus, Value: v, Err: ErrInvalidBus}
		}
		cfg.Bus = v
	}

	return cfg, nil
}

// ParseAddress parses an I2C address. Prefixes 0x, 0o and 0b select the
// base; otherwise the value is decimal and may not have a leading zero.
// Underscores and signs are rejected. The result must fit in 7 bits.
func ParseAddress(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	base, digits := 10, s
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			digits = s[2:]
		}
	}
	if base == 10 && len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("%w: leading zero in decimal %q", ErrInvalidAddress, s)
	}

	n, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, ErrInvalidAddress
	}
	if n > MaxAddress {
		return 0, fmt.Errorf("%w: 0x%X exceeds 7-bit range", ErrInvalidAddress, n)
	}
	return uint8(n), nil
}

// DevicePath returns the device file the adaptor opens, or "" for adaptors
// that do not use one.
func (c Config) DevicePath() string {
	switch c.Platform {
	case PlatformRaspberryPi:
		return "/dev/i2c-" + raspberryPiBus
	case PlatformGeneric:
		return "/dev/i2c-" + c.Bus
	default:
		return ""
	}
}

// AddressHex returns the address formatted as 0xNN.
func (c Config) AddressHex() string {
	return fmt.Sprintf("0x%02X", c.Address)
}

func (c Config) String() string {
	if path := c.DevicePath(); path != "" {
		return fmt.Sprintf("%s %s on %s", c.Platform, c.AddressHex(), path)
	}
	return fmt.Sprintf("%s %s", c.Platform, c.AddressHex())
}

package i2cbase

import (
	"fmt"
	"strconv"
	"strings"
)

// Platform selects the device adaptor used to reach the I2C bus.
type Platform uint8

const (
	// PlatformRaspberryPi uses the Raspberry Pi's /dev/i2c-1.
	PlatformRaspberryPi Platform = 0
	// PlatformFT232H uses an FT232H USB-to-I2C bridge.
	PlatformFT232H Platform = 1
	// PlatformGeneric uses /dev/i2c-<bus> on any Linux host.
	PlatformGeneric Platform = 2
)

// DefaultPlatform is used when no platform is configured.
const DefaultPlatform = PlatformGeneric

var platformNames = map[Platform]string{
	PlatformRaspberryPi: "raspberry_pi",
	PlatformFT232H:      "ft232h",
	PlatformGeneric:     "generic",
}

// Platforms returns all platforms in value order.
func Platforms() []Platform {
	return []Platform{PlatformRaspberryPi, PlatformFT232H, PlatformGeneric}
}

// String returns the platform name.
func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Platform(%d)", uint8(p))
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	_, ok := platformNames[p]
	return ok
}

// ParsePlatform parses a platform by name (case-insensitive) or by its
// numeric value.
func ParsePlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	for p, name := range platformNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && Platform(n).Valid() {
		return Platform(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

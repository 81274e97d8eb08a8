// Package version parses and compares block descriptor versions.
//
// Block versions are dotted-integer triples ("major.minor.patch"). Parsing is
// strict; comparison follows semantic versioning precedence.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a parsed "major.minor.patch" block version.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Parse parses a "major.minor.patch" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var nums [3]uint32
	for i, name := range []string{"major", "minor", "patch"} {
		if parts[i] == "" {
			return Version{}, fmt.Errorf("invalid version %q: empty %s component", s, name)
		}
		n, err := strconv.ParseUint(parts[i], 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: bad %s component", s, name)
		}
		nums[i] = uint32(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Valid reports whether s is a well-formed block version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// semver returns the canonical "vX.Y.Z" form understood by x/mod/semver.
func (v Version) semver() string {
	return "v" + v.String()
}

// Compare returns -1, 0 or +1 depending on whether v is lower than, equal to
// or higher than other.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return semver.Major(v.semver()) == semver.Major(other.semver())
}

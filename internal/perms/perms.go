// Package perms models the 8-hex-digit permission bitmasks exchanged with the
// host backend.
package perms

import (
	"fmt"
	"strconv"
)

// Mask is a permission bitmask
type Mask uint32

// Capability bits
const (
	Read   Mask = 0x01
	Modify Mask = 0x02
	Add    Mask = 0x04
	Delete Mask = 0x08
	Admin  Mask = 0x10

	// Owner is the capability set meaning "the requester may modify this host"
	Owner      = Read | Modify | Delete
	Deity Mask = 0xffffffff
)

// The all-zero literal has two unrelated meanings. They are kept as separate
// names so each call site states which one it means.
const (
	// Unrestricted asks the backend for every host regardless of ownership.
	Unrestricted = "00000000"
	// NoEntry marks a host for which the backend returned no permission data.
	NoEntry = "00000000"
)

// Parse decodes an 8-hex-digit mask string
func Parse(s string) (Mask, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("permission mask %q: want 8 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("permission mask %q: %w", s, err)
	}
	return Mask(v), nil
}

// MustParse is Parse for constants known to be valid
func MustParse(s string) Mask {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String encodes the mask as 8 lowercase hex digits
func (m Mask) String() string {
	return fmt.Sprintf("%08x", uint32(m))
}

// Has reports whether every bit of required is set in m. A partial overlap is
// not enough.
func (m Mask) Has(required Mask) bool {
	return m&required == required
}

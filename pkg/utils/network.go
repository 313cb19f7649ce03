// ===== pkg/utils/network.go =====
package utils

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strings"
)

// ParseMAC parses a 48-bit hardware address. Besides the forms accepted by
// net.ParseMAC it takes twelve bare hex digits.
func ParseMAC(s string) (net.HardwareAddr, bool) {
	if len(s) == 12 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, false
		}
		return net.HardwareAddr(b), true
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return nil, false
	}
	return hw, true
}

// IsMAC reports whether s is a 48-bit MAC address
func IsMAC(s string) bool {
	_, ok := ParseMAC(s)
	return ok
}

// IsIP reports whether s is a bare IPv4 or IPv6 address
func IsIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Zone() == ""
}

// IsCIDR reports whether s is an address prefix such as 10.0.0.0/24
func IsCIDR(s string) bool {
	_, err := netip.ParsePrefix(s)
	return err == nil
}

// NormalizeMAC normalizes a MAC address string to lowercase with colons.
// Strings that are not MAC addresses are returned lowercased and trimmed.
func NormalizeMAC(mac string) string {
	if hwAddr, ok := ParseMAC(strings.TrimSpace(mac)); ok {
		return hwAddr.String()
	}
	return strings.ToLower(strings.TrimSpace(mac))
}

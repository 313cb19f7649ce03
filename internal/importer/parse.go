package importer

import (
	"net/netip"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ipamhosts/internal/backend"
	"ipamhosts/pkg/utils"
)

// Lease is one line of a dnsmasq leases file
type Lease struct {
	Expire   time.Time
	MAC      string
	IP       string
	Name     string
	ClientID string
}

// ParseLeases parses dnsmasq lease data ("expire mac ip name id" per line).
// Invalid lines are skipped.
func ParseLeases(content string) []Lease {
	var leases []Lease

	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		lease, ok := parseLeaseLine(fields)
		if !ok {
			continue
		}
		leases = append(leases, lease)
	}

	return leases
}

func parseLeaseLine(fields []string) (Lease, bool) {
	var lease Lease

	if !utils.IsMAC(fields[1]) {
		return lease, false
	}
	lease.MAC = utils.NormalizeMAC(fields[1])

	if timestamp, err := strconv.ParseInt(fields[0], 10, 64); err == nil && timestamp > 0 {
		lease.Expire = time.Unix(timestamp, 0)
	}

	if utils.IsIP(fields[2]) {
		lease.IP = fields[2]
	}

	// dnsmasq writes "*" for clients that sent no name
	if fields[3] != "*" {
		lease.Name = fields[3]
	}
	if len(fields) > 4 && fields[4] != "*" {
		lease.ClientID = fields[4]
	}

	return lease, true
}

// ParseStatic parses dnsmasq "dhcp-host=" reservations
func ParseStatic(content string) []backend.HostFields {
	var entries []backend.HostFields

	for _, line := range strings.Split(content, "\n") {
		line = stripComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		entry, ok := parseStaticLine(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

func parseStaticLine(line string) (backend.HostFields, bool) {
	var entry backend.HostFields

	key, value, found := strings.Cut(line, "=")
	if !found || strings.ToLower(strings.TrimSpace(key)) != "dhcp-host" {
		return entry, false
	}

	values := strings.Split(value, ",")
	if len(values) < 2 || !utils.IsMAC(strings.TrimSpace(values[0])) {
		return entry, false
	}
	entry.MAC = utils.NormalizeMAC(values[0])

	for _, v := range values[1:] {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		// set:/tag: selectors and lease times carry nothing we store
		if prefix, _, ok := strings.Cut(strings.ToLower(v), ":"); ok && (prefix == "set" || prefix == "tag") {
			continue
		}
		if v == "infinite" || isLeaseTime(v) {
			continue
		}

		if utils.IsIP(v) {
			entry.Address = v
			continue
		}

		entry.Hostname = v
	}

	return entry, true
}

// isLeaseTime reports whether v looks like a dnsmasq lease time ("12h", "45m", "3600")
func isLeaseTime(v string) bool {
	trimmed := strings.TrimRight(v, "smhdw")
	if trimmed == "" {
		return false
	}
	_, err := strconv.Atoi(trimmed)
	return err == nil
}

// ParseHostsFile parses /etc/hosts style content into an address to name map.
// The first name on a line wins and later lines do not override earlier ones.
func ParseHostsFile(content string) map[string]string {
	names := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = stripComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			continue
		}
		if _, exists := names[addr.String()]; !exists {
			names[addr.String()] = fields[1]
		}
	}

	return names
}

// stripComment removes comments from a line
func stripComment(line string) string {
	if idx := strings.IndexAny(line, "#;"); idx >= 0 {
		return strings.TrimRightFunc(line[:idx], unicode.IsSpace)
	}
	return line
}

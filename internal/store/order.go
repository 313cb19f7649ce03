package store

import (
	"net/netip"
	"sort"
	"strings"
)

type orderKey struct {
	field string
	desc  bool
}

type hostOrder []orderKey

// parseOrder reads an order_by expression such as "hostname" or
// "expires desc, hosts.mac". Unknown fields are ignored and hostname is
// always the final tie breaker.
func parseOrder(expr string) hostOrder {
	var order hostOrder
	for _, part := range strings.Split(expr, ",") {
		words := strings.Fields(strings.ToLower(part))
		if len(words) == 0 {
			continue
		}
		if (words[0] == "asc" || words[0] == "desc") && len(order) > 0 {
			order[len(order)-1].desc = words[0] == "desc"
			continue
		}
		field := words[0]
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch field {
		case "hostname", "mac", "ip", "expires", "description":
		default:
			continue
		}
		key := orderKey{field: field}
		if len(words) > 1 && words[1] == "desc" {
			key.desc = true
		}
		order = append(order, key)
	}
	return append(order, orderKey{field: "hostname"})
}

func (o hostOrder) sort(hosts []storedHost) {
	sort.SliceStable(hosts, func(i, j int) bool {
		for _, key := range o {
			c := compareField(key.field, &hosts[i], &hosts[j])
			if c == 0 {
				continue
			}
			if key.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareField(field string, a, b *storedHost) int {
	switch field {
	case "mac":
		return strings.Compare(a.MAC, b.MAC)
	case "ip":
		return compareAddr(a.IP, b.IP)
	case "expires":
		return a.Expires.Compare(b.Expires)
	case "description":
		return strings.Compare(a.Description, b.Description)
	default:
		return strings.Compare(a.Hostname, b.Hostname)
	}
}

// compareAddr orders addresses or prefixes numerically; unparsable values
// sort after valid ones.
func compareAddr(a, b string) int {
	pa, errA := parseAddrOrPrefix(a)
	pb, errB := parseAddrOrPrefix(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return pa.Compare(pb)
}

func parseAddrOrPrefix(s string) (netip.Addr, error) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Addr(), nil
	}
	return netip.ParseAddr(s)
}

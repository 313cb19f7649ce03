package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	ipamerr "ipamhosts/internal/errors"
)

// Filter keys. This is the complete set accepted from callers.
const (
	KeyMAC        = "mac"
	KeyIP         = "ip"
	KeyNetwork    = "network"
	KeyUsername   = "username"
	KeyNameSearch = "namesearch"
	KeyPage       = "page"
	KeyOrderBy    = "order_by"
	KeyExpiring   = "expiring"
)

// IsFilterKey reports whether key belongs to the closed filter key set
func IsFilterKey(key string) bool {
	switch key {
	case KeyMAC, KeyIP, KeyNetwork, KeyUsername, KeyNameSearch, KeyPage, KeyOrderBy, KeyExpiring:
		return true
	}
	return false
}

// FilterSet is the structured filter built for one search request
type FilterSet struct {
	MAC        string
	IP         string
	Network    string
	Username   string
	NameSearch string
	Page       int
	OrderBy    string
	Expiring   bool
}

// Set stores value under key. A second namesearch is a conflict; every other
// key keeps the last value written. String filters must not be empty.
func (f *FilterSet) Set(key, value string) error {
	switch key {
	case KeyMAC, KeyIP, KeyNetwork, KeyUsername, KeyNameSearch:
		if value == "" {
			return ipamerr.InvalidArgument("filter", "empty value for %s", key)
		}
	}

	switch key {
	case KeyMAC:
		f.MAC = value
	case KeyIP:
		f.IP = value
	case KeyNetwork:
		f.Network = value
	case KeyUsername:
		f.Username = value
	case KeyNameSearch:
		if f.NameSearch != "" {
			return ipamerr.ConflictingFilter(f.NameSearch, value)
		}
		f.NameSearch = value
	case KeyOrderBy:
		f.OrderBy = value
	case KeyPage:
		page, err := strconv.Atoi(value)
		if err != nil || page < 0 {
			return ipamerr.InvalidArgument("filter", "invalid page %q", value)
		}
		f.Page = page
	case KeyExpiring:
		expiring, err := strconv.ParseBool(value)
		if err != nil {
			return ipamerr.InvalidArgument("filter", "invalid expiring flag %q", value)
		}
		f.Expiring = expiring
	default:
		return ipamerr.InvalidArgument("filter", "unknown search filter %q", key)
	}
	return nil
}

// Values returns the non-empty string-valued entries keyed by filter name.
// page and order_by are not included.
func (f *FilterSet) Values() map[string]string {
	values := make(map[string]string)
	add := func(k, v string) {
		if v != "" {
			values[k] = v
		}
	}
	add(KeyMAC, f.MAC)
	add(KeyIP, f.IP)
	add(KeyNetwork, f.Network)
	add(KeyUsername, f.Username)
	add(KeyNameSearch, f.NameSearch)
	if f.Expiring {
		values[KeyExpiring] = "True"
	}
	return values
}

// Empty reports whether no filter narrows the result
func (f *FilterSet) Empty() bool {
	return len(f.Values()) == 0
}

// Encode serializes the filters deterministically: keys sorted, key=value
// pairs joined by '&'. page and order_by are never part of the encoding.
func (f *FilterSet) Encode() string {
	return f.encode(func(v string) string { return v })
}

// QueryString is Encode with every value query-escaped, for use in a URL
func (f *FilterSet) QueryString() string {
	return f.encode(url.QueryEscape)
}

func (f *FilterSet) encode(escape func(string) string) string {
	values := f.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+escape(values[k]))
	}
	return strings.Join(parts, "&")
}

// validate rejects values that would break the serialized form
func (f *FilterSet) validate() error {
	for k, v := range f.Values() {
		if strings.Contains(v, "&") {
			return ipamerr.InvalidArgument("normalize", "& is not valid here (%s)", k)
		}
	}
	return nil
}

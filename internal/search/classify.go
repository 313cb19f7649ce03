package search

import (
	"strings"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/pkg/utils"
)

// specialSearch maps the type part of a type:value token to a filter key
var specialSearch = map[string]string{
	"ip":       KeyIP,
	"mac":      KeyMAC,
	"user":     KeyUsername,
	"username": KeyUsername,
	"net":      KeyNetwork,
	"network":  KeyNetwork,
	"hostname": KeyNameSearch,
	"name":     KeyNameSearch,
}

// Classify interprets one whitespace-free query element and writes the
// resulting filter into f. Checks run in priority order: MAC, IP, CIDR,
// type:value, hostname fragment.
func Classify(token string, f *FilterSet) error {
	switch {
	case utils.IsMAC(token):
		return f.Set(KeyMAC, token)
	case utils.IsIP(token):
		return f.Set(KeyIP, token)
	case utils.IsCIDR(token):
		return f.Set(KeyNetwork, token)
	case strings.Contains(token, ":"):
		stype, value, _ := strings.Cut(token, ":")
		key, ok := specialSearch[stype]
		if !ok {
			return ipamerr.UnrecognizedSearchType(stype, value)
		}
		if key == KeyNameSearch {
			value = strings.ReplaceAll(value, "%", "*")
		}
		return f.Set(key, value)
	default:
		return f.Set(KeyNameSearch, namePattern(token))
	}
}

// namePattern turns a bare fragment into a wildcard pattern. '%' and '*' are
// interchangeable on input; the backend always sees '*'. A fragment that the
// user already anchored with '.' or '*' is used as typed, anything else is
// matched as a substring.
func namePattern(fragment string) string {
	pattern := strings.ReplaceAll(fragment, "%", "*")
	if strings.ContainsAny(fragment, ".*") {
		return pattern
	}
	return "*" + pattern + "*"
}

package search

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/pkg/models"
)

// Locations produced by the normalizer
const (
	DefaultListing = "/hosts"
	SearchPath     = "/hosts/search/"
	DefaultOrderBy = "hostname"
)

var unsafeOrderBy = regexp.MustCompile(`[^a-zA-Z.,_ ]`)

// Request is one search submission: the free-text query plus any arguments
// that arrived already keyed (typically from a previous canonical redirect).
type Request struct {
	Query    string
	Args     map[string]string
	Page     int
	OrderBy  string
	Expiring bool
}

// Decision is the normalizer's outcome. Exactly one of Redirect or Filters is
// meaningful: when Redirect is set retrieval must not run this cycle.
type Decision struct {
	Redirect  string
	Filters   FilterSet
	Canonical string
}

// SearchURL returns the canonical search location for f
func SearchURL(f *FilterSet) string {
	return SearchPath + "?" + f.QueryString()
}

// ValidateOrderBy rejects ordering keys outside letters, '.', ',', '_' and space
func ValidateOrderBy(orderBy string) error {
	if unsafeOrderBy.MatchString(orderBy) {
		return ipamerr.UnsafeOrderBy(orderBy)
	}
	return nil
}

// Normalize classifies the query, merges it with the keyed arguments and
// decides whether the caller must be redirected to the canonical search.
func Normalize(rc models.RequestContext, req Request) (*Decision, error) {
	orderBy := req.OrderBy
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	if err := ValidateOrderBy(orderBy); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" && len(req.Args) == 0 {
		if !req.Expiring {
			return &Decision{Redirect: DefaultListing}, nil
		}
		query = "user:" + rc.Username
	}

	var filters FilterSet
	for key, value := range req.Args {
		if !IsFilterKey(key) || key == KeyPage || key == KeyOrderBy {
			return nil, ipamerr.InvalidArgument("normalize", "unknown search filter %q", key)
		}
		if err := filters.Set(key, value); err != nil {
			return nil, err
		}
	}
	if req.Expiring {
		filters.Expiring = true
	}
	if req.Page > 0 {
		filters.Page = req.Page
	}

	for _, token := range strings.Fields(query) {
		if err := Classify(token, &filters); err != nil {
			return nil, err
		}
	}

	if err := filters.validate(); err != nil {
		return nil, err
	}

	canonical := filters.Encode()
	if query != "" {
		// A fresh text search starts over: ordering and page are dropped.
		return &Decision{Redirect: SearchURL(&filters), Canonical: canonical}, nil
	}

	filters.OrderBy = orderBy
	return &Decision{Filters: filters, Canonical: canonical}, nil
}

// Query parameters of the search view that are not filters
const (
	ParamQuery    = "q"
	ParamPage     = "page"
	ParamOrderBy  = "order_by"
	ParamExpiring = "expiring"
	ParamSuccess  = "success"
)

// RequestFromQuery splits search view parameters into the free-text query,
// paging, ordering and the already-keyed filters. success reports whether
// the success marker was present.
func RequestFromQuery(values url.Values) (req Request, success bool, err error) {
	req.Args = map[string]string{}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		value := vals[0]

		switch key {
		case ParamQuery:
			req.Query = value
		case ParamPage:
			page, err := strconv.Atoi(value)
			if err != nil || page < 0 {
				return req, false, ipamerr.InvalidArgument("search", "invalid page %q", value)
			}
			req.Page = page
		case ParamOrderBy:
			req.OrderBy = value
		case ParamExpiring:
			expiring, err := strconv.ParseBool(value)
			if err != nil {
				return req, false, ipamerr.InvalidArgument("search", "invalid expiring flag %q", value)
			}
			req.Expiring = expiring
		case ParamSuccess:
			success = true
		default:
			req.Args[key] = value
		}
	}

	return req, success, nil
}

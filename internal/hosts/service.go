// Package hosts implements the host search core: permission-scoped retrieval,
// permission annotation, batch actions and the add/edit flows around them.
package hosts

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/metrics"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
)

// DefaultLimit is the page size used when the request context carries none
const DefaultLimit = 50

const successMessage = "Hosts Updated Successfully"

// Service runs host searches and actions against a backend
type Service struct {
	backend        backend.Backend
	allowDynamicIP bool
}

// Option configures a Service
type Option func(*Service)

// WithDynamicIP advertises dynamic address assignment on the host forms
func WithDynamicIP(allow bool) Option {
	return func(s *Service) {
		s.allowDynamicIP = allow
	}
}

// NewService creates a new host service
func NewService(b backend.Backend, opts ...Option) *Service {
	s := &Service{backend: b}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is what a completed search hands to the presentation layer
type Result struct {
	Hosts         []models.HostRecord `json:"hosts"`
	Pagination    models.Pagination   `json:"pagination"`
	Search        string              `json:"search"`
	OrderBy       string              `json:"order_by"`
	Username      string              `json:"username"`
	ShowAllHosts  bool                `json:"show_all_hosts"`
	GlobalSuccess string              `json:"global_success,omitempty"`
}

// Outcome is either a redirect target or a result, never both
type Outcome struct {
	Redirect string
	Result   *Result
}

// Search normalizes the request and, unless a redirect is due, retrieves and
// annotates the matching hosts. success marks a request arriving back from a
// successful batch action.
func (s *Service) Search(ctx context.Context, rc models.RequestContext, req search.Request, success bool) (*Outcome, error) {
	decision, err := search.Normalize(rc, req)
	if err != nil {
		metrics.RecordSearch("input_error")
		log.Info().Err(err).Str("user", rc.Username).Str("query", req.Query).Msg("Rejected search")
		return nil, err
	}
	if decision.Redirect != "" {
		metrics.RecordSearch("redirect")
		log.Debug().Str("query", req.Query).Str("location", decision.Redirect).Msg("Redirecting search")
		return &Outcome{Redirect: decision.Redirect}, nil
	}

	start := time.Now()
	result, err := s.Retrieve(ctx, rc, decision.Filters)
	if err != nil {
		metrics.RecordSearch("backend_error")
		return nil, err
	}
	if err := s.Annotate(ctx, rc, result.Hosts); err != nil {
		metrics.RecordSearch("backend_error")
		return nil, err
	}
	metrics.ObserveRetrieval(start)

	result.Search = decision.Canonical
	if success {
		result.GlobalSuccess = successMessage
	}
	if len(result.Hosts) == 0 {
		metrics.RecordSearch("empty")
	} else {
		metrics.RecordSearch("results")
	}

	log.Debug().
		Str("user", rc.Username).
		Str("filters", decision.Canonical).
		Int("count", len(result.Hosts)).
		Int("total", result.Pagination.NumHosts).
		Msg("Search completed")

	return &Outcome{Result: result}, nil
}

// backendError records a failed backend call and passes the error through
func backendError(op string, err error) error {
	kind := string(ipamerr.KindOf(err))
	if kind == "" {
		kind = string(ipamerr.KindBackendFault)
	}
	metrics.RecordBackendFault(op, kind)
	return err
}

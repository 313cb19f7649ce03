package hosts

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
)

// Retrieve fetches one page of hosts matching filters, bounded by what the
// requester may see. An unrecognized requester sees an empty result.
func (s *Service) Retrieve(ctx context.Context, rc models.RequestContext, filters search.FilterSet) (*Result, error) {
	limit := rc.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	additionalPerms := perms.Owner.String()
	if rc.ShowAll {
		additionalPerms = perms.Unrestricted
	}

	opts := backend.ListOptions{
		Requester:       rc.Username,
		AdditionalPerms: additionalPerms,
		Limit:           limit,
		Page:            filters.Page,
		ShowExpired:     rc.ShowExpired,
		Count:           true,
		OrderBy:         filters.OrderBy,
		MAC:             filters.MAC,
		IP:              filters.IP,
		Network:         filters.Network,
		Username:        filters.Username,
		NameSearch:      filters.NameSearch,
		Expiring:        filters.Expiring,
	}

	numHosts, hosts, err := s.backend.ListHosts(ctx, opts)
	if err != nil {
		if !errors.Is(err, ipamerr.ErrNoAccess) {
			return nil, backendError("list_hosts", err)
		}
		log.Info().Str("user", rc.Username).Msg("Requester is not a recognized user, showing no hosts")
		numHosts, hosts = 0, []models.HostRecord{}
	}
	if hosts == nil {
		hosts = []models.HostRecord{}
	}

	return &Result{
		Hosts:        hosts,
		Pagination:   Paginate(numHosts, limit, filters.Page, len(hosts)),
		OrderBy:      filters.OrderBy,
		Username:     rc.Username,
		ShowAllHosts: rc.ShowAll,
	}, nil
}

// Paginate derives display bounds for a page of returned hosts. The values
// are for rendering only and never feed back into backend calls.
func Paginate(numHosts, limit, page, returned int) models.Pagination {
	p := models.Pagination{
		Page:       page,
		Limit:      limit,
		NumHosts:   numHosts,
		FirstIndex: page*limit + 1,
		LastIndex:  page*limit + returned,
	}
	if limit > 0 && numHosts > 0 {
		p.NumPages = (numHosts + limit - 1) / limit
	}
	return p
}

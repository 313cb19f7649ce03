package hosts

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/pkg/models"
	"ipamhosts/pkg/utils"
)

// Annotate normalizes display fields and attaches the ownership flag to each
// host. Permissions are fetched in one call for exactly these hosts.
func (s *Service) Annotate(ctx context.Context, rc models.RequestContext, hosts []models.HostRecord) error {
	if len(hosts) == 0 {
		return nil
	}

	macs := make([]string, len(hosts))
	for i := range hosts {
		hosts[i].CleanMAC = utils.NormalizeMAC(hosts[i].MAC)
		hosts[i].Description = cleanText(hosts[i].Description)
		macs[i] = hosts[i].MAC
	}

	masks, err := s.backend.LookupPermissions(ctx, rc.Username, macs)
	if err != nil {
		return backendError("find_permissions_for_hosts", err)
	}

	for i := range hosts {
		raw, ok := masks[hosts[i].MAC]
		if !ok {
			hosts[i].HasPermissions = models.AccessUnknown
			continue
		}
		mask, err := perms.Parse(raw)
		if err != nil {
			return backendError("find_permissions_for_hosts",
				ipamerr.BackendFault("find_permissions_for_hosts", "InvalidMask", err))
		}
		if mask.Has(perms.Owner) {
			hosts[i].HasPermissions = models.AccessGranted
		} else {
			hosts[i].HasPermissions = models.AccessDenied
		}
	}
	return nil
}

// cleanText returns s as valid NFC-normalized UTF-8
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	return norm.NFC.String(strings.ToValidUTF8(s, "\uFFFD"))
}

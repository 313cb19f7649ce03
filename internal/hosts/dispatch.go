package hosts

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/metrics"
	"ipamhosts/pkg/models"
)

// Dispatch runs a batch action and returns where the caller should be sent.
// Unknown actions are a no-op that returns the origin unchanged.
func (s *Service) Dispatch(ctx context.Context, rc models.RequestContext, cmd models.BatchCommand) (string, error) {
	if len(cmd.HostIDs) == 0 {
		return "", ipamerr.InvalidArgument("multiaction", "No hosts selected!")
	}

	var err error
	switch cmd.Action {
	case models.ActionDelete:
		err = s.backend.DeleteHosts(ctx, rc.Username, cmd.HostIDs)
	case models.ActionRenew:
		err = s.backend.RenewHosts(ctx, rc.Username, cmd.HostIDs)
	default:
		metrics.RecordBatch("unknown", "ignored", len(cmd.HostIDs))
		return cmd.Origin, nil
	}
	if err != nil {
		metrics.RecordBatch(cmd.Action, "error", len(cmd.HostIDs))
		log.Warn().Err(err).Str("user", rc.Username).Str("action", cmd.Action).Int("count", len(cmd.HostIDs)).Msg("Batch action failed")
		return "", backendError(cmd.Action+"_hosts", err)
	}

	metrics.RecordBatch(cmd.Action, "success", len(cmd.HostIDs))
	log.Info().Str("user", rc.Username).Str("action", cmd.Action).Int("count", len(cmd.HostIDs)).Msg("Batch action completed")

	return withSuccess(cmd.Origin), nil
}

// withSuccess appends the success marker to origin unless it already has one
func withSuccess(origin string) string {
	if strings.Contains(origin, "success") {
		return origin
	}
	sep := "?"
	if strings.Contains(origin, "?") {
		sep = "&"
	}
	return origin + sep + "success=True"
}

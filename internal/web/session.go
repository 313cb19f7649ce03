package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"ipamhosts/internal/hosts"
	"ipamhosts/pkg/models"
)

// Preference cookies flipped by the index toggles
const (
	cookieShowExpired = "show_expired"
	cookieShowAll     = "show_all"
)

type sessionKey struct{}

// requireUser builds the request context from the identity header and the
// preference cookies. Requests without an identity are rejected.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.Header.Get(s.cfg.IdentityHeader))
		if username == "" {
			writeJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		limit := s.cfg.HostsLimit
		if limit <= 0 {
			limit = hosts.DefaultLimit
		}

		rc := models.RequestContext{
			Username:       username,
			ShowExpired:    cookieFlag(r, cookieShowExpired),
			ShowAll:        cookieFlag(r, cookieShowAll),
			Limit:          limit,
			HasGlobalOwner: s.isGlobalOwner(username),
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, rc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) isGlobalOwner(username string) bool {
	if s.cfg.IsGlobalOwner(username) {
		return true
	}
	if s.owners == nil {
		return false
	}
	global, err := s.owners.IsGlobalOwner(username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("Failed to look up global ownership")
		return false
	}
	return global
}

func requestContext(r *http.Request) models.RequestContext {
	rc, _ := r.Context().Value(sessionKey{}).(models.RequestContext)
	return rc
}

func cookieFlag(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	if err != nil {
		return false
	}
	v, _ := strconv.ParseBool(c.Value)
	return v
}

// toggleCookie flips a preference cookie
func toggleCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    strconv.FormatBool(!cookieFlag(r, name)),
		Path:     "/hosts",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

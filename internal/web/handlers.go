package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/hosts"
	"ipamhosts/internal/logging"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
)

// SearchForm describes the empty search view shown to global owners
type SearchForm struct {
	Username     string `json:"username"`
	ShowExpired  bool   `json:"show_expired"`
	ShowAllHosts bool   `json:"show_all_hosts"`
	OrderBy      string `json:"order_by"`
	Limit        int    `json:"limit"`
}

// handleIndex handles the preference toggles and the landing decision
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	toggled := false
	if query.Has(cookieShowExpired) {
		toggleCookie(w, r, cookieShowExpired)
		toggled = true
	}
	if query.Has(cookieShowAll) {
		toggleCookie(w, r, cookieShowAll)
		toggled = true
	}
	if toggled {
		http.Redirect(w, r, referer(r, search.DefaultListing), http.StatusFound)
		return
	}

	rc := requestContext(r)
	if location := hosts.IndexRedirect(rc); location != "" {
		http.Redirect(w, r, location, http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, SearchForm{
		Username:     rc.Username,
		ShowExpired:  rc.ShowExpired,
		ShowAllHosts: rc.ShowAll,
		OrderBy:      search.DefaultOrderBy,
		Limit:        rc.Limit,
	})
}

// handleSearch runs a search or redirects to its canonical form
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, success, err := search.RequestFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome, err := s.svc.Search(r.Context(), requestContext(r), req, success)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if outcome.Redirect != "" {
		http.Redirect(w, r, outcome.Redirect, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, outcome.Result)
}

// handleMultiAction applies a bulk action to the selected hosts
func (s *Server) handleMultiAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	origin := r.PostForm.Get("multiurl")
	if !isLocalPath(origin) {
		origin = referer(r, search.DefaultListing)
	}

	cmd := models.BatchCommand{
		Action:  r.PostForm.Get("multiaction"),
		HostIDs: r.PostForm["multihosts"],
		Origin:  origin,
	}

	location, err := s.svc.Dispatch(r.Context(), requestContext(r), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// handleAddForm returns what the add form needs
func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	attrs, err := s.svc.FormAttributes(r.Context(), requestContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attrs)
}

// handleAdd registers a host
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	fields, err := hostFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rc := requestContext(r)
	location, err := s.svc.AddHost(r.Context(), rc, fields)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// handleEditForm returns the edit view of one host
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	mac := mux.Vars(r)["mac"]

	form, location, err := s.svc.EditForm(r.Context(), requestContext(r), mac)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if location != "" {
		http.Redirect(w, r, location, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// handleEdit updates a host
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	fields, err := hostFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fields.OldMAC = mux.Vars(r)["mac"]

	location, err := s.svc.EditHost(r.Context(), requestContext(r), fields)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// hostFields reads the add/edit form
func hostFields(r *http.Request) (backend.HostFields, error) {
	var fields backend.HostFields
	if err := r.ParseForm(); err != nil {
		return fields, ipamerr.InvalidArgument("host_form", "invalid form data")
	}
	form := r.PostForm

	fields.MAC = strings.TrimSpace(form.Get("mac"))
	fields.Hostname = strings.TrimSpace(form.Get("hostname"))
	fields.Description = form.Get("description")
	fields.Network = strings.TrimSpace(form.Get("network"))
	fields.Address = strings.TrimSpace(form.Get("address"))
	fields.IsDynamic = formBool(form.Get("is_dynamic"))
	fields.AddToUserGroup = formBool(form.Get("add_host_to_my_group"))

	for _, owner := range strings.Split(form.Get("owners"), ",") {
		if owner = strings.TrimSpace(owner); owner != "" {
			fields.Owners = append(fields.Owners, owner)
		}
	}

	for name, target := range map[string]**int{"domain": &fields.Domain, "expiration": &fields.Expiration} {
		v := strings.TrimSpace(form.Get(name))
		if v == "" {
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			return fields, ipamerr.InvalidArgument("host_form", "invalid %s %q", name, v)
		}
		*target = &id
	}

	return fields, nil
}

func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// writeFormError shows list faults again on the form, anything else is a
// regular error
func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	messages, ok := hosts.FaultMessages(err)
	if !ok {
		s.writeError(w, r, err)
		return
	}

	attrs, attrErr := s.svc.FormAttributes(r.Context(), requestContext(r))
	if attrErr != nil {
		s.writeError(w, r, attrErr)
		return
	}
	attrs.Messages = messages
	writeJSON(w, http.StatusUnprocessableEntity, attrs)
}

// writeError maps core errors onto HTTP responses. Input errors carry their
// message; backend faults are reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	switch {
	case ipamerr.IsUserError(err):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ipamerr.ErrNoAccess):
		writeJSONError(w, "Access denied", http.StatusForbidden)
	case ipamerr.FaultOf(err) == ipamerr.FaultPermissionDenied:
		writeJSONError(w, "Permission denied", http.StatusForbidden)
	case ipamerr.FaultOf(err) == ipamerr.FaultNotFound:
		writeJSONError(w, "Host not found", http.StatusNotFound)
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Backend fault")
		writeJSONError(w, "The host directory is unavailable, please try again later", http.StatusBadGateway)
	}
}

func referer(r *http.Request, fallback string) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return fallback
}

// isLocalPath reports whether target is a path on this server. Absolute and
// scheme-relative URLs are rejected.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

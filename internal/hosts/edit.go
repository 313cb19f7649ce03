package hosts

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog/log"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
	"ipamhosts/pkg/utils"
)

// DeniedLocation is where callers without modify rights on a host are sent
const DeniedLocation = "/denied"

// dnsTypeA restricts edit-form DNS records to address records
const dnsTypeA = "A"

// FormAttributes are shared by the add and edit host forms
type FormAttributes struct {
	AllowDynamicIP bool                    `json:"allow_dynamic_ip"`
	Networks       []models.Network        `json:"networks"`
	Domains        []models.Domain         `json:"domains"`
	Expirations    []models.ExpirationType `json:"expirations"`
	Messages       []string                `json:"message,omitempty"`
}

// EditForm is everything needed to render the edit form for one host
type EditForm struct {
	FormAttributes
	Host            models.HostRecord  `json:"host"`
	Owners          []string           `json:"owners"`
	IsDynamic       bool               `json:"is_dynamic"`
	HasDomainAccess bool               `json:"has_domain_access"`
	Domain          int                `json:"domain,omitempty"`
	IPs             []models.DNSRecord `json:"ips"`
}

// IndexRedirect returns where the hosts index sends the requester. Users
// without global ownership go straight to a search for their own hosts; an
// empty string means the search form should be shown.
func IndexRedirect(rc models.RequestContext) string {
	if rc.HasGlobalOwner {
		return ""
	}
	return search.SearchPath + "?q=user%3a" + url.QueryEscape(rc.Username)
}

// FormAttributes loads the selectable networks, domains and expirations
func (s *Service) FormAttributes(ctx context.Context, rc models.RequestContext) (*FormAttributes, error) {
	networks, err := s.backend.ListNetworks(ctx, backend.NetworkFilter{
		Requester:       rc.Username,
		AdditionalPerms: perms.Add.String(),
		OrderBy:         "network",
	})
	if err != nil {
		return nil, backendError("get_networks", err)
	}

	domains, err := s.backend.ListDomains(ctx, backend.DomainFilter{
		Requester:       rc.Username,
		AdditionalPerms: perms.Add.String(),
		OrderBy:         "name",
	})
	if err != nil {
		return nil, backendError("get_domains", err)
	}

	expirations, err := s.backend.ListExpirationTypes(ctx)
	if err != nil {
		return nil, backendError("get_expiration_types", err)
	}

	return &FormAttributes{
		AllowDynamicIP: s.allowDynamicIP,
		Networks:       networks,
		Domains:        domains,
		Expirations:    expirations,
	}, nil
}

// AddHost registers a host and returns the search location for it
func (s *Service) AddHost(ctx context.Context, rc models.RequestContext, fields backend.HostFields) (string, error) {
	mac, err := s.backend.RegisterHost(ctx, rc.Username, fields)
	if err != nil {
		return "", backendError("register_host", err)
	}
	log.Info().Str("user", rc.Username).Str("mac", mac).Str("hostname", fields.Hostname).Msg("Registered host")
	return hostLocation(mac), nil
}

// EditHost updates a registration and returns the search location for it
func (s *Service) EditHost(ctx context.Context, rc models.RequestContext, fields backend.HostFields) (string, error) {
	if fields.OldMAC == "" {
		return "", ipamerr.InvalidArgument("change_registration", "old MAC address is required")
	}
	if err := s.backend.UpdateHost(ctx, rc.Username, fields); err != nil {
		return "", backendError("change_registration", err)
	}

	mac := fields.MAC
	if mac == "" {
		mac = fields.OldMAC
	}
	log.Info().Str("user", rc.Username).Str("old_mac", fields.OldMAC).Str("mac", mac).Msg("Updated host")
	return hostLocation(mac), nil
}

// EditForm loads the edit view for mac. When the requester may not modify the
// host the returned redirect is DeniedLocation and the form is nil.
func (s *Service) EditForm(ctx context.Context, rc models.RequestContext, mac string) (*EditForm, string, error) {
	attrs, err := s.FormAttributes(ctx, rc)
	if err != nil {
		return nil, "", err
	}

	_, found, err := s.backend.ListHosts(ctx, backend.ListOptions{
		Requester:       rc.Username,
		AdditionalPerms: perms.Modify.String(),
		MAC:             mac,
		Limit:           1,
		ShowExpired:     true,
	})
	if err != nil && !errors.Is(err, ipamerr.ErrNoAccess) {
		return nil, "", backendError("get_hosts", err)
	}
	if len(found) == 0 {
		return nil, DeniedLocation, nil
	}
	host := found[0]
	host.CleanMAC = utils.NormalizeMAC(host.MAC)
	host.Description = cleanText(host.Description)

	owners, err := s.backend.FindOwners(ctx, host.MAC)
	if err != nil {
		return nil, "", backendError("find_owners_of_host", err)
	}
	dynamic, err := s.backend.IsDynamic(ctx, host.MAC)
	if err != nil {
		return nil, "", backendError("is_dynamic_host", err)
	}
	domains, err := s.backend.ListDomains(ctx, backend.DomainFilter{
		Requester:       rc.Username,
		AdditionalPerms: perms.Add.String(),
		Contains:        host.Hostname,
	})
	if err != nil {
		return nil, "", backendError("get_domains", err)
	}
	records, err := s.backend.ListDNSRecords(ctx, host.MAC)
	if err != nil {
		return nil, "", backendError("get_dns_records", err)
	}

	form := &EditForm{
		FormAttributes:  *attrs,
		Host:            host,
		Owners:          owners,
		IsDynamic:       dynamic,
		HasDomainAccess: len(domains) > 0,
		IPs:             []models.DNSRecord{},
	}
	if len(domains) > 0 {
		form.Domain = domains[0].ID
	}
	for _, r := range records {
		if r.Type == dnsTypeA {
			form.IPs = append(form.IPs, r)
		}
	}
	return form, "", nil
}

// FaultMessages extracts the per-field messages of a list fault so a form can
// be shown again with them. ok is false for any other error.
func FaultMessages(err error) (messages []string, ok bool) {
	var e *ipamerr.Error
	if !errors.As(err, &e) || e.Fault != ipamerr.FaultListFault {
		return nil, false
	}
	return e.Messages, true
}

func hostLocation(mac string) string {
	return search.SearchPath + "?q=" + utils.NormalizeMAC(mac)
}

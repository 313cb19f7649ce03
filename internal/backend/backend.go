// Package backend defines the host directory service the search core talks to.
// Implementations own storage, permission evaluation and fault semantics; the
// core only relies on the contract below.
package backend

import (
	"context"

	"ipamhosts/pkg/models"
)

// ListOptions selects one page of hosts
type ListOptions struct {
	Requester       string // identity the permission check runs as
	AdditionalPerms string // 8-hex-digit mask every returned host must satisfy
	Limit           int
	Page            int
	ShowExpired     bool
	Count           bool // also compute the total number of matches
	OrderBy         string

	MAC        string
	IP         string
	Network    string
	Username   string
	NameSearch string
	Expiring   bool
}

// HostFields carries the editable attributes of a registration
type HostFields struct {
	OldMAC         string   `json:"old_mac,omitempty"`
	MAC            string   `json:"mac"`
	Hostname       string   `json:"hostname"`
	Domain         *int     `json:"domain,omitempty"`
	Description    string   `json:"description"`
	Expiration     *int     `json:"expiration,omitempty"` // expiration type id; nil keeps the current expiry
	IsDynamic      bool     `json:"is_dynamic"`
	Owners         []string `json:"owners"`
	Network        string   `json:"network,omitempty"`
	Address        string   `json:"address,omitempty"`
	AddToUserGroup bool     `json:"add_host_to_my_group"`
}

// DomainFilter narrows ListDomains
type DomainFilter struct {
	Requester       string
	AdditionalPerms string
	Contains        string // only domains that are a suffix of this name
	OrderBy         string
}

// NetworkFilter narrows ListNetworks
type NetworkFilter struct {
	Requester       string
	AdditionalPerms string
	OrderBy         string
}

// Backend is the remote host directory
type Backend interface {
	// ListHosts returns one page of hosts. total is -1 unless opts.Count is set.
	ListHosts(ctx context.Context, opts ListOptions) (total int, hosts []models.HostRecord, err error)
	// LookupPermissions returns the requester's mask for each MAC that has an entry
	LookupPermissions(ctx context.Context, requester string, macs []string) (map[string]string, error)

	RegisterHost(ctx context.Context, requester string, fields HostFields) (string, error)
	UpdateHost(ctx context.Context, requester string, fields HostFields) error
	DeleteHosts(ctx context.Context, requester string, macs []string) error
	RenewHosts(ctx context.Context, requester string, macs []string) error

	FindOwners(ctx context.Context, mac string) ([]string, error)
	IsDynamic(ctx context.Context, mac string) (bool, error)
	ListDomains(ctx context.Context, filter DomainFilter) ([]models.Domain, error)
	ListNetworks(ctx context.Context, filter NetworkFilter) ([]models.Network, error)
	ListDNSRecords(ctx context.Context, mac string) ([]models.DNSRecord, error)
	ListExpirationTypes(ctx context.Context) ([]models.ExpirationType, error)
}

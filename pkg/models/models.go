// ===== pkg/models/models.go =====
package models

import (
	"encoding/json"
	"time"
)

// NoEntryMask is the literal emitted for hosts that have no permission entry.
// It mirrors perms.NoEntry; models cannot import perms without a cycle.
const NoEntryMask = "00000000"

// Access is the derived "may the requester modify this host" flag. It has
// three states so that "no permission data" and "confirmed no access" stay
// distinguishable.
type Access int

const (
	AccessUnknown Access = iota
	AccessDenied
	AccessGranted
)

// MarshalJSON renders granted/denied as booleans and unknown as the sentinel mask.
func (a Access) MarshalJSON() ([]byte, error) {
	switch a {
	case AccessGranted:
		return []byte("true"), nil
	case AccessDenied:
		return []byte("false"), nil
	default:
		return json.Marshal(NoEntryMask)
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON
func (a *Access) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*a = AccessGranted
	case "false":
		*a = AccessDenied
	default:
		var mask string
		if err := json.Unmarshal(data, &mask); err != nil {
			return err
		}
		*a = AccessUnknown
	}
	return nil
}

// HostRecord represents a registered host as returned by the backend
type HostRecord struct {
	MAC            string    `json:"mac"`
	CleanMAC       string    `json:"clean_mac"`
	Hostname       string    `json:"hostname"`
	Description    string    `json:"description"`
	IP             string    `json:"ip,omitempty"`
	Network        string    `json:"network,omitempty"`
	Expires        time.Time `json:"expires"`
	ExpirationDays int       `json:"expiration_days"`
	IsDynamic      bool      `json:"is_dynamic"`
	Owners         []string  `json:"owners"`
	HasPermissions Access    `json:"has_permissions"`
}

// Pagination holds display paging metadata for one search result
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	NumHosts   int `json:"num_hosts"`
	NumPages   int `json:"num_pages"`
	FirstIndex int `json:"first_host"`
	LastIndex  int `json:"last_host"`
}

// Batch actions understood by the dispatcher
const (
	ActionDelete = "delete"
	ActionRenew  = "renew"
)

// BatchCommand is a bulk action over hosts selected from a rendered list
type BatchCommand struct {
	Action  string   `json:"action"`
	HostIDs []string `json:"hosts"`
	Origin  string   `json:"origin"`
}

// RequestContext carries the per-request identity and display preferences.
// It is built once by the web controller and never mutated afterwards.
type RequestContext struct {
	Username       string
	ShowExpired    bool
	ShowAll        bool
	Limit          int
	HasGlobalOwner bool
}

// Domain represents a DNS domain the requester may use
type Domain struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Network represents an address pool hosts can be placed in
type Network struct {
	Network     string `json:"network"`
	Name        string `json:"name"`
	Gateway     string `json:"gateway,omitempty"`
	Description string `json:"description,omitempty"`
}

// DNSRecord represents a DNS resource record attached to a host
type DNSRecord struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ExpirationType is a selectable registration lifetime
type ExpirationType struct {
	ID   int    `json:"id"`
	Days int    `json:"days"`
	Name string `json:"name"`
}

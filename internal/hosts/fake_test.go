package hosts

import (
	"context"

	"ipamhosts/internal/backend"
	"ipamhosts/pkg/models"
)

// fakeBackend records every call and replays canned responses
type fakeBackend struct {
	calls []string

	listOpts  []backend.ListOptions
	total     int
	hosts     []models.HostRecord
	listErr   error
	permMACs  [][]string
	perms     map[string]string
	permsErr  error
	batchIDs  [][]string
	batchErr  error
	owners    []string
	dynamic   bool
	domains   []models.Domain
	domFilter []backend.DomainFilter
	networks  []models.Network
	records   []models.DNSRecord
	expires   []models.ExpirationType
	fields    []backend.HostFields
	mutateErr error
	newMAC    string
}

func (f *fakeBackend) ListHosts(ctx context.Context, opts backend.ListOptions) (int, []models.HostRecord, error) {
	f.calls = append(f.calls, "list_hosts")
	f.listOpts = append(f.listOpts, opts)
	if f.listErr != nil {
		return -1, nil, f.listErr
	}
	out := make([]models.HostRecord, len(f.hosts))
	copy(out, f.hosts)
	return f.total, out, nil
}

func (f *fakeBackend) LookupPermissions(ctx context.Context, requester string, macs []string) (map[string]string, error) {
	f.calls = append(f.calls, "lookup_permissions")
	f.permMACs = append(f.permMACs, macs)
	return f.perms, f.permsErr
}

func (f *fakeBackend) RegisterHost(ctx context.Context, requester string, fields backend.HostFields) (string, error) {
	f.calls = append(f.calls, "register_host")
	f.fields = append(f.fields, fields)
	return f.newMAC, f.mutateErr
}

func (f *fakeBackend) UpdateHost(ctx context.Context, requester string, fields backend.HostFields) error {
	f.calls = append(f.calls, "update_host")
	f.fields = append(f.fields, fields)
	return f.mutateErr
}

func (f *fakeBackend) DeleteHosts(ctx context.Context, requester string, macs []string) error {
	f.calls = append(f.calls, "delete_hosts")
	f.batchIDs = append(f.batchIDs, macs)
	return f.batchErr
}

func (f *fakeBackend) RenewHosts(ctx context.Context, requester string, macs []string) error {
	f.calls = append(f.calls, "renew_hosts")
	f.batchIDs = append(f.batchIDs, macs)
	return f.batchErr
}

func (f *fakeBackend) FindOwners(ctx context.Context, mac string) ([]string, error) {
	f.calls = append(f.calls, "find_owners")
	return f.owners, nil
}

func (f *fakeBackend) IsDynamic(ctx context.Context, mac string) (bool, error) {
	f.calls = append(f.calls, "is_dynamic")
	return f.dynamic, nil
}

func (f *fakeBackend) ListDomains(ctx context.Context, filter backend.DomainFilter) ([]models.Domain, error) {
	f.calls = append(f.calls, "list_domains")
	f.domFilter = append(f.domFilter, filter)
	return f.domains, nil
}

func (f *fakeBackend) ListNetworks(ctx context.Context, filter backend.NetworkFilter) ([]models.Network, error) {
	f.calls = append(f.calls, "list_networks")
	return f.networks, nil
}

func (f *fakeBackend) ListDNSRecords(ctx context.Context, mac string) ([]models.DNSRecord, error) {
	f.calls = append(f.calls, "list_dns_records")
	return f.records, nil
}

func (f *fakeBackend) ListExpirationTypes(ctx context.Context) ([]models.ExpirationType, error) {
	f.calls = append(f.calls, "list_expiration_types")
	return f.expires, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"go.etcd.io/bbolt"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/pkg/models"
	"ipamhosts/pkg/utils"
)

// ListHosts implements backend.Backend
func (s *Store) ListHosts(ctx context.Context, opts backend.ListOptions) (int, []models.HostRecord, error) {
	required := perms.Mask(0)
	if opts.AdditionalPerms != "" {
		m, err := perms.Parse(opts.AdditionalPerms)
		if err != nil {
			return -1, nil, ipamerr.BackendFault("get_hosts", "InvalidArgument", err)
		}
		required = m
	}

	match, err := s.hostMatcher(opts)
	if err != nil {
		return -1, nil, err
	}
	order := parseOrder(opts.OrderBy)

	var matches []storedHost
	err = s.db.View(func(tx *bbolt.Tx) error {
		u, err := lookupUser(tx, "get_hosts", opts.Requester)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketHosts).ForEach(func(k, v []byte) error {
			var h storedHost
			if err := json.Unmarshal(v, &h); err != nil {
				return ipamerr.BackendFault("get_hosts", "Corrupt", err)
			}
			if !match(&h) {
				return nil
			}
			if required != 0 {
				if mask, _ := effectiveMask(tx, u, &h); !mask.Has(required) {
					return nil
				}
			}
			matches = append(matches, h)
			return nil
		})
	})
	if err != nil {
		return -1, nil, err
	}

	order.sort(matches)

	total := -1
	if opts.Count {
		total = len(matches)
	}

	start, end := 0, len(matches)
	if opts.Limit > 0 {
		start = opts.Page * opts.Limit
		if start > len(matches) {
			start = len(matches)
		}
		if end = start + opts.Limit; end > len(matches) {
			end = len(matches)
		}
	}

	records := make([]models.HostRecord, 0, end-start)
	for i := start; i < end; i++ {
		records = append(records, matches[i].record())
	}
	return total, records, nil
}

// hostMatcher compiles the filter part of opts into a predicate
func (s *Store) hostMatcher(opts backend.ListOptions) (func(*storedHost) bool, error) {
	now := s.now()

	var prefix netip.Prefix
	if opts.Network != "" {
		p, err := netip.ParsePrefix(opts.Network)
		if err != nil {
			return nil, ipamerr.BackendFault("get_hosts", "InvalidArgument", err)
		}
		prefix = p.Masked()
	}
	var addr netip.Addr
	if opts.IP != "" {
		a, err := netip.ParseAddr(opts.IP)
		if err != nil {
			return nil, ipamerr.BackendFault("get_hosts", "InvalidArgument", err)
		}
		addr = a
	}
	mac := ""
	if opts.MAC != "" {
		mac = utils.NormalizeMAC(opts.MAC)
	}
	pattern := strings.ToLower(opts.NameSearch)

	return func(h *storedHost) bool {
		expired := !h.Expires.IsZero() && h.Expires.Before(now)
		if expired && !opts.ShowExpired {
			return false
		}
		if opts.Expiring && (expired || h.Expires.IsZero() || h.Expires.After(now.Add(expiringWindow))) {
			return false
		}
		if mac != "" && h.MAC != mac {
			return false
		}
		if addr.IsValid() || prefix.IsValid() {
			hostAddr, err := netip.ParseAddr(h.IP)
			if err != nil {
				return false
			}
			if addr.IsValid() && hostAddr != addr {
				return false
			}
			if prefix.IsValid() && !prefix.Contains(hostAddr) {
				return false
			}
		}
		if opts.Username != "" && !h.ownedBy(opts.Username) {
			return false
		}
		if pattern != "" && !wildcard.Match(pattern, strings.ToLower(h.Hostname)) {
			return false
		}
		return true
	}, nil
}

// RegisterHost implements backend.Backend
func (s *Store) RegisterHost(ctx context.Context, requester string, fields backend.HostFields) (string, error) {
	var mac string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := lookupUser(tx, "register_host", requester); err != nil {
			return err
		}

		h, problems := s.buildHost(tx, fields, nil)
		if len(problems) > 0 {
			return ipamerr.ListFault("register_host", problems)
		}
		if len(h.Owners) == 0 {
			h.Owners = []string{requester}
		}
		if err := putHost(tx, h); err != nil {
			return err
		}
		mac = h.MAC
		return syncAddressRecord(tx, h)
	})
	return mac, err
}

// UpdateHost implements backend.Backend
func (s *Store) UpdateHost(ctx context.Context, requester string, fields backend.HostFields) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		u, err := lookupUser(tx, "change_registration", requester)
		if err != nil {
			return err
		}
		oldMAC := utils.NormalizeMAC(fields.OldMAC)
		current, err := getHost(tx, oldMAC)
		if err != nil {
			return err
		}
		if current == nil {
			return ipamerr.BackendFault("change_registration", ipamerr.FaultNotFound, fmt.Errorf("host %s not found", oldMAC))
		}
		if mask, _ := effectiveMask(tx, u, current); !mask.Has(perms.Modify) {
			return ipamerr.BackendFault("change_registration", ipamerr.FaultPermissionDenied,
				fmt.Errorf("%s may not modify %s", requester, oldMAC))
		}

		h, problems := s.buildHost(tx, fields, current)
		if len(problems) > 0 {
			return ipamerr.ListFault("change_registration", problems)
		}

		if h.MAC != current.MAC {
			if err := tx.Bucket(bucketHosts).Delete([]byte(current.MAC)); err != nil {
				return err
			}
			if err := deleteHostData(tx, current.MAC); err != nil {
				return err
			}
		}
		if err := putHost(tx, h); err != nil {
			return err
		}
		return syncAddressRecord(tx, h)
	})
}

// DeleteHosts implements backend.Backend. Either every host is deleted or none.
func (s *Store) DeleteHosts(ctx context.Context, requester string, macs []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		hosts, err := authorizedHosts(tx, "delete_hosts", requester, macs, perms.Delete)
		if err != nil {
			return err
		}
		for _, h := range hosts {
			if err := tx.Bucket(bucketHosts).Delete([]byte(h.MAC)); err != nil {
				return err
			}
			if err := deleteHostData(tx, h.MAC); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenewHosts implements backend.Backend. Each host is extended by its own
// expiration period counted from now.
func (s *Store) RenewHosts(ctx context.Context, requester string, macs []string) error {
	now := s.now()
	return s.db.Update(func(tx *bbolt.Tx) error {
		hosts, err := authorizedHosts(tx, "renew_hosts", requester, macs, perms.Modify)
		if err != nil {
			return err
		}
		for _, h := range hosts {
			h.Expires = now.Add(time.Duration(h.ExpirationDays) * 24 * time.Hour)
			if err := putHost(tx, h); err != nil {
				return err
			}
		}
		return nil
	})
}

// Import upserts registrations discovered outside the directory. Existing
// hosts keep their owners and expiry; only empty fields are filled in.
func (s *Store) Import(owner string, entries []backend.HostFields) (int, error) {
	imported := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := lookupUser(tx, "import", owner); err != nil {
			return err
		}
		for _, fields := range entries {
			mac := utils.NormalizeMAC(fields.MAC)
			if !utils.IsMAC(mac) {
				continue
			}
			current, err := getHost(tx, mac)
			if err != nil {
				return err
			}
			if current != nil {
				changed := false
				if current.Hostname == "" && fields.Hostname != "" {
					current.Hostname, changed = strings.ToLower(fields.Hostname), true
				}
				if current.IP == "" && fields.Address != "" {
					current.IP, changed = fields.Address, true
				}
				if current.Description == "" && fields.Description != "" {
					current.Description, changed = fields.Description, true
				}
				if !changed {
					continue
				}
				if err := putHost(tx, current); err != nil {
					return err
				}
				if err := syncAddressRecord(tx, current); err != nil {
					return err
				}
				imported++
				continue
			}

			days := defaultExpirations[0].Days
			h := &storedHost{
				MAC:            mac,
				Hostname:       strings.ToLower(fields.Hostname),
				Description:    fields.Description,
				IP:             fields.Address,
				Dynamic:        fields.IsDynamic,
				Owners:         []string{owner},
				ExpirationDays: days,
				Expires:        s.now().Add(time.Duration(days) * 24 * time.Hour),
			}
			if err := putHost(tx, h); err != nil {
				return err
			}
			if err := syncAddressRecord(tx, h); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	return imported, err
}

// buildHost validates fields and produces the host to store. current is nil
// for a new registration.
func (s *Store) buildHost(tx *bbolt.Tx, fields backend.HostFields, current *storedHost) (*storedHost, []string) {
	var problems []string
	h := &storedHost{}
	if current != nil {
		*h = *current
	}

	if fields.MAC != "" || current == nil {
		mac := utils.NormalizeMAC(fields.MAC)
		if !utils.IsMAC(mac) {
			problems = append(problems, fmt.Sprintf("Invalid MAC address: %q", fields.MAC))
		} else if current == nil || mac != current.MAC {
			if existing, _ := getHost(tx, mac); existing != nil {
				problems = append(problems, fmt.Sprintf("MAC address %s is already registered", mac))
			}
		}
		h.MAC = mac
	}

	if fields.Hostname != "" || current == nil {
		hostname := strings.ToLower(strings.TrimSpace(fields.Hostname))
		if fields.Domain != nil {
			d, err := getDomain(tx, *fields.Domain)
			if err != nil || d == nil {
				problems = append(problems, fmt.Sprintf("Unknown domain %d", *fields.Domain))
			} else if hostname != "" && !strings.HasSuffix(hostname, "."+d.Name) {
				hostname += "." + d.Name
			}
			h.Domain = *fields.Domain
		}
		if hostname == "" {
			problems = append(problems, "Hostname is required")
		} else if taken := hostnameOwner(tx, hostname); taken != "" && taken != h.MAC && (current == nil || taken != current.MAC) {
			problems = append(problems, fmt.Sprintf("Hostname %s is already in use", hostname))
		}
		h.Hostname = hostname
	}

	h.Description = fields.Description

	if fields.Expiration != nil {
		e, err := getExpiration(tx, *fields.Expiration)
		if err != nil || e == nil {
			problems = append(problems, fmt.Sprintf("Unknown expiration type %d", *fields.Expiration))
		} else {
			h.ExpirationDays = e.Days
			h.Expires = s.now().Add(time.Duration(e.Days) * 24 * time.Hour)
		}
	} else if current == nil {
		problems = append(problems, "Expiration is required")
	}

	if len(fields.Owners) > 0 {
		h.Owners = append([]string(nil), fields.Owners...)
	}

	h.Dynamic = fields.IsDynamic
	if h.Dynamic {
		h.IP, h.Network = "", ""
	} else if fields.Network != "" || fields.Address != "" {
		ip, network, problem := assignAddress(tx, fields.Network, fields.Address, h.MAC)
		if problem != "" {
			problems = append(problems, problem)
		}
		h.IP, h.Network = ip, network
	} else if current == nil {
		problems = append(problems, "A network or address is required for static hosts")
	}

	return h, problems
}

// authorizedHosts loads every mac and checks the requester holds required on each
func authorizedHosts(tx *bbolt.Tx, op, requester string, macs []string, required perms.Mask) ([]*storedHost, error) {
	u, err := lookupUser(tx, op, requester)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var hosts []*storedHost
	for _, raw := range macs {
		mac := utils.NormalizeMAC(raw)
		if seen[mac] {
			continue
		}
		seen[mac] = true

		h, err := getHost(tx, mac)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, ipamerr.BackendFault(op, ipamerr.FaultNotFound, fmt.Errorf("host %s not found", mac))
		}
		if mask, _ := effectiveMask(tx, u, h); !mask.Has(required) {
			return nil, ipamerr.BackendFault(op, ipamerr.FaultPermissionDenied,
				fmt.Errorf("%s may not change %s", requester, mac))
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// assignAddress validates a requested address or allocates the first free
// address of network
func assignAddress(tx *bbolt.Tx, network, address, mac string) (string, string, string) {
	var prefix netip.Prefix
	if network != "" {
		n, err := getNetwork(tx, network)
		if err != nil || n == nil {
			return "", "", fmt.Sprintf("Unknown network %s", network)
		}
		prefix, err = netip.ParsePrefix(n.Network)
		if err != nil {
			return "", "", fmt.Sprintf("Invalid network %s", network)
		}
		prefix = prefix.Masked()
	}

	used := usedAddresses(tx, mac)

	if address != "" {
		addr, err := netip.ParseAddr(address)
		if err != nil {
			return "", "", fmt.Sprintf("Invalid address %s", address)
		}
		if prefix.IsValid() && !prefix.Contains(addr) {
			return "", "", fmt.Sprintf("Address %s is not in %s", address, prefix)
		}
		if used[addr.String()] {
			return "", "", fmt.Sprintf("Address %s is already in use", address)
		}
		assigned := ""
		if prefix.IsValid() {
			assigned = prefix.String()
		}
		return addr.String(), assigned, ""
	}

	gateway := ""
	if n, _ := getNetwork(tx, network); n != nil {
		gateway = n.Gateway
	}
	// skip the network address itself
	for addr := prefix.Addr().Next(); addr.IsValid() && prefix.Contains(addr); addr = addr.Next() {
		if addr.Is4() && !prefix.Contains(addr.Next()) {
			break // broadcast
		}
		if addr.String() == gateway || used[addr.String()] {
			continue
		}
		return addr.String(), prefix.String(), ""
	}
	return "", "", fmt.Sprintf("Network %s has no free addresses", prefix)
}

func usedAddresses(tx *bbolt.Tx, exceptMAC string) map[string]bool {
	used := make(map[string]bool)
	tx.Bucket(bucketHosts).ForEach(func(k, v []byte) error {
		var h storedHost
		if json.Unmarshal(v, &h) == nil && h.IP != "" && h.MAC != exceptMAC {
			used[h.IP] = true
		}
		return nil
	})
	return used
}

func hostnameOwner(tx *bbolt.Tx, hostname string) string {
	owner := ""
	tx.Bucket(bucketHosts).ForEach(func(k, v []byte) error {
		var h storedHost
		if json.Unmarshal(v, &h) == nil && h.Hostname == hostname {
			owner = h.MAC
		}
		return nil
	})
	return owner
}

// deleteHostData removes the permission grants and DNS records of mac
func deleteHostData(tx *bbolt.Tx, mac string) error {
	if err := deleteMatching(tx.Bucket(bucketDNS), func(k []byte) bool {
		return strings.HasPrefix(string(k), mac+"\x00")
	}); err != nil {
		return err
	}
	return deleteMatching(tx.Bucket(bucketPerms), func(k []byte) bool {
		return strings.HasSuffix(string(k), "\x00"+mac)
	})
}

func deleteMatching(b *bbolt.Bucket, match func([]byte) bool) error {
	var keys [][]byte
	if err := b.ForEach(func(k, v []byte) error {
		if match(k) {
			keys = append(keys, append([]byte(nil), k...))
		}
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

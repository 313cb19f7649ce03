package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"ipamhosts/internal/backend"
	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/pkg/models"
	"ipamhosts/pkg/utils"
)

// LookupPermissions implements backend.Backend. Only hosts with an ownership
// or grant entry for the requester appear in the result.
func (s *Store) LookupPermissions(ctx context.Context, requester string, macs []string) (map[string]string, error) {
	result := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		u, err := lookupUser(tx, "find_permissions_for_hosts", requester)
		if err != nil {
			return err
		}
		for _, mac := range macs {
			h, err := getHost(tx, utils.NormalizeMAC(mac))
			if err != nil {
				return err
			}
			if h == nil {
				continue
			}
			if mask, ok := effectiveMask(tx, u, h); ok {
				result[mac] = mask.String()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindOwners implements backend.Backend
func (s *Store) FindOwners(ctx context.Context, mac string) ([]string, error) {
	h, err := s.host("find_owners_of_host", mac)
	if err != nil {
		return nil, err
	}
	return h.Owners, nil
}

// IsDynamic implements backend.Backend
func (s *Store) IsDynamic(ctx context.Context, mac string) (bool, error) {
	h, err := s.host("is_dynamic_host", mac)
	if err != nil {
		return false, err
	}
	return h.Dynamic, nil
}

func (s *Store) host(op, mac string) (*storedHost, error) {
	var h *storedHost
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		h, err = getHost(tx, utils.NormalizeMAC(mac))
		return err
	})
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ipamerr.BackendFault(op, ipamerr.FaultNotFound, fmt.Errorf("host %s not found", mac))
	}
	return h, nil
}

// ListDomains implements backend.Backend. With Contains set only domains the
// name falls under are returned, most specific first.
func (s *Store) ListDomains(ctx context.Context, filter backend.DomainFilter) ([]models.Domain, error) {
	contains := strings.ToLower(filter.Contains)
	domains := []models.Domain{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		if filter.Requester != "" {
			if _, err := lookupUser(tx, "get_domains", filter.Requester); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketDomains).ForEach(func(k, v []byte) error {
			var d models.Domain
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if contains != "" && contains != d.Name && !strings.HasSuffix(contains, "."+d.Name) {
				return nil
			}
			domains = append(domains, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	switch {
	case contains != "":
		sort.SliceStable(domains, func(i, j int) bool { return len(domains[i].Name) > len(domains[j].Name) })
	case filter.OrderBy == "name":
		sort.SliceStable(domains, func(i, j int) bool { return domains[i].Name < domains[j].Name })
	}
	return domains, nil
}

// ListNetworks implements backend.Backend
func (s *Store) ListNetworks(ctx context.Context, filter backend.NetworkFilter) ([]models.Network, error) {
	networks := []models.Network{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		if filter.Requester != "" {
			if _, err := lookupUser(tx, "get_networks", filter.Requester); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketNetworks).ForEach(func(k, v []byte) error {
			var n models.Network
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			networks = append(networks, n)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if filter.OrderBy == "name" {
		sort.SliceStable(networks, func(i, j int) bool { return networks[i].Name < networks[j].Name })
	} else {
		sort.SliceStable(networks, func(i, j int) bool {
			return compareAddr(networks[i].Network, networks[j].Network) < 0
		})
	}
	return networks, nil
}

// ListDNSRecords implements backend.Backend
func (s *Store) ListDNSRecords(ctx context.Context, mac string) ([]models.DNSRecord, error) {
	prefix := []byte(utils.NormalizeMAC(mac) + "\x00")
	records := []models.DNSRecord{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketDNS).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var r models.DNSRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

// ListExpirationTypes implements backend.Backend
func (s *Store) ListExpirationTypes(ctx context.Context) ([]models.ExpirationType, error) {
	var types []models.ExpirationType
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExpirations).ForEach(func(k, v []byte) error {
			var e models.ExpirationType
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			types = append(types, e)
			return nil
		})
	})
	return types, err
}

// syncAddressRecord keeps the A record of h in line with its address
func syncAddressRecord(tx *bbolt.Tx, h *storedHost) error {
	b := tx.Bucket(bucketDNS)
	key := []byte(h.MAC + "\x00A")
	if h.IP == "" || h.Hostname == "" {
		return b.Delete(key)
	}
	rtype := "A"
	if addr, err := netip.ParseAddr(h.IP); err == nil && addr.Is6() {
		rtype = "AAAA"
	}
	return putJSON(b, key, models.DNSRecord{Name: h.Hostname, Type: rtype, Content: h.IP})
}

func getDomain(tx *bbolt.Tx, id int) (*models.Domain, error) {
	data := tx.Bucket(bucketDomains).Get(itob(id))
	if data == nil {
		return nil, nil
	}
	var d models.Domain
	return &d, json.Unmarshal(data, &d)
}

func getNetwork(tx *bbolt.Tx, network string) (*models.Network, error) {
	data := tx.Bucket(bucketNetworks).Get([]byte(network))
	if data == nil {
		return nil, nil
	}
	var n models.Network
	return &n, json.Unmarshal(data, &n)
}

func getExpiration(tx *bbolt.Tx, id int) (*models.ExpirationType, error) {
	data := tx.Bucket(bucketExpirations).Get(itob(id))
	if data == nil {
		return nil, nil
	}
	var e models.ExpirationType
	return &e, json.Unmarshal(data, &e)
}

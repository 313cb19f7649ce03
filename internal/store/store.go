// Package store is a bbolt-backed implementation of the host directory
// backend. It is the reference backend used by the server and the CLI.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	ipamerr "ipamhosts/internal/errors"
	"ipamhosts/internal/perms"
	"ipamhosts/pkg/models"
)

var (
	bucketHosts       = []byte("hosts")
	bucketPerms       = []byte("perms")
	bucketUsers       = []byte("users")
	bucketDomains     = []byte("domains")
	bucketNetworks    = []byte("networks")
	bucketDNS         = []byte("dns_records")
	bucketExpirations = []byte("expirations")
)

// expiringWindow is how far ahead a host counts as "expiring"
const expiringWindow = 7 * 24 * time.Hour

var defaultExpirations = []models.ExpirationType{
	{ID: 1, Days: 365, Name: "1 year"},
	{ID: 2, Days: 180, Name: "6 months"},
	{ID: 3, Days: 30, Name: "30 days"},
	{ID: 4, Days: 7, Name: "1 week"},
}

// User is a recognized requester
type User struct {
	Name        string `json:"name"`
	GlobalOwner bool   `json:"global_owner"`
}

// storedHost is the persisted form of a registration
type storedHost struct {
	MAC            string    `json:"mac"`
	Hostname       string    `json:"hostname"`
	Domain         int       `json:"domain,omitempty"`
	Description    string    `json:"description"`
	IP             string    `json:"ip,omitempty"`
	Network        string    `json:"network,omitempty"`
	Expires        time.Time `json:"expires"`
	ExpirationDays int       `json:"expiration_days"`
	Dynamic        bool      `json:"dynamic"`
	Owners         []string  `json:"owners"`
}

func (h *storedHost) record() models.HostRecord {
	owners := make([]string, len(h.Owners))
	copy(owners, h.Owners)
	return models.HostRecord{
		MAC:            h.MAC,
		Hostname:       h.Hostname,
		Description:    h.Description,
		IP:             h.IP,
		Network:        h.Network,
		Expires:        h.Expires,
		ExpirationDays: h.ExpirationDays,
		IsDynamic:      h.Dynamic,
		Owners:         owners,
	}
}

func (h *storedHost) ownedBy(user string) bool {
	for _, o := range h.Owners {
		if o == user {
			return true
		}
	}
	return false
}

// Store is the bbolt host directory
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open host database %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketHosts, bucketPerms, bucketUsers, bucketDomains, bucketNetworks, bucketDNS, bucketExpirations} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		expirations := tx.Bucket(bucketExpirations)
		if k, _ := expirations.Cursor().First(); k != nil {
			return nil
		}
		for _, e := range defaultExpirations {
			if err := putJSON(expirations, itob(e.ID), e); err != nil {
				return err
			}
		}
		log.Info().Int("count", len(defaultExpirations)).Msg("Seeded default expiration types")
		return nil
	})
}

// AddUser creates or replaces a user
func (s *Store) AddUser(u User) error {
	if strings.TrimSpace(u.Name) == "" {
		return ipamerr.InvalidArgument("add_user", "username is required")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketUsers), []byte(u.Name), u)
	})
}

// Users returns every recognized user
func (s *Store) Users() ([]User, error) {
	var users []User
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			var u User
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		})
	})
	return users, err
}

// IsGlobalOwner reports whether name is a known user with global ownership
func (s *Store) IsGlobalOwner(name string) (bool, error) {
	var global bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(name))
		if data == nil {
			return nil
		}
		var u User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		global = u.GlobalOwner
		return nil
	})
	return global, err
}

// Grant stores an explicit permission mask for user on the host mac
func (s *Store) Grant(user, mac string, mask perms.Mask) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketHosts).Get([]byte(mac)) == nil {
			return ipamerr.BackendFault("grant", ipamerr.FaultNotFound, fmt.Errorf("host %s not found", mac))
		}
		return tx.Bucket(bucketPerms).Put(permKey(user, mac), []byte(mask.String()))
	})
}

// AddNetwork creates or replaces a network
func (s *Store) AddNetwork(n models.Network) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketNetworks), []byte(n.Network), n)
	})
}

// AddDomain creates a domain and returns its id
func (s *Store) AddDomain(name string) (int, error) {
	var id int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDomains)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int(seq)
		return putJSON(b, itob(id), models.Domain{ID: id, Name: strings.ToLower(name)})
	})
	return id, err
}

// lookupUser loads a user, failing with NoAccess when it is unknown
func lookupUser(tx *bbolt.Tx, op, name string) (*User, error) {
	data := tx.Bucket(bucketUsers).Get([]byte(name))
	if data == nil {
		return nil, ipamerr.NoAccess(op, name)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, ipamerr.BackendFault(op, "Corrupt", err)
	}
	return &u, nil
}

// effectiveMask combines global ownership, host ownership and explicit grants.
// ok is false when none of them apply.
func effectiveMask(tx *bbolt.Tx, u *User, h *storedHost) (perms.Mask, bool) {
	if u.GlobalOwner {
		return perms.Deity, true
	}
	mask, ok := perms.Mask(0), false
	if h.ownedBy(u.Name) {
		mask, ok = perms.Owner, true
	}
	if raw := tx.Bucket(bucketPerms).Get(permKey(u.Name, h.MAC)); raw != nil {
		if granted, err := perms.Parse(string(raw)); err == nil {
			mask, ok = mask|granted, true
		}
	}
	return mask, ok
}

func getHost(tx *bbolt.Tx, mac string) (*storedHost, error) {
	data := tx.Bucket(bucketHosts).Get([]byte(mac))
	if data == nil {
		return nil, nil
	}
	var h storedHost
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func putHost(tx *bbolt.Tx, h *storedHost) error {
	return putJSON(tx.Bucket(bucketHosts), []byte(h.MAC), h)
}

func putJSON(b *bbolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func permKey(user, mac string) []byte {
	return []byte(user + "\x00" + mac)
}

func itob(v int) []byte {
	return []byte(fmt.Sprintf("%08d", v))
}

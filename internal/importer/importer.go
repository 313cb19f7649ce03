// Package importer loads registrations discovered in dnsmasq configuration
// and lease files into the host directory.
package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"ipamhosts/internal/backend"
	"ipamhosts/internal/metrics"
	"ipamhosts/pkg/utils"
)

// Source names used for logging and metrics
const (
	SourceStatic = "static"
	SourceLeases = "leases"
)

// Sink receives parsed registrations
type Sink interface {
	Import(owner string, entries []backend.HostFields) (int, error)
}

// Files lists the inputs of an import run. Empty paths are skipped.
type Files struct {
	Static string
	Leases string
	Hosts  string
}

// VendorLookup resolves the vendor of a MAC address
type VendorLookup interface {
	Lookup(mac string) string
}

// Importer reads the configured files and upserts their hosts
type Importer struct {
	sink    Sink
	owner   string
	files   Files
	vendors VendorLookup
}

// Option configures an Importer
type Option func(*Importer)

// WithVendors describes imported hosts by their MAC vendor
func WithVendors(v VendorLookup) Option {
	return func(im *Importer) {
		im.vendors = v
	}
}

// New creates an importer that registers hosts under owner
func New(sink Sink, owner string, files Files, opts ...Option) *Importer {
	im := &Importer{sink: sink, owner: owner, files: files}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Files returns the paths this importer reads
func (im *Importer) Files() Files {
	return im.files
}

// Run performs one import pass and returns the number of hosts created or
// updated per source
func (im *Importer) Run() (map[string]int, error) {
	names, err := im.hostNames()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)

	static, err := readOptional(im.files.Static)
	if err != nil {
		return counts, err
	}
	if static != "" {
		entries := fillNames(ParseStatic(static), names)
		if err := im.load(SourceStatic, entries, counts); err != nil {
			return counts, err
		}
	}

	leases, err := readOptional(im.files.Leases)
	if err != nil {
		return counts, err
	}
	if leases != "" {
		entries := fillNames(leaseFields(ParseLeases(leases)), names)
		if err := im.load(SourceLeases, entries, counts); err != nil {
			return counts, err
		}
	}

	return counts, nil
}

func (im *Importer) load(source string, entries []backend.HostFields, counts map[string]int) error {
	if im.vendors != nil {
		for i := range entries {
			if entries[i].Description != "" {
				continue
			}
			if vendor := im.vendors.Lookup(entries[i].MAC); vendor != "" {
				entries[i].Description = "Vendor: " + vendor
			}
		}
	}

	n, err := im.sink.Import(im.owner, entries)
	if err != nil {
		return fmt.Errorf("import %s entries: %w", source, err)
	}
	counts[source] = n
	metrics.RecordImport(source, n)
	log.Info().
		Str("source", source).
		Int("parsed", len(entries)).
		Int("imported", n).
		Msg("Imported hosts")
	return nil
}

func (im *Importer) hostNames() (map[string]string, error) {
	content, err := readOptional(im.files.Hosts)
	if err != nil {
		return nil, err
	}
	return ParseHostsFile(content), nil
}

// leaseFields converts leases to registrations. Leased addresses are dynamic.
func leaseFields(leases []Lease) []backend.HostFields {
	entries := make([]backend.HostFields, 0, len(leases))
	for _, l := range leases {
		entries = append(entries, backend.HostFields{
			MAC:       l.MAC,
			Hostname:  l.Name,
			Address:   l.IP,
			IsDynamic: true,
		})
	}
	return entries
}

// fillNames names unnamed entries from the hosts file by address
func fillNames(entries []backend.HostFields, names map[string]string) []backend.HostFields {
	for i := range entries {
		if entries[i].Hostname != "" || entries[i].Address == "" {
			continue
		}
		if name, ok := names[entries[i].Address]; ok {
			entries[i].Hostname = name
		}
	}
	return entries
}

// readOptional reads path, treating an unset or missing file as empty
func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("file", path).Msg("Import file does not exist")
		return "", nil
	}
	if err != nil {
		return "", utils.WrapError(err, "failed to read "+path)
	}
	return string(data), nil
}

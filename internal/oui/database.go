// Package oui resolves the vendor of a MAC address from a macaddress.io style
// database (one JSON object per line).
package oui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PrivateVendor is reported for locally administered addresses
const PrivateVendor = "Local/Privacy MAC"

// Entry is one line of the vendor database
type Entry struct {
	OUI     string `json:"oui"`
	Private bool   `json:"isPrivate"`
	Company string `json:"companyName"`
	Address string `json:"companyAddress"`
}

// Database handles MAC address OUI lookups
type Database struct {
	vendors map[string]string
	// prefix lengths present, longest first
	lengths []int
}

// Open loads the database file
func Open(filename string) (*Database, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open MAC database: %w", err)
	}
	defer file.Close()

	db, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load MAC database %s: %w", filename, err)
	}
	log.Info().Int("entries", len(db.vendors)).Str("file", filename).Msg("Loaded MAC vendor database")
	return db, nil
}

// Load reads database entries from r. Lines that are not valid entries are skipped.
func Load(r io.Reader) (*Database, error) {
	db := &Database{vendors: make(map[string]string)}
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil || entry.OUI == "" {
			continue
		}

		prefix := strings.ToLower(entry.OUI)
		db.vendors[prefix] = entry.Company
		if !seen[len(prefix)] {
			seen[len(prefix)] = true
			db.lengths = append(db.lengths, len(prefix))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i := 1; i < len(db.lengths); i++ {
		for j := i; j > 0 && db.lengths[j] > db.lengths[j-1]; j-- {
			db.lengths[j], db.lengths[j-1] = db.lengths[j-1], db.lengths[j]
		}
	}
	return db, nil
}

// Lookup returns the vendor of mac (colon form), or "" when unknown
func (db *Database) Lookup(mac string) string {
	mac = strings.ToLower(mac)

	for _, n := range db.lengths {
		if n > len(mac) {
			continue
		}
		if vendor, ok := db.vendors[mac[:n]]; ok {
			return vendor
		}
	}

	// second hex digit with the locally administered bit set
	if len(mac) > 1 && strings.ContainsRune("26ae", rune(mac[1])) {
		return PrivateVendor
	}
	return ""
}

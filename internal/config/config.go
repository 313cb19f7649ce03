package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// Config holds all application configuration
type Config struct {
	// File paths
	DBFile     string
	StaticFile string
	HostsFile  string
	LeasesFile string
	MACDBFile  string

	// Network settings
	HTTPListen     string
	IdentityHeader string

	// Directory behaviour
	ImportOwner    string
	HostsLimit     int
	AllowDynamicIP bool
	GlobalOwners   []string

	// Logging
	LogLevel  string
	LogFormat string

	// Feature flags
	Watch bool
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DBFile:         "/var/lib/ipamhosts/hosts.db",
		StaticFile:     "/etc/dnsmasq.d/static.conf",
		HostsFile:      "/var/lib/misc/hosts",
		LeasesFile:     "/var/lib/misc/dnsmasq.leases",
		HTTPListen:     "127.0.0.1:8067",
		IdentityHeader: "X-Remote-User",
		ImportOwner:    "dnsmasq",
		HostsLimit:     50,
		AllowDynamicIP: true,
		LogLevel:       "info",
		LogFormat:      "auto",
		Watch:          false,
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		log.Debug().Err(err).Str("file", filename).Msg("Skipping config file")
		return err
	}

	section := cfg.Section("")
	c.DBFile = section.Key("dbfile").MustString(c.DBFile)
	c.StaticFile = section.Key("staticfile").MustString(c.StaticFile)
	c.HostsFile = section.Key("hostsfile").MustString(c.HostsFile)
	c.LeasesFile = section.Key("leasesfile").MustString(c.LeasesFile)
	c.MACDBFile = section.Key("macdbfile").MustString(c.MACDBFile)
	c.HTTPListen = section.Key("httplisten").MustString(c.HTTPListen)
	c.IdentityHeader = section.Key("identityheader").MustString(c.IdentityHeader)
	c.ImportOwner = section.Key("importowner").MustString(c.ImportOwner)
	c.HostsLimit = section.Key("hostslimit").MustInt(c.HostsLimit)
	c.AllowDynamicIP = section.Key("allowdynamicip").MustBool(c.AllowDynamicIP)
	if section.HasKey("globalowners") {
		c.GlobalOwners = splitList(section.Key("globalowners").String())
	}
	c.Watch = section.Key("watch").MustBool(c.Watch)

	logging := cfg.Section("logging")
	c.LogLevel = logging.Key("level").MustString(c.LogLevel)
	c.LogFormat = logging.Key("format").MustString(c.LogFormat)

	return nil
}

// LoadFromEnv loads configuration from environment variables. Values in the
// process environment win over those read from the dotenv file.
func (c *Config) LoadFromEnv(dotenv map[string]string) {
	getenv := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if v := getenv("DBFILE"); v != "" {
		c.DBFile = v
	}
	if v := getenv("STATICFILE"); v != "" {
		c.StaticFile = v
	}
	if v := getenv("HOSTSFILE"); v != "" {
		c.HostsFile = v
	}
	if v := getenv("LEASESFILE"); v != "" {
		c.LeasesFile = v
	}
	if v := getenv("MACDBFILE"); v != "" {
		c.MACDBFile = v
	}
	if v := getenv("HTTPLISTEN"); v != "" {
		c.HTTPListen = v
	}
	if v := getenv("IDENTITYHEADER"); v != "" {
		c.IdentityHeader = v
	}
	if v := getenv("IMPORTOWNER"); v != "" {
		c.ImportOwner = v
	}
	if v := getenv("HOSTSLIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.HostsLimit = n
		}
	}
	if v := getenv("ALLOWDYNAMICIP"); v != "" {
		c.AllowDynamicIP, _ = strconv.ParseBool(v)
	}
	if v := getenv("GLOBALOWNERS"); v != "" {
		c.GlobalOwners = splitList(v)
	}
	if v := getenv("LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOGFORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("WATCH"); v != "" {
		c.Watch, _ = strconv.ParseBool(v)
	}
}

// IsGlobalOwner reports whether user is listed in GlobalOwners
func (c *Config) IsGlobalOwner(user string) bool {
	for _, owner := range c.GlobalOwners {
		if owner == user {
			return true
		}
	}
	return false
}

// readDotenv reads the .env file next to the config file, if present
func readDotenv(configFile string) map[string]string {
	path := filepath.Join(filepath.Dir(configFile), ".env")
	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("Failed to read env file")
		}
		return nil
	}
	return values
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// New creates a new configuration instance
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file first
	cfg.LoadFromFile(configFile)

	// Override with .env and environment variables
	cfg.LoadFromEnv(readDotenv(configFile))

	return cfg, nil
}

package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ipamhosts/internal/config"
	"ipamhosts/internal/importer"
	"ipamhosts/internal/logging"
	"ipamhosts/internal/oui"
	"ipamhosts/internal/store"
)

const defaultConfigFile = "ipamhosts.ini"

// Set via ldflags
var (
	sha1ver   = "dev"
	buildTime string
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ipamhosts",
	Short: "Host registration directory with permission-scoped search",
	Long: `ipamhosts keeps a directory of registered network hosts and lets users
search it, renew or delete their hosts in bulk and register new ones.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.New(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logging.Init(logging.Config{
			Format:    cfg.LogFormat,
			Level:     cfg.LogLevel,
			Component: "ipamhosts",
		})
		log.Debug().Str("build", sha1ver).Str("time", buildTime).Str("config", cfgFile).Msg("Configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file (INI)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore opens the configured host database
func openStore() (*store.Store, error) {
	return store.Open(cfg.DBFile)
}

// ensureUser creates name unless it already exists
func ensureUser(st *store.Store, name string) error {
	users, err := st.Users()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Name == name {
			return nil
		}
	}
	log.Info().Str("user", name).Msg("Creating user")
	return st.AddUser(store.User{Name: name})
}

// newImporter builds the importer for the configured files. A vendor
// database that fails to load only disables vendor descriptions.
func newImporter(st *store.Store) *importer.Importer {
	var opts []importer.Option
	if cfg.MACDBFile != "" {
		db, err := oui.Open(cfg.MACDBFile)
		if err != nil {
			log.Warn().Err(err).Msg("MAC vendor lookups disabled")
		} else {
			opts = append(opts, importer.WithVendors(db))
		}
	}
	return importer.New(st, cfg.ImportOwner, importer.Files{
		Static: cfg.StaticFile,
		Leases: cfg.LeasesFile,
		Hosts:  cfg.HostsFile,
	}, opts...)
}

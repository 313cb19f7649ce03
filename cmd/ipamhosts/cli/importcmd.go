package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipamhosts/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hosts from the dnsmasq static, leases and hosts files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := ensureUser(st, cfg.ImportOwner); err != nil {
			return err
		}

		counts, err := newImporter(st).Run()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "static: %d, leases: %d\n",
			counts[importer.SourceStatic], counts[importer.SourceLeases])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipamhosts/pkg/models"
	"ipamhosts/pkg/utils"
)

var (
	networkName        string
	networkGateway     string
	networkDescription string
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks hosts can be registered on",
}

var networkAddCmd = &cobra.Command{
	Use:   "add <cidr>",
	Short: "Create or update a network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !utils.IsCIDR(args[0]) {
			return fmt.Errorf("invalid network %q", args[0])
		}
		if networkGateway != "" && !utils.IsIP(networkGateway) {
			return fmt.Errorf("invalid gateway %q", networkGateway)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.AddNetwork(models.Network{
			Network:     args[0],
			Name:        networkName,
			Gateway:     networkGateway,
			Description: networkDescription,
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "network %s saved\n", args[0])
		return nil
	},
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage DNS domains",
}

var domainAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := st.AddDomain(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "domain %s saved with id %d\n", args[0], id)
		return nil
	},
}

func init() {
	networkAddCmd.Flags().StringVar(&networkName, "name", "", "display name")
	networkAddCmd.Flags().StringVar(&networkGateway, "gateway", "", "gateway address, never assigned to hosts")
	networkAddCmd.Flags().StringVar(&networkDescription, "description", "", "description")
	networkCmd.AddCommand(networkAddCmd)
	domainCmd.AddCommand(domainAddCmd)
	rootCmd.AddCommand(networkCmd, domainCmd)
}

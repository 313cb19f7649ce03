package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipamhosts/internal/store"
)

var userGlobalOwner bool

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage directory users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or update a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.AddUser(store.User{Name: args[0], GlobalOwner: userGlobalOwner}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %s saved\n", args[0])
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.Users()
		if err != nil {
			return err
		}
		for _, u := range users {
			role := "user"
			if u.GlobalOwner {
				role = "global owner"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Name, role)
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().BoolVar(&userGlobalOwner, "global", false, "grant global ownership")
	userCmd.AddCommand(userAddCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"ipamhosts/internal/hosts"
	"ipamhosts/internal/search"
	"ipamhosts/pkg/models"
)

var (
	searchUser        string
	searchShowAll     bool
	searchShowExpired bool
	searchExpiring    bool
	searchPage        int
	searchLimit       int
	searchOrderBy     string
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the host directory as a user",
	Example: `  ipamhosts search --user alice printer net:10.0.0.0/24
  ipamhosts search --user alice --expiring`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchUser, "user", "u", "", "search as this user (required)")
	searchCmd.Flags().BoolVar(&searchShowAll, "all", false, "include hosts the user does not own")
	searchCmd.Flags().BoolVar(&searchShowExpired, "expired", false, "include expired hosts")
	searchCmd.Flags().BoolVar(&searchExpiring, "expiring", false, "only hosts expiring soon")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "result page, starting at 0")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "hosts per page (default from config)")
	searchCmd.Flags().StringVar(&searchOrderBy, "order-by", "", "ordering, e.g. \"hostname\" or \"expires desc\"")
	searchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	global, err := st.IsGlobalOwner(searchUser)
	if err != nil {
		return err
	}
	limit := searchLimit
	if limit <= 0 {
		limit = cfg.HostsLimit
	}
	rc := models.RequestContext{
		Username:       searchUser,
		ShowExpired:    searchShowExpired,
		ShowAll:        searchShowAll,
		Limit:          limit,
		HasGlobalOwner: global || cfg.IsGlobalOwner(searchUser),
	}

	svc := hosts.NewService(st)
	req := search.Request{
		Query:    strings.Join(args, " "),
		Expiring: searchExpiring,
		OrderBy:  searchOrderBy,
	}

	outcome, err := svc.Search(context.Background(), rc, req, false)
	if err != nil {
		return err
	}

	// A text query answers with its canonical location; follow it once.
	if outcome.Redirect != "" {
		if outcome.Redirect == search.DefaultListing {
			return fmt.Errorf("nothing to search for")
		}
		u, err := url.Parse(outcome.Redirect)
		if err != nil {
			return err
		}
		req, _, err = search.RequestFromQuery(u.Query())
		if err != nil {
			return err
		}
		req.Page = searchPage
		req.OrderBy = searchOrderBy
		if outcome, err = svc.Search(context.Background(), rc, req, false); err != nil {
			return err
		}
		if outcome.Redirect != "" {
			return fmt.Errorf("unexpected redirect to %s", outcome.Redirect)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Result)
}

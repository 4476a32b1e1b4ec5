package commands

import (
	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

type listFlags struct {
	page   int
	limit  int
	search string
}

func addListFlags(cmd *cobra.Command, f *listFlags) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "Items per page")
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "Search text")
}

// query builds the list query; filters with empty values are dropped
func (f *listFlags) query(filters map[string]string) client.ListQuery {
	q := client.ListQuery{Page: f.page, Limit: f.limit, Filters: map[string]string{}}
	if f.search != "" {
		q.Filters["q"] = f.search
	}
	for k, v := range filters {
		if v != "" {
			q.Filters[k] = v
		}
	}
	return q
}

func printPagination(rt *Runtime, p client.Pagination) {
	if p.Pages > 1 {
		rt.printf("\nPage %d of %d (%d total)\n", p.Page, p.Pages, p.Total)
	}
}

// stringFlag returns a pointer to value when the flag was set on the command line
func stringFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func boolFlag(cmd *cobra.Command, name string, value bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func intFlag(cmd *cobra.Command, name string, value int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

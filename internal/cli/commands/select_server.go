package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/config"
	"github.com/wanderlust-dev/wanderlust/internal/cli/serverselect"
	"github.com/wanderlust-dev/wanderlust/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ wanderlust select-server                            # Interactive selection
  $ wanderlust select-server https://api.wanderlust.com  # Select by URL
  $ wanderlust select-server production                 # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(rt, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(rt *Runtime, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'wanderlust init' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = serverselect.GetServerByURLOrAlias(cfg, urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	rt.printf("Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}

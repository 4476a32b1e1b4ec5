package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a Wanderlust API server to ./wanderlust.json",
		Example: `  $ wanderlust init https://api.wanderlust.com
  $ wanderlust init http://localhost:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rt, args[0])
		},
	}
}

func runInit(rt *Runtime, serverURL string) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		rt.println("Found existing wanderlust.json")
	} else {
		cfg = &config.Config{Servers: []config.Server{}}
		isNewConfig = true
	}

	server, added, err := cfg.AddServer(serverURL)
	if err != nil {
		return err
	}

	if !added {
		rt.printf("Server %s already exists in wanderlust.json (%s)\n", server.URL, server.Alias)
	} else {
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			rt.printf("✓ Created ./wanderlust.json with server %s (%s)\n", server.URL, server.Alias)
		} else {
			rt.printf("✓ Added server %s (%s) to ./wanderlust.json\n", server.URL, server.Alias)
		}
	}

	rt.println("\nNext steps:")
	rt.println("  1. Run 'wanderlust register' to create an account, or")
	rt.println("  2. Run 'wanderlust login' to sign in")

	return nil
}

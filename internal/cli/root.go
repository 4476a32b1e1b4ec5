package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around rt
func NewRootCmd(rt *commands.Runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wanderlust",
		Short: "Wanderlust - travel agency site from the terminal",
		Long: `Wanderlust CLI - Browse packages, send enquiries and run the admin area
of a Wanderlust travel site.

Servers are listed in ./wanderlust.json (see 'wanderlust init'). Sessions are
stored per server under ~/.config/wanderlust, or in the OS keyring with --keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.ServerAlias, "server", "", "Server alias from wanderlust.json (defaults to the selected server)")
	flags.BoolVar(&rt.UseKeyring, "keyring", os.Getenv("WANDERLUST_KEYRING") == "1", "Keep tokens in the OS keyring")
	flags.BoolVarP(&rt.Verbose, "verbose", "v", false, "Log API and session diagnostics to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(rt.Out, "wanderlust version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd(rt))
	rootCmd.AddCommand(commands.NewSelectServerCmd(rt))
	rootCmd.AddCommand(commands.NewRegisterCmd(rt))
	rootCmd.AddCommand(commands.NewLoginCmd(rt))
	rootCmd.AddCommand(commands.NewLogoutCmd(rt))
	rootCmd.AddCommand(commands.NewWhoamiCmd(rt))
	rootCmd.AddCommand(commands.NewProfileCmd(rt))
	rootCmd.AddCommand(commands.NewPasswordCmd(rt))
	rootCmd.AddCommand(commands.NewRefreshCmd(rt))
	rootCmd.AddCommand(commands.NewContactCmd(rt))
	rootCmd.AddCommand(commands.NewGalleryCmd(rt))
	rootCmd.AddCommand(commands.NewMessagesCmd(rt))
	rootCmd.AddCommand(commands.NewTourTypesCmd(rt))
	rootCmd.AddCommand(commands.NewPackagesCmd(rt))
	rootCmd.AddCommand(commands.NewSettingsCmd(rt))
	rootCmd.AddCommand(commands.NewAdminCmd(rt))
	rootCmd.AddCommand(commands.NewDoctorCmd(rt))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(commands.NewRuntime()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

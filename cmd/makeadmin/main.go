package main

import (
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/admintool"
	"github.com/wanderlust-dev/wanderlust/internal/config"
	"github.com/wanderlust-dev/wanderlust/internal/database"
	"github.com/wanderlust-dev/wanderlust/internal/logger"
	"github.com/wanderlust-dev/wanderlust/internal/seed"
)

// makeadmin talks to the database directly. It is for operators with access
// to DATABASE_URL, not for site users.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, "console")
	return database.Open(cfg.Database, logger.GetLogger())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "makeadmin",
		Short:         "Manage Wanderlust admin accounts and seed catalogue data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newListCmd())
	root.AddCommand(newSeedAdminCmd())
	root.AddCommand(newPromoteCmd())
	root.AddCommand(newDemoteCmd())
	root.AddCommand(newSeedCmd())

	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List accounts, admins first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			users, err := admintool.ListUsers(db)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tSIGN-IN")
			fmt.Fprintln(w, "─────\t────\t────\t───────")
			for _, u := range users {
				signIn := "password"
				if u.ClerkID != nil {
					signIn = "clerk"
					if u.PasswordHash != "" {
						signIn = "password+clerk"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Role, signIn)
			}
			return w.Flush()
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first admin account (or reset an existing admin's password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if password == "" && term.IsTerminal(int(syscall.Stdin)) {
				fmt.Print("Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
			}
			if password == "" {
				password = admintool.DefaultAdminPassword
				fmt.Println("⚠ No password given, using the default. Change it after signing in.")
			}

			db, err := openDB()
			if err != nil {
				return err
			}

			user, created, err := admintool.SeedAdmin(db, name, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("✓ Created admin %s\n", user.Email)
			} else {
				fmt.Printf("✓ %s is an admin, password reset\n", user.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", admintool.DefaultAdminName, "Display name")
	cmd.Flags().StringVar(&email, "email", admintool.DefaultAdminEmail, "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ADMIN_PASSWORD, will prompt if not provided)")

	return cmd
}

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>...",
		Short: "Grant the admin role to existing accounts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			results, err := admintool.Promote(db, args...)
			if err != nil {
				return err
			}
			for _, r := range results {
				switch r.Status {
				case "promoted":
					fmt.Printf("✓ %s is now an admin\n", r.Email)
				case "already-admin":
					fmt.Printf("  %s is already an admin\n", r.Email)
				default:
					fmt.Printf("✗ %s not found\n", r.Email)
				}
			}
			return nil
		},
	}
}

func newDemoteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "demote <email>",
		Short: "Return an admin to the user role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Remove admin access from %s", args[0]),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Println("Cancelled")
					return nil
				}
			}

			db, err := openDB()
			if err != nil {
				return err
			}

			user, err := admintool.Demote(db, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s is now %s\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load site settings, tour types and packages from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := seed.Load(file)
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}

			res, err := seed.Apply(db, data)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Seeded %s\n", file)
			if res.SettingsSaved {
				fmt.Println("  site settings saved")
			}
			fmt.Printf("  tour types: %d created, %d updated\n", res.TourTypesCreated, res.TourTypesUpdated)
			fmt.Printf("  packages:   %d created, %d updated\n", res.PackagesCreated, res.PackagesUpdated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file")

	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users and watch site activity",
	}

	cmd.AddCommand(newMakeAdminCmd(rt))
	cmd.AddCommand(newUsersCmd(rt))
	cmd.AddCommand(newRoleCmd(rt))
	cmd.AddCommand(newWatchCmd(rt))
	cmd.AddCommand(&cobra.Command{
		Use:   "sign-out",
		Short: "End the admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			app.Session.AdminSignOut(cmd.Context())
			rt.println("✓ Signed out of the admin area")
			return nil
		},
	})

	return cmd
}

func newMakeAdminCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "make-admin",
		Short: "Promote your own account while the site has no admin yet",
		Long: `Promote the signed-in account to admin.

This only works on a fresh installation. Once an admin exists, ask them to
run 'wanderlust admin role <user-id> admin' instead.`,
		PreRunE: requireSignedIn(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := app.Session.MakeCurrentUserAdmin(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to become admin: %s", session.Message(err))
			}

			rt.printf("✓ %s is now an admin\n", user.Email)
			if app.Session.Snapshot().Active == session.SourceProvider {
				rt.println("  Note: Clerk sessions always carry the user role. Sign in with email/password to use the admin area.")
			}
			return nil
		},
	}
}

func newUsersCmd(rt *Runtime) *cobra.Command {
	var lf listFlags
	var role string

	cmd := &cobra.Command{
		Use:     "users",
		Short:   "List accounts",
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			users, pagination, err := app.Session.Client().ListUsers(cmd.Context(), lf.query(map[string]string{"role": role}))
			if err != nil {
				return fmt.Errorf("failed to list users: %s", session.Message(err))
			}

			if len(users) == 0 {
				rt.println("No users found.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tVERIFIED")
			fmt.Fprintln(w, "──\t────\t─────\t────\t────────")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.IsVerified)
			}
			w.Flush()

			if pagination != nil {
				printPagination(rt, *pagination)
			}
			return nil
		},
	}

	addListFlags(cmd, &lf)
	cmd.Flags().StringVar(&role, "role", "", "Only show users with this role (user, admin)")

	return cmd
}

func newRoleCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "role <user-id> <user|admin>",
		Short:     "Grant or revoke the admin role",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "admin"},
		PreRunE:   requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := args[1]
			if role != "user" && role != client.RoleAdmin {
				return fmt.Errorf("invalid role %q (expected user or admin)", role)
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := app.Session.Client().UpdateUserRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("failed to update role: %s", session.Message(err))
			}

			rt.printf("✓ %s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
}

func newWatchCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Stream new messages, uploads and package changes",
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt.printf("Watching %s (Ctrl+C to stop)...\n", app.Server.Alias)
			err = app.Session.Client().Watch(ctx, func(e client.LiveEvent) {
				rt.printf("%s  %-16s %s\n", time.Unix(e.Timestamp, 0).Format("15:04:05"), e.Type, describeEvent(e))
			})
			if err != nil {
				return fmt.Errorf("live feed: %w", err)
			}
			return nil
		},
	}
}

// describeEvent picks the most useful field of an event payload
func describeEvent(e client.LiveEvent) string {
	var payload struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Email != "":
		return fmt.Sprintf("%s <%s>", payload.Name, payload.Email)
	case payload.Title != "":
		return payload.Title
	}
	return payload.ID
}

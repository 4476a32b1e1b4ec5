package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the server connection and the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			rt.printf("Server: %s (%s)\n", app.Server.Alias, app.Server.URL)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			health, err := client.New(app.Server.URL, nil).Health(ctx)
			if err != nil {
				rt.printf("  ✗ API unreachable: %v\n", err)
			} else {
				rt.printf("  ✓ API %s (%s %s)\n", health.Status, health.Service, health.Version)
			}

			d := app.Session.Diagnose()
			rt.println("\nStored session:")
			rt.printf("  token:         %s\n", present(d.HasToken))
			rt.printf("  user:          %s\n", present(d.HasUser))
			rt.printf("  clerk session: %s\n", present(d.HasClerkSession))
			if d.LegacyToken || d.LegacyUser {
				rt.println("  ⚠ Found keys from an older release (travel_agency_token / travel_agency_user). They are ignored; sign in again.")
			}

			snap := app.Session.Snapshot()
			rt.println("\nIdentity:")
			rt.printf("  active:  %s\n", snap.Active)
			if snap.ActiveUser != nil {
				rt.printf("  user:    %s <%s>\n", snap.ActiveUser.Name, snap.ActiveUser.Email)
				rt.printf("  admin:   %t\n", snap.IsAdminAuthenticated)
			}
			if snap.RoleConflict {
				rt.println("  ⚠ Role conflict between the Clerk and email/password sessions; the Clerk role is in effect")
			}
			return nil
		},
	}
}

func present(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}

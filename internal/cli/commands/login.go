package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
)

type loginOptions struct {
	email      string
	password   string
	admin      bool
	clerkToken string
}

// NewLoginCmd creates the login command
func NewLoginCmd(rt *Runtime) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Wanderlust server",
		Long: `Sign in with email and password, or attach a Clerk session.

With --admin the session is only kept when the account is an admin.
With --clerk-token the token from the hosted Clerk sign-in is verified and
stored; it takes precedence over an email/password session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.clerkToken != "" {
				return runClerkLogin(cmd, rt, opts.clerkToken)
			}
			return runLogin(cmd, rt, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (or set WANDERLUST_EMAIL)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set WANDERLUST_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "Sign in to the admin area")
	cmd.Flags().StringVar(&opts.clerkToken, "clerk-token", "", "Clerk session token (or set CLERK_SESSION_TOKEN)")

	return cmd
}

func runLogin(cmd *cobra.Command, rt *Runtime, opts *loginOptions) error {
	// Check for environment variables (useful for CI/CD)
	email := firstNonEmpty(opts.email, os.Getenv("WANDERLUST_EMAIL"))
	password := firstNonEmpty(opts.password, os.Getenv("WANDERLUST_PASSWORD"))

	if token := os.Getenv("CLERK_SESSION_TOKEN"); email == "" && token != "" {
		return runClerkLogin(cmd, rt, token)
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or WANDERLUST_EMAIL env var)")
	}

	app, err := rt.App(cmd.Context())
	if err != nil {
		return err
	}

	if password == "" {
		password, err = readSecret(rt, "Password")
		if err != nil {
			return err
		}
	}

	rt.printf("Logging in to %s (%s)...\n", app.Server.Alias, app.Server.URL)

	if opts.admin {
		err = app.Session.AdminLogin(cmd.Context(), email, password)
	} else {
		err = app.Session.Login(cmd.Context(), email, password)
	}
	if err != nil {
		return fmt.Errorf("login failed: %s", session.Message(err))
	}

	user := app.Session.Snapshot().User
	rt.println("✓ Login successful!")
	printUser(rt, user)
	return nil
}

func runClerkLogin(cmd *cobra.Command, rt *Runtime, token string) error {
	app, err := rt.App(cmd.Context())
	if err != nil {
		return err
	}

	if err := app.Clerk.SetSessionToken(token); err != nil {
		return err
	}
	if err := app.Session.SyncProvider(cmd.Context()); err != nil {
		return fmt.Errorf("failed to verify Clerk session: %s", session.Message(err))
	}

	snap := app.Session.Snapshot()
	if !snap.ProviderSignedIn {
		return errors.New("clerk rejected the session token")
	}

	rt.println("✓ Signed in with Clerk")
	printUser(rt, snap.ActiveUser)
	if snap.IsAuthenticated {
		rt.println("  Note: the Clerk identity takes precedence over your email/password session")
	}
	return nil
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(rt *Runtime) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			password = firstNonEmpty(password, os.Getenv("WANDERLUST_PASSWORD"))
			if password == "" {
				if password, err = readSecret(rt, "Password"); err != nil {
					return err
				}
			}

			if err := app.Session.Register(cmd.Context(), name, email, password); err != nil {
				return fmt.Errorf("registration failed: %s", session.Message(err))
			}

			rt.println("✓ Account created")
			printUser(rt, app.Session.Snapshot().User)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set WANDERLUST_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(rt *Runtime) *cobra.Command {
	var clerkOnly, all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Long: `Sign out of the email/password session.

--clerk ends only the Clerk session, --all ends both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			if clerkOnly || all {
				if err := app.Session.SignOutProvider(cmd.Context()); err != nil {
					return err
				}
				rt.println("✓ Signed out of Clerk")
			}
			if !clerkOnly {
				app.Session.Logout(cmd.Context())
				rt.println("✓ Logged out")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clerkOnly, "clerk", false, "Only end the Clerk session")
	cmd.Flags().BoolVar(&all, "all", false, "End both the email/password and the Clerk session")

	return cmd
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed-in identity",
		PreRunE: requireSignedIn(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			snap := app.Session.Snapshot()
			rt.printf("Server: %s (%s)\n", app.Server.Alias, app.Server.URL)
			rt.printf("Signed in via: %s\n", snap.Active)
			printUser(rt, snap.ActiveUser)

			if snap.Active == session.SourceProvider && snap.IsAuthenticated {
				rt.printf("  Also signed in as %s with email/password\n", snap.User.Email)
			}
			if snap.RoleConflict {
				rt.printf("⚠ Your email/password session has role %q; the Clerk role %q is in effect\n",
					snap.User.Role, snap.ProviderUser.Role)
			}
			return nil
		},
	}

	return cmd
}

// NewProfileCmd creates the profile command
func NewProfileCmd(rt *Runtime) *cobra.Command {
	var update client.ProfileUpdate
	var name, email, avatar string

	cmd := &cobra.Command{
		Use:     "profile",
		Short:   "Update your name, email or avatar",
		PreRunE: requireSignedIn(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("avatar") {
				update.Avatar = &avatar
			}
			if update == (client.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update (use --name, --email or --avatar)")
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			user, err := app.Session.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("failed to update profile: %s", session.Message(err))
			}

			rt.println("✓ Profile updated")
			printUser(rt, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar image URL")

	return cmd
}

// NewPasswordCmd creates the password command
func NewPasswordCmd(rt *Runtime) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:     "password",
		Short:   "Change your password",
		PreRunE: requireSignedIn(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			if current == "" {
				if current, err = readSecret(rt, "Current password"); err != nil {
					return err
				}
			}
			if next == "" {
				if next, err = readSecret(rt, "New password"); err != nil {
					return err
				}
			}

			if err := app.Session.ChangePassword(cmd.Context(), current, next); err != nil {
				return fmt.Errorf("failed to change password: %s", session.Message(err))
			}

			rt.println("✓ Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password (will prompt if not provided)")
	cmd.Flags().StringVar(&next, "new", "", "New password (will prompt if not provided)")

	return cmd
}

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "refresh",
		Short:   "Exchange the stored token for a fresh one",
		PreRunE: requireSignedIn(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Session.RefreshToken(cmd.Context()); err != nil {
				return fmt.Errorf("failed to refresh token: %s", session.Message(err))
			}

			rt.println("✓ Token refreshed")
			return nil
		},
	}
}

func printUser(rt *Runtime, user *client.User) {
	if user == nil {
		return
	}
	rt.printf("  User: %s (%s)\n", user.Name, user.Email)
	if user.IsAdmin() {
		rt.println("  Role: Admin")
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/store"
)

// NewSettingsCmd creates the settings command group
func NewSettingsCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the public site settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(cmd, rt)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the site settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(cmd, rt)
		},
	})
	cmd.AddCommand(newSettingsSetCmd(rt))

	return cmd
}

func runSettingsShow(cmd *cobra.Command, rt *Runtime) error {
	app, err := rt.App(cmd.Context())
	if err != nil {
		return err
	}

	settings := store.NewSiteSettings(app.Session.Client(), app.Notify)
	if err := resultErr(settings.Fetch(cmd.Context())); err != nil {
		return err
	}

	printSettings(rt, settings.State().Settings)
	return nil
}

func printSettings(rt *Runtime, s *client.SiteSettings) {
	if s == nil {
		return
	}
	rt.printf("Site name:     %s\n", s.SiteName)
	rt.printf("Tagline:       %s\n", s.Tagline)
	rt.printf("Contact email: %s\n", s.ContactEmail)
	rt.printf("Contact phone: %s\n", s.ContactPhone)
	rt.printf("Address:       %s\n", s.Address)
	rt.printf("Facebook:      %s\n", s.FacebookURL)
	rt.printf("Instagram:     %s\n", s.InstagramURL)
	rt.printf("Twitter:       %s\n", s.TwitterURL)
}

func newSettingsSetCmd(rt *Runtime) *cobra.Command {
	var siteName, tagline, email, phone, address, facebook, instagram, twitter string

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change site settings",
		Example: `  $ wanderlust settings set --tagline "Explore the world with us" --contact-phone "+1 555 0100"`,
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := client.SiteSettingsUpdate{
				SiteName:     stringFlag(cmd, "site-name", siteName),
				Tagline:      stringFlag(cmd, "tagline", tagline),
				ContactEmail: stringFlag(cmd, "contact-email", email),
				ContactPhone: stringFlag(cmd, "contact-phone", phone),
				Address:      stringFlag(cmd, "address", address),
				FacebookURL:  stringFlag(cmd, "facebook", facebook),
				InstagramURL: stringFlag(cmd, "instagram", instagram),
				TwitterURL:   stringFlag(cmd, "twitter", twitter),
			}
			if update == (client.SiteSettingsUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			settings := store.NewSiteSettings(app.Session.Client(), app.Notify)
			if err := resultErr(settings.Update(cmd.Context(), update)); err != nil {
				return err
			}
			printSettings(rt, settings.State().Settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&siteName, "site-name", "", "Site name")
	cmd.Flags().StringVar(&tagline, "tagline", "", "Tagline")
	cmd.Flags().StringVar(&email, "contact-email", "", "Contact email")
	cmd.Flags().StringVar(&phone, "contact-phone", "", "Contact phone")
	cmd.Flags().StringVar(&address, "address", "", "Postal address")
	cmd.Flags().StringVar(&facebook, "facebook", "", "Facebook page URL")
	cmd.Flags().StringVar(&instagram, "instagram", "", "Instagram profile URL")
	cmd.Flags().StringVar(&twitter, "twitter", "", "Twitter profile URL")

	return cmd
}

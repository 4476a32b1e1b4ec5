package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
	"github.com/wanderlust-dev/wanderlust/internal/cli/store"
)

// NewPackagesCmd creates the packages command group
func NewPackagesCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"pkg"},
		Short:   "Browse and manage travel packages",
	}

	cmd.AddCommand(newPackagesListCmd(rt))
	cmd.AddCommand(newPackagesShowCmd(rt))
	cmd.AddCommand(newPackageWriteCmd(rt, false))
	cmd.AddCommand(newPackageWriteCmd(rt, true))
	cmd.AddCommand(newPackagesDeleteCmd(rt))

	return cmd
}

func packagesStore(app *App) *store.Packages {
	return store.NewPackages(app.Session.Client(), app.Notify)
}

// formatPrice renders cents as a dollar amount
func formatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func newPackagesListCmd(rt *Runtime) *cobra.Command {
	var lf listFlags
	var tourType string
	var featured bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List travel packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			filters := map[string]string{"tour_type": tourType}
			if featured {
				filters["featured"] = "true"
			}

			packages := packagesStore(app)
			if err := resultErr(packages.Fetch(cmd.Context(), lf.query(filters))); err != nil {
				return err
			}

			state := packages.State()
			if len(state.Items) == 0 {
				rt.println("No packages found.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tTITLE\tDESTINATION\tDAYS\tPRICE\tFEATURED")
			fmt.Fprintln(w, "────\t─────\t───────────\t────\t─────\t────────")
			for _, p := range state.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%t\n",
					p.Slug,
					p.Title,
					p.Destination,
					p.DurationDays,
					formatPrice(p.PriceCents),
					p.IsFeatured,
				)
			}
			w.Flush()

			printPagination(rt, state.Pagination)
			return nil
		},
	}

	addListFlags(cmd, &lf)
	cmd.Flags().StringVar(&tourType, "tour-type", "", "Only show packages of this tour type (slug)")
	cmd.Flags().BoolVar(&featured, "featured", false, "Only show featured packages")

	return cmd
}

func newPackagesShowCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			p, err := app.Session.Client().GetPackage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load package: %s", session.Message(err))
			}

			rt.printf("%s\n\n", p.Title)
			rt.printf("  ID:          %s\n", p.ID)
			rt.printf("  Destination: %s\n", p.Destination)
			rt.printf("  Duration:    %d days\n", p.DurationDays)
			rt.printf("  Price:       %s\n", formatPrice(p.PriceCents))
			if p.TourType != nil {
				rt.printf("  Tour type:   %s\n", p.TourType.Name)
			}
			if p.Description != "" {
				rt.printf("\n%s\n", p.Description)
			}
			return nil
		},
	}
}

// newPackageWriteCmd builds "create" or, with update set, "update <id>"
func newPackageWriteCmd(rt *Runtime, update bool) *cobra.Command {
	var title, slug, tourTypeID, destination, description, imageURL, price string
	var days int
	var featured, active bool

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a package",
		Args:    cobra.NoArgs,
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := client.PackageInput{
				Title:        stringFlag(cmd, "title", title),
				Slug:         stringFlag(cmd, "slug", slug),
				TourTypeID:   stringFlag(cmd, "tour-type-id", tourTypeID),
				Destination:  stringFlag(cmd, "destination", destination),
				Description:  stringFlag(cmd, "description", description),
				DurationDays: intFlag(cmd, "days", days),
				ImageURL:     stringFlag(cmd, "image-url", imageURL),
				IsFeatured:   boolFlag(cmd, "featured", featured),
				IsActive:     boolFlag(cmd, "active", active),
			}
			if cmd.Flags().Changed("price") {
				cents, err := parsePrice(price)
				if err != nil {
					return err
				}
				input.PriceCents = &cents
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			packages := packagesStore(app)

			if update {
				if input == (client.PackageInput{}) {
					return fmt.Errorf("nothing to update")
				}
				return resultErr(packages.Update(cmd.Context(), args[0], input))
			}

			if input.Title == nil {
				return fmt.Errorf("--title is required")
			}
			if input.IsActive == nil {
				input.IsActive = &active
			}
			return resultErr(packages.Create(cmd.Context(), input))
		},
	}

	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Edit a package"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (derived from the title when empty)")
	cmd.Flags().StringVar(&tourTypeID, "tour-type-id", "", "Tour type ID")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&price, "price", "", "Price in dollars, e.g. 1299.99")
	cmd.Flags().IntVar(&days, "days", 1, "Duration in days")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Cover image URL")
	cmd.Flags().BoolVar(&featured, "featured", false, "Feature on the home page")
	cmd.Flags().BoolVar(&active, "active", true, "Show on the public site")

	return cmd
}

// parsePrice converts "1299.99" to 129999 cents
func parsePrice(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return int64(f*100 + 0.5), nil
}

func newPackagesDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a package",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(packagesStore(app).Delete(cmd.Context(), args[0]))
		},
	}
}

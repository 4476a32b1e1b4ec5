package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/store"
)

// NewTourTypesCmd creates the tour-types command group
func NewTourTypesCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tour-types",
		Aliases: []string{"tt"},
		Short:   "Browse and manage tour types",
	}

	cmd.AddCommand(newTourTypesListCmd(rt))
	cmd.AddCommand(newTourTypeWriteCmd(rt, false))
	cmd.AddCommand(newTourTypeWriteCmd(rt, true))
	cmd.AddCommand(newTourTypesDeleteCmd(rt))

	return cmd
}

func tourTypesStore(app *App) *store.TourTypes {
	return store.NewTourTypes(app.Session.Client(), app.Notify)
}

func newTourTypesListCmd(rt *Runtime) *cobra.Command {
	var lf listFlags
	var activeOnly bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tour types",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			filters := map[string]string{}
			if activeOnly {
				filters["active"] = "true"
			}

			tourTypes := tourTypesStore(app)
			if err := resultErr(tourTypes.Fetch(cmd.Context(), lf.query(filters))); err != nil {
				return err
			}

			state := tourTypes.State()
			if len(state.Items) == 0 {
				rt.println("No tour types found.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSLUG\tACTIVE\tORDER")
			fmt.Fprintln(w, "──\t────\t────\t──────\t─────")
			for _, t := range state.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\n", t.ID, t.Name, t.Slug, t.IsActive, t.SortOrder)
			}
			w.Flush()

			printPagination(rt, state.Pagination)
			return nil
		},
	}

	addListFlags(cmd, &lf)
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show active tour types")

	return cmd
}

// newTourTypeWriteCmd builds "create" or, with update set, "update <id>"
func newTourTypeWriteCmd(rt *Runtime, update bool) *cobra.Command {
	var name, slug, description, icon string
	var active bool
	var order int

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a tour type",
		Args:    cobra.NoArgs,
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := client.TourTypeInput{
				Name:        stringFlag(cmd, "name", name),
				Slug:        stringFlag(cmd, "slug", slug),
				Description: stringFlag(cmd, "description", description),
				Icon:        stringFlag(cmd, "icon", icon),
				IsActive:    boolFlag(cmd, "active", active),
				SortOrder:   intFlag(cmd, "order", order),
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			tourTypes := tourTypesStore(app)

			if update {
				if input == (client.TourTypeInput{}) {
					return fmt.Errorf("nothing to update")
				}
				return resultErr(tourTypes.Update(cmd.Context(), args[0], input))
			}

			if input.Name == nil {
				return fmt.Errorf("--name is required")
			}
			if input.IsActive == nil {
				input.IsActive = &active
			}
			return resultErr(tourTypes.Create(cmd.Context(), input))
		},
	}

	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Edit a tour type"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (derived from the name when empty)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon name")
	cmd.Flags().BoolVar(&active, "active", true, "Show on the public site")
	cmd.Flags().IntVar(&order, "order", 0, "Sort order")

	return cmd
}

func newTourTypesDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a tour type. Its packages are kept without a type.",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(tourTypesStore(app).Delete(cmd.Context(), args[0]))
		},
	}
}

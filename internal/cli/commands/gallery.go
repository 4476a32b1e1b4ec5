package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
	"github.com/wanderlust-dev/wanderlust/internal/cli/store"
)

// NewGalleryCmd creates the gallery command group
func NewGalleryCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse and manage gallery photos",
	}

	cmd.AddCommand(newGalleryListCmd(rt))
	cmd.AddCommand(newGalleryUploadCmd(rt))
	cmd.AddCommand(newGalleryUpdateCmd(rt))
	cmd.AddCommand(newGalleryDeleteCmd(rt))

	return cmd
}

func galleryStore(app *App) *store.Gallery {
	return store.NewGallery(app.Session.Client(), app.Notify)
}

func newGalleryListCmd(rt *Runtime) *cobra.Command {
	var lf listFlags
	var category string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List gallery photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			gallery := galleryStore(app)
			if err := resultErr(gallery.Fetch(cmd.Context(), lf.query(map[string]string{"category": category}))); err != nil {
				return err
			}

			state := gallery.State()
			if len(state.Items) == 0 {
				rt.println("No photos found.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tIMAGE")
			fmt.Fprintln(w, "──\t─────\t────────\t─────")
			for _, item := range state.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.Title, item.Category, item.ImageURL)
			}
			w.Flush()

			printPagination(rt, state.Pagination)
			return nil
		},
	}

	addListFlags(cmd, &lf)
	cmd.Flags().StringVar(&category, "category", "", "Only show this category")

	return cmd
}

func newGalleryUploadCmd(rt *Runtime) *cobra.Command {
	var title, description, category string

	cmd := &cobra.Command{
		Use:     "upload <image-file>",
		Short:   "Upload a photo",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			gallery := galleryStore(app)
			res := gallery.Upload(cmd.Context(), client.GalleryUpload{
				Title:       title,
				Description: description,
				Category:    category,
				FileName:    filepath.Base(args[0]),
				Image:       f,
			})
			if err := resultErr(res); err != nil {
				return err
			}

			items := gallery.State().Items
			item := items[len(items)-1]
			rt.printf("  ID: %s\n  URL: %s\n", item.ID, item.ImageURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Photo title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&category, "category", "", "Category")

	return cmd
}

func newGalleryUpdateCmd(rt *Runtime) *cobra.Command {
	var title, description, category string

	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Edit a photo's title, description or category",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := client.GalleryUpdate{
				Title:       stringFlag(cmd, "title", title),
				Description: stringFlag(cmd, "description", description),
				Category:    stringFlag(cmd, "category", category),
			}
			if update == (client.GalleryUpdate{}) {
				return fmt.Errorf("nothing to update (use --title, --description or --category)")
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(galleryStore(app).Update(cmd.Context(), args[0], update))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&category, "category", "", "New category")

	return cmd
}

func newGalleryDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a photo",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin(rt),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(galleryStore(app).Delete(cmd.Context(), args[0]))
		},
	}
}

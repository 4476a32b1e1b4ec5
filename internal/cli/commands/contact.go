package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/contact"
)

// NewContactCmd creates the contact command
func NewContactCmd(rt *Runtime) *cobra.Command {
	var name, email, phone, subject, message string

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the travel agency",
		Example: `  $ wanderlust contact --name "Jane Doe" --email jane@example.com \
      --subject "Honeymoon in Bali" --message "Do you have packages for June?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			form := contact.New(app.Session.Client())
			form.Name = name
			form.Email = email
			form.Phone = phone
			form.Subject = subject
			form.Message = message

			if !form.Submit(cmd.Context()) {
				return errors.New(form.PanelMessage)
			}

			rt.printf("✓ %s\n", form.PanelMessage)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your name")
	cmd.Flags().StringVar(&email, "email", "", "Your email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (optional)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject (optional)")
	cmd.Flags().StringVar(&message, "message", "", "Your message")

	return cmd
}

package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
	"github.com/wanderlust-dev/wanderlust/internal/cli/store"
)

var messageStatuses = []string{"unread", "read", "replied"}

// NewMessagesCmd creates the messages command group. Every subcommand is admin-only.
func NewMessagesCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "messages",
		Aliases:           []string{"inbox"},
		Short:             "Read and triage contact form messages",
		PersistentPreRunE: requireAdmin(rt),
	}

	cmd.AddCommand(newMessagesListCmd(rt))
	cmd.AddCommand(newMessagesShowCmd(rt))
	cmd.AddCommand(newMessagesStatusCmd(rt))
	cmd.AddCommand(newMessagesDeleteCmd(rt))

	return cmd
}

func messagesStore(app *App) *store.Messages {
	return store.NewMessages(app.Session.Client(), app.Notify)
}

func newMessagesListCmd(rt *Runtime) *cobra.Command {
	var lf listFlags
	var status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List messages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			messages := messagesStore(app)
			if err := resultErr(messages.Fetch(cmd.Context(), lf.query(map[string]string{"status": status}))); err != nil {
				return err
			}

			state := messages.State()
			if len(state.Items) == 0 {
				rt.println("No messages.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tFROM\tSUBJECT\tRECEIVED")
			fmt.Fprintln(w, "──\t──────\t────\t───────\t────────")
			for _, m := range state.Items {
				fmt.Fprintf(w, "%s\t%s\t%s <%s>\t%s\t%s\n",
					m.ID,
					m.Status,
					m.Name,
					m.Email,
					m.Subject,
					m.CreatedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			w.Flush()

			printPagination(rt, state.Pagination)
			return nil
		},
	}

	addListFlags(cmd, &lf)
	cmd.Flags().StringVar(&status, "status", "", "Only show messages with this status (unread, read, replied)")

	return cmd
}

func newMessagesShowCmd(rt *Runtime) *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}

			msg, err := app.Session.Client().GetMessage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load message: %s", session.Message(err))
			}

			rt.printf("From:     %s <%s>\n", msg.Name, msg.Email)
			if msg.Phone != "" {
				rt.printf("Phone:    %s\n", msg.Phone)
			}
			rt.printf("Subject:  %s\n", msg.Subject)
			rt.printf("Received: %s\n", msg.CreatedAt.Local().Format("2006-01-02 15:04"))
			rt.printf("Status:   %s\n\n", msg.Status)
			rt.println(msg.Message)

			if markRead && msg.Status == "unread" {
				return resultErr(messagesStore(app).UpdateStatus(cmd.Context(), msg.ID, "read"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markRead, "mark-read", true, "Mark an unread message as read")

	return cmd
}

func newMessagesStatusCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <unread|read|replied>",
		Short:     "Change a message's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: messageStatuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := strings.ToLower(args[1])
			valid := false
			for _, s := range messageStatuses {
				if s == status {
					valid = true
				}
			}
			if !valid {
				return fmt.Errorf("invalid status %q (expected one of %s)", args[1], strings.Join(messageStatuses, ", "))
			}

			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(messagesStore(app).UpdateStatus(cmd.Context(), args[0], status))
		},
	}
}

func newMessagesDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a message",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			return resultErr(messagesStore(app).Delete(cmd.Context(), args[0]))
		},
	}
}

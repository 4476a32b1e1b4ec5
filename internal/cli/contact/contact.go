// Package contact is the "Get In Touch" form: field values, submit, and the
// panel shown afterwards.
package contact

import (
	"context"
	"strings"

	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

// Panel is the view shown under the form after a submit
type Panel string

const (
	PanelNone    Panel = ""
	PanelSuccess Panel = "success"
	PanelError   Panel = "error"
)

// Sender posts a contact message; *client.Client satisfies it
type Sender interface {
	SendMessage(ctx context.Context, input client.MessageInput) (*client.Message, string, error)
}

// Form holds the entered values and the outcome of the last submit
type Form struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string

	Panel        Panel
	PanelMessage string
	Submitting   bool

	sender Sender
}

// New returns an empty form posting through sender
func New(sender Sender) *Form {
	return &Form{sender: sender}
}

// Missing lists the required fields that are still blank
func (f *Form) Missing() []string {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(f.Message) == "" {
		missing = append(missing, "message")
	}
	return missing
}

// Submit posts the form. On success every field is cleared and the success
// panel is shown; on failure the entered values are kept and the error panel
// carries the server message.
func (f *Form) Submit(ctx context.Context) bool {
	if missing := f.Missing(); len(missing) > 0 {
		f.Panel = PanelError
		f.PanelMessage = "Please fill in your " + strings.Join(missing, ", ")
		return false
	}

	f.Submitting = true
	_, confirmation, err := f.sender.SendMessage(ctx, client.MessageInput{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	})
	f.Submitting = false

	if err != nil {
		f.Panel = PanelError
		f.PanelMessage = client.DisplayMessage(err)
		return false
	}

	f.Reset()
	f.Panel = PanelSuccess
	f.PanelMessage = confirmation
	if f.PanelMessage == "" {
		f.PanelMessage = "Thank you! Your message has been sent."
	}
	return true
}

// Reset clears the entered values
func (f *Form) Reset() {
	f.Name, f.Email, f.Phone, f.Subject, f.Message = "", "", "", "", ""
}

// Dismiss hides the result panel
func (f *Form) Dismiss() {
	f.Panel = PanelNone
	f.PanelMessage = ""
}

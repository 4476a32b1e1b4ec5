// Package guard decides whether a protected screen (or CLI command) may run
// for a given session snapshot.
package guard

import (
	"fmt"

	"github.com/wanderlust-dev/wanderlust/internal/cli/session"
)

const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
)

// Decision is the outcome of a guard. Redirect is set when access is denied.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Private allows any signed-in identity: an email/password session or a
// provider session.
func Private(s session.Snapshot) Decision {
	if s.IsAuthenticated || s.ProviderSignedIn {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginPath}
}

// Admin requires both the admin flag and the admin identity
func Admin(s session.Snapshot) Decision {
	if s.IsAdminAuthenticated && s.Admin != nil {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: AdminLoginPath}
}

// DeniedError reports a denied decision
type DeniedError struct {
	Redirect string
}

func (e *DeniedError) Error() string {
	if e.Redirect == AdminLoginPath {
		return "admin access required. Run 'wanderlust login --admin' first"
	}
	return "not signed in. Run 'wanderlust login' first"
}

// Err returns nil when allowed, otherwise a *DeniedError
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Redirect: d.Redirect}
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return fmt.Sprintf("redirect %s", d.Redirect)
}

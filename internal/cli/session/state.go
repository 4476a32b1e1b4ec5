package session

import "github.com/wanderlust-dev/wanderlust/internal/cli/client"

// ActionType names a transition of the traditional session
type ActionType string

const (
	ActionAuthStart   ActionType = "AUTH_START"
	ActionAuthSuccess ActionType = "AUTH_SUCCESS"
	ActionAuthFail    ActionType = "AUTH_FAIL"
	ActionLogout      ActionType = "LOGOUT"
	ActionUpdateUser  ActionType = "UPDATE_USER"
	ActionClearError  ActionType = "CLEAR_ERROR"
)

// Action is one input to Reduce. Token is consumed by the Manager, never by Reduce.
type Action struct {
	Type  ActionType
	User  *client.User
	Error string
	Token string
}

// State is the email/password session
type State struct {
	User            *client.User
	IsAuthenticated bool
	Loading         bool
	Error           string
	HasAdminSession bool
}

func copyUser(u *client.User) *client.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce(s State, a Action) State {
	s.User = copyUser(s.User)

	switch a.Type {
	case ActionAuthStart:
		s.Loading = true
		s.Error = ""
	case ActionAuthSuccess:
		s.User = copyUser(a.User)
		s.IsAuthenticated = a.User != nil
		s.HasAdminSession = a.User.IsAdmin()
		s.Loading = false
		s.Error = ""
	case ActionAuthFail:
		s = State{Error: a.Error}
	case ActionLogout:
		s = State{}
	case ActionUpdateUser:
		// A late profile response must not resurrect a logged-out session
		if s.IsAuthenticated && a.User != nil {
			s.User = copyUser(a.User)
			s.HasAdminSession = a.User.IsAdmin()
		}
		s.Loading = false
	case ActionClearError:
		s.Error = ""
	}
	return s
}

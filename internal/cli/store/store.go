// Package store keeps client-side copies of API resources. Each call moves
// through IDLE -> LOADING -> SUCCESS|ERROR -> IDLE, and the local list is only
// patched after the server acknowledged the change.
package store

import (
	"context"
	"sync"

	"github.com/wanderlust-dev/wanderlust/internal/cli/client"
)

// Phase is where a store is in its current call
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseLoading Phase = "LOADING"
	PhaseSuccess Phase = "SUCCESS"
	PhaseError   Phase = "ERROR"
)

// Result is returned by every store operation
type Result struct {
	Success bool
	Error   string
}

// Notifier surfaces operation outcomes to the user (a toast in a UI, a line on stderr in the CLI)
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Nop discards notifications
var Nop Notifier = nopNotifier{}

// State is a snapshot of a Collection
type State[T any] struct {
	Items      []T
	Pagination client.Pagination
	Loading    bool
	Error      string
	Phase      Phase
}

// Collection is a list of T keyed by the key function
type Collection[T any] struct {
	mu       sync.Mutex
	key      func(T) string
	notifier Notifier
	state    State[T]
	inflight int
	subs     []func(State[T])
}

// NewCollection returns an empty collection. notifier may be nil.
func NewCollection[T any](key func(T) string, notifier Notifier) *Collection[T] {
	if notifier == nil {
		notifier = Nop
	}
	return &Collection[T]{
		key:      key,
		notifier: notifier,
		state:    State[T]{Items: []T{}, Phase: PhaseIdle},
	}
}

// State returns a copy of the current state
func (c *Collection[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Subscribe registers fn for every phase change
func (c *Collection[T]) Subscribe(fn func(State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Collection[T]) copyLocked() State[T] {
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	return s
}

// transition applies fn under the lock and notifies subscribers
func (c *Collection[T]) transition(fn func(s *State[T])) {
	c.mu.Lock()
	fn(&c.state)
	c.state.Loading = c.inflight > 0
	snap := c.copyLocked()
	subs := append([]func(State[T]){}, c.subs...)
	c.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (c *Collection[T]) begin() {
	c.transition(func(s *State[T]) {
		c.inflight++
		s.Phase = PhaseLoading
		s.Error = ""
	})
}

// finish ends a call. apply runs only on success and only if ctx is still live.
func (c *Collection[T]) finish(ctx context.Context, err error, apply func(s *State[T]), successMsg string) Result {
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The caller went away; drop the response
		c.transition(func(s *State[T]) {
			c.inflight--
			s.Phase = PhaseIdle
		})
		return Result{Error: ctxErr.Error()}
	}

	if err != nil {
		message := client.DisplayMessage(err)
		c.transition(func(s *State[T]) {
			c.inflight--
			s.Phase = PhaseError
			s.Error = message
		})
		c.notifier.Error(message)
		c.transition(func(s *State[T]) { s.Phase = PhaseIdle })
		return Result{Error: message}
	}

	c.transition(func(s *State[T]) {
		c.inflight--
		if apply != nil {
			apply(s)
		}
		s.Phase = PhaseSuccess
	})
	if successMsg != "" {
		c.notifier.Success(successMsg)
	}
	c.transition(func(s *State[T]) { s.Phase = PhaseIdle })
	return Result{Success: true}
}

// Fetch replaces the list with one page from the server
func (c *Collection[T]) Fetch(ctx context.Context, fetch func(context.Context) ([]T, *client.Pagination, error)) Result {
	c.begin()
	items, pagination, err := fetch(ctx)
	return c.finish(ctx, err, func(s *State[T]) {
		s.Items = append([]T{}, items...)
		if pagination != nil {
			s.Pagination = *pagination
		}
	}, "")
}

// Create appends the item the server returned
func (c *Collection[T]) Create(ctx context.Context, create func(context.Context) (T, error), successMsg string) Result {
	c.begin()
	item, err := create(ctx)
	return c.finish(ctx, err, func(s *State[T]) {
		s.Items = append(s.Items, item)
		s.Pagination.Total++
	}, successMsg)
}

// Update replaces the item with the server's copy, matched by key
func (c *Collection[T]) Update(ctx context.Context, update func(context.Context) (T, error), successMsg string) Result {
	c.begin()
	item, err := update(ctx)
	return c.finish(ctx, err, func(s *State[T]) {
		id := c.key(item)
		for i := range s.Items {
			if c.key(s.Items[i]) == id {
				s.Items[i] = item
				return
			}
		}
	}, successMsg)
}

// Delete removes the item with id once the server confirmed
func (c *Collection[T]) Delete(ctx context.Context, id string, del func(context.Context) error, successMsg string) Result {
	c.begin()
	err := del(ctx)
	return c.finish(ctx, err, func(s *State[T]) {
		kept := s.Items[:0]
		for _, item := range s.Items {
			if c.key(item) != id {
				kept = append(kept, item)
			}
		}
		if len(kept) < len(s.Items) && s.Pagination.Total > 0 {
			s.Pagination.Total--
		}
		s.Items = kept
	}, successMsg)
}

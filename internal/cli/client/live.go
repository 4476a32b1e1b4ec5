package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// LiveEvent is one frame of the admin event stream
type LiveEvent struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// liveURL turns the API root into the ws(s):// address of the admin feed
func (c *Client) liveURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/admin"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// Watch streams admin events to fn until ctx is done or the server closes the
// connection. The token goes in the query string, as browsers do.
func (c *Client) Watch(ctx context.Context, fn func(LiveEvent)) error {
	target, err := c.liveURL(c.tokens.Token())
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return &APIError{Status: resp.StatusCode, Message: FallbackMessage}
		}
		return fmt.Errorf("failed to connect to live feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event LiveEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return fmt.Errorf("live feed closed: %w", err)
		}
		fn(event)
	}
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// liveFeed upgrades an admin connection to the event stream.
// Browsers cannot set headers on WebSocket requests, so the token arrives as ?token=.
func (s *Server) liveFeed(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondFail(c, http.StatusUnauthorized, "Missing token")
		return
	}

	sessionData, err := s.authenticate(c.Request.Context(), token)
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if !sessionData.IsAdmin() {
		respondFail(c, http.StatusForbidden, "Admin access required")
		return
	}

	allowed := s.config.AllowedOrigins()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if origin == o {
					return true
				}
			}
			s.logger.Warn().Str("origin", origin).Msg("Rejected live feed origin")
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	s.hub.Serve(conn, sessionData.UserID)
}

package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader accepts same-origin requests and the configured origins.
// A "*" entry accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

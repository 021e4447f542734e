package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	ws "github.com/coder/websocket"
)

// Greeting returns the message a client receives as soon as it connects,
// or false when there is nothing to send.
type Greeting func(ctx context.Context) (Message, bool)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, greet Greeting) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // guest screens connect from any LAN origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn)
		if greet != nil {
			if msg, ok := greet(r.Context()); ok {
				if data, err := json.Marshal(msg); err == nil {
					client.send <- data
				}
			}
		}
		client.Run(r.Context())
	}
}

package websocket

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type SessionOptions struct {
	// Topics joined before any frame is read.
	Topics []string
	// Greeting is sent to this client only, once subscribed.
	Greeting *Event
	// OnMessage receives every inbound frame.
	OnMessage func(c *Client, data []byte)
	// OnClose runs after the client left all its topics.
	OnClose func(c *Client)
}

// ServeWs runs a websocket session for an already upgraded connection and returns when it ends.
func ServeWs(hub *Hub, conn *websocket.Conn, userID uuid.UUID, opts SessionOptions) {
	client := NewClient(hub, conn, userID)
	client.onMessage = opts.OnMessage
	client.onClose = opts.OnClose

	for _, t := range opts.Topics {
		client.Join(t)
	}
	if opts.Greeting != nil {
		if data, err := json.Marshal(opts.Greeting); err == nil {
			client.Send(data)
		}
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}

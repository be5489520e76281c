package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection and blocks until the peer disconnects.
func ServeWs(hub *Hub, c *websocket.Conn, ownerID uuid.UUID) {
	client := NewClient(hub, c, ownerID)
	hub.join(client)

	go client.writePump()
	client.readPump()
}

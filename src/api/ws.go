package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/parleychat/parley/src/hub"
)

func (s *Server) registerSocketRoutes() {
	s.app.Get("/ws/info", s.handleSocketInfo)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleSocket))
}

func (s *Server) handleSocketInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"clients":   s.hub.ClientCount(),
		"rooms":     len(s.hub.RoomCounts()),
		"online":    s.hub.OnlineUsers(),
	})
}

// handleSocket runs for the lifetime of one upgraded connection. The
// connection id is transport-assigned; identity arrives later via a
// user:connect event.
func (s *Server) handleSocket(conn *websocket.Conn) {
	client := hub.NewClient(uuid.New().String(), conn, s.hub)
	s.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "userId"
	localUsername = "username"
)

// requireSession authenticates the request from a Bearer session token
// and stashes the verified identity in the request locals.
func (s *Server) requireSession(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	claims, err := s.svc.VerifySession(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	c.Locals(localUserID, claims.UserID)
	c.Locals(localUsername, claims.Username)
	return c.Next()
}

// sessionUserID returns the authenticated user id set by requireSession.
func sessionUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// Package api exposes the REST surface and the websocket upgrade route.
// Route semantics mirror the persisted-source-of-truth model: writes land
// here, live refetch cues travel over the socket layer.
package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/parleychat/parley/src/hub"
	"github.com/parleychat/parley/src/service"
	"github.com/parleychat/parley/src/store"
	"github.com/rs/zerolog"
)

// Server bundles the fiber app with the chat service and the socket hub.
type Server struct {
	app      *fiber.App
	svc      *service.Service
	hub      *hub.Hub
	validate *validator.Validate
	logger   zerolog.Logger
}

// New builds the fiber app and registers every route.
func New(svc *service.Service, h *hub.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		svc:      svc,
		hub:      h,
		validate: validator.New(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Post("/register", s.handleRegister)
	api.Post("/login", s.handleLogin)

	authed := api.Group("", s.requireSession)
	authed.Get("/users", s.handleListUsers)
	authed.Post("/user/find", s.handleFindUser)

	authed.Post("/rooms", s.handleCreateRoom)
	authed.Get("/rooms", s.handleListRooms)
	authed.Patch("/rooms/:roomId", s.handleRenameRoom)
	authed.Delete("/rooms/:roomId", s.handleDeleteRoom)
	authed.Post("/rooms/:roomId/invite", s.handleInvite)
	authed.Post("/rooms/:roomId/leave", s.handleLeaveRoom)
	authed.Delete("/rooms/:roomId/participants/:participantId", s.handleRemoveParticipant)
	authed.Get("/rooms/:roomId/messages", s.handleRoomMessages)
	authed.Post("/rooms/:roomId/messages", s.handlePostMessage)

	authed.Post("/direct-messages", s.handleSendDirectMessage)
	authed.Get("/direct-messages/unread", s.handleUnreadCounts)
	authed.Get("/direct-messages/:userId", s.handleConversation)
	authed.Post("/direct-messages/:userId/read", s.handleMarkRead)

	authed.Get("/direct-chats", s.handleListDirectChats)
	authed.Post("/direct-chats", s.handleCreateDirectChat)

	authed.Get("/blocks", s.handleListBlocks)
	authed.Post("/blocks", s.handleCreateBlock)
	authed.Get("/blocks/:userId", s.handleBlockStatus)
	authed.Delete("/blocks/:userId", s.handleDeleteBlock)

	s.registerSocketRoutes()
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// body decodes and validates a JSON request body.
func (s *Server) body(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// fail maps service and store errors onto HTTP statuses.
func fail(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	case errors.Is(err, service.ErrBlocked),
		errors.Is(err, store.ErrNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, store.ErrUserAlreadyExists),
		errors.Is(err, store.ErrAlreadyParticipant),
		errors.Is(err, store.ErrAlreadyBlocked):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
}

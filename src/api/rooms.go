package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/parleychat/parley/src/store"
)

type createRoomRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type renameRoomRequest struct {
	Name string `json:"name" validate:"required"`
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=user system"`
}

func (s *Server) handleCreateRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	room, err := s.svc.CreateRoom(req.Name, req.Description, sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

func (s *Server) handleListRooms(c *fiber.Ctx) error {
	rooms, err := s.svc.RoomsFor(sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if rooms == nil {
		rooms = []store.Room{}
	}
	return c.JSON(rooms)
}

func (s *Server) handleRenameRoom(c *fiber.Ctx) error {
	var req renameRoomRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	room, err := s.svc.RenameRoom(c.Params("roomId"), sessionUserID(c), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

func (s *Server) handleDeleteRoom(c *fiber.Ctx) error {
	err := s.svc.DeleteRoom(c.Context(), c.Params("roomId"), sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Room deleted successfully"})
}

func (s *Server) handleInvite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	if err := s.svc.InviteToRoom(c.Params("roomId"), req.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User invited successfully"})
}

func (s *Server) handleLeaveRoom(c *fiber.Ctx) error {
	if err := s.svc.LeaveRoom(c.Params("roomId"), sessionUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left room successfully"})
}

func (s *Server) handleRemoveParticipant(c *fiber.Ctx) error {
	err := s.svc.RemoveParticipant(
		c.Params("roomId"), sessionUserID(c), c.Params("participantId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Participant removed successfully"})
}

func (s *Server) handleRoomMessages(c *fiber.Ctx) error {
	messages, err := s.svc.RoomMessages(c.Context(), c.Params("roomId"), sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if messages == nil {
		messages = []store.Message{}
	}
	return c.JSON(messages)
}

func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	var req postMessageRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	m, err := s.svc.PostMessage(
		c.Context(), c.Params("roomId"), sessionUserID(c), req.Content, req.Type)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

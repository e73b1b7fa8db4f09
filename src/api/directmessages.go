package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/parleychat/parley/src/store"
)

type sendDirectMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

type createDirectChatRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type blockRequest struct {
	BlockedUserID string `json:"blockedUserId" validate:"required"`
}

func (s *Server) handleSendDirectMessage(c *fiber.Ctx) error {
	var req sendDirectMessageRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	dm, err := s.svc.SendDirectMessage(sessionUserID(c), req.ReceiverID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dm)
}

func (s *Server) handleConversation(c *fiber.Ctx) error {
	messages, err := s.svc.Conversation(sessionUserID(c), c.Params("userId"))
	if err != nil {
		return fail(c, err)
	}
	if messages == nil {
		messages = []store.DirectMessage{}
	}
	return c.JSON(messages)
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	if err := s.svc.MarkConversationRead(sessionUserID(c), c.Params("userId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read"})
}

func (s *Server) handleUnreadCounts(c *fiber.Ctx) error {
	counts, err := s.svc.UnreadCounts(sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(counts)
}

func (s *Server) handleCreateDirectChat(c *fiber.Ctx) error {
	var req createDirectChatRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	friendship, created, err := s.svc.CreateDirectChat(sessionUserID(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	status := fiber.StatusOK
	message := "Direct chat already exists"
	if created {
		status = fiber.StatusCreated
		message = "Direct chat created successfully"
	}
	return c.Status(status).JSON(fiber.Map{
		"message":    message,
		"friendship": friendship,
	})
}

func (s *Server) handleListDirectChats(c *fiber.Ctx) error {
	chats, err := s.svc.DirectChats(sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if chats == nil {
		chats = []store.Friend{}
	}
	return c.JSON(chats)
}

func (s *Server) handleCreateBlock(c *fiber.Ctx) error {
	var req blockRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	b, err := s.svc.BlockUser(sessionUserID(c), req.BlockedUserID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (s *Server) handleListBlocks(c *fiber.Ctx) error {
	blocks, err := s.svc.BlocksOf(sessionUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if blocks == nil {
		blocks = []store.Block{}
	}
	return c.JSON(blocks)
}

func (s *Server) handleBlockStatus(c *fiber.Ctx) error {
	isBlocked, isBlockedBy, err := s.svc.BlockStatus(sessionUserID(c), c.Params("userId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"isBlocked":   isBlocked,
		"isBlockedBy": isBlockedBy,
	})
}

func (s *Server) handleDeleteBlock(c *fiber.Ctx) error {
	if err := s.svc.UnblockUser(sessionUserID(c), c.Params("userId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

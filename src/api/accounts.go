package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/parleychat/parley/src/store"
	"github.com/samber/lo"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type findUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// publicUser is the directory representation: never leaks the hash.
type publicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toPublicUser(u store.User) publicUser {
	return publicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	u, err := s.svc.Register(req.Name, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    toPublicUser(u),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	token, u, err := s.svc.Login(req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  toPublicUser(u),
	})
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.svc.ListUsers()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lo.Map(users, func(u store.User, _ int) publicUser {
		return toPublicUser(u)
	}))
}

func (s *Server) handleFindUser(c *fiber.Ctx) error {
	var req findUserRequest
	if err := s.body(c, &req); err != nil {
		return fail(c, err)
	}

	u, err := s.svc.FindUserByEmail(req.Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toPublicUser(u))
}

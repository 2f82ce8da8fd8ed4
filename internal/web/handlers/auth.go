package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/service"
	"tasktracker/internal/sessions"
)

type registerForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Landing renders the public start page.
func (h *Handler) Landing(c *fiber.Ctx) error {
	return h.render(c, "home", h.currentUser(c), nil)
}

func (h *Handler) RegisterPage(c *fiber.Ctx) error {
	return h.render(c, "register", nil, fiber.Map{"Title": "Register"})
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Error.Error("Bad request in register", zap.Error(err))
		return fiber.ErrBadRequest
	}

	_, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return h.fail(c, err, "/register", "")
	}
	return h.redirect(c, sessions.CategorySuccess, "Registration successful!", "/login")
}

func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return h.render(c, "login", nil, fiber.Map{"Title": "Log in"})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Error.Error("Bad request in login", zap.Error(err))
		return fiber.ErrBadRequest
	}

	user, err := h.accounts.Login(c.UserContext(), service.LoginInput{Email: form.Email, Password: form.Password})
	if errors.Is(err, service.ErrInvalidCredentials) {
		return h.redirect(c, sessions.CategoryDanger, "Invalid email or password.", "/login")
	}
	if err != nil {
		return h.fail(c, err, "/login", "")
	}

	sess, err := h.sessions.From(c)
	if err != nil {
		return err
	}
	if err := sess.Login(user.ID); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return h.redirect(c, sessions.CategorySuccess, fmt.Sprintf("Welcome back, %s!", user.Username), "/home")
}

func (h *Handler) Logout(c *fiber.Ctx, user models.Identity) error {
	sess, err := h.sessions.From(c)
	if err != nil {
		return err
	}
	if err := sess.Logout(); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	h.log.Audit.Info("Logout", zap.Uint("user_id", user.ID))
	return h.redirect(c, sessions.CategorySuccess, "You have Successfully logged out.", "/")
}

// currentUser is the optional identity shown on public pages. It never
// redirects; any failure just renders the page anonymously.
func (h *Handler) currentUser(c *fiber.Ctx) *models.Identity {
	sess, err := h.sessions.From(c)
	if err != nil {
		return nil
	}
	id, ok := sess.UserID()
	if !ok {
		return nil
	}
	user, err := h.accounts.Identify(c.UserContext(), id)
	if err != nil {
		return nil
	}
	return &user
}

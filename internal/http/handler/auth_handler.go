package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/sifan077/PowerLink/internal/app/service"
	"github.com/sifan077/PowerLink/internal/http/middleware"
	httpUtil "github.com/sifan077/PowerLink/internal/http/util"
	"go.uber.org/zap"
)

// AuthDeps groups dependencies required by the auth handlers.
type AuthDeps struct {
	Logger        *zap.Logger
	Auth          *service.AuthService
	Tokens        *httpUtil.TokenSigner
	SecureCookies bool
}

// AuthHandler opens and closes dashboard sessions.
type AuthHandler struct {
	logger        *zap.Logger
	auth          *service.AuthService
	tokens        *httpUtil.TokenSigner
	secureCookies bool
}

// NewAuthHandler creates an auth handler with the provided dependencies.
func NewAuthHandler(deps AuthDeps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		logger:        logger,
		auth:          deps.Auth,
		tokens:        deps.Tokens,
		secureCookies: deps.SecureCookies,
	}
}

// Register wires auth routes onto router, usually the /api/auth group. requireSession
// guards logout.
func (h *AuthHandler) Register(router fiber.Router, requireSession fiber.Handler) {
	router.Post("/login", h.Login)
	router.Post("/register", h.SignUp)
	router.Post("/logout", requireSession, h.Logout)
}

// SessionResponse is returned when a session has been opened.
type SessionResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.Credentials
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	session, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return h.authError(c, err, "invalid credentials")
	}
	return h.issue(c, fiber.StatusOK, session)
}

// SignUp handles POST /api/auth/register. When the backend does not log the new
// user in, it answers 201 without a session.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req model.Registration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	session, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return h.authError(c, err, "registration rejected")
	}
	if session == nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"registered": true,
			"message":    "account created, please log in",
		})
	}
	return h.issue(c, fiber.StatusCreated, session)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), middleware.CurrentSession(c)); err != nil {
		h.logger.Error("failed to close session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to log out",
		})
	}

	c.Cookie(h.cookie("", time.Unix(0, 0)))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) issue(c *fiber.Ctx, status int, session *model.Session) error {
	token, err := h.tokens.Issue(session.ID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to open session",
		})
	}

	expires := time.Now().Add(h.tokens.TTL())
	c.Cookie(h.cookie(token, expires))
	return c.Status(status).JSON(SessionResponse{
		Token:     token,
		Username:  session.Username,
		ExpiresAt: expires.UTC(),
	})
}

func (h *AuthHandler) cookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// authError maps backend 401/403/422 answers during login or register onto the client.
func (h *AuthHandler) authError(c *fiber.Ctx, err error, rejected string) error {
	switch status := service.HTTPStatus(err); {
	case status == fiber.StatusUnauthorized, status == fiber.StatusForbidden:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": rejected})
	case errors.Is(err, service.ErrNotAuthenticated):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return writeError(c, h.logger, err)
}

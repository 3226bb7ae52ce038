package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"github.com/sifan077/PowerLink/internal/http/util"
	"go.uber.org/zap"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "session"

	sessionLocal = "session"
)

// SessionLoader resolves a session id to the stored session.
type SessionLoader interface {
	Session(ctx context.Context, id string) (*model.Session, error)
}

// SessionRequired rejects requests without a valid session and stores the session in
// c.Locals for the handlers.
func SessionRequired(signer *util.TokenSigner, sessions SessionLoader, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		sessionID, err := signer.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
		}

		session, err := sessions.Session(c.UserContext(), sessionID)
		if err != nil {
			if errors.Is(err, apprepository.ErrSessionNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired"})
			}
			logger.Error("failed to load session", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session store unavailable"})
		}

		c.Locals(sessionLocal, session)
		return c.Next()
	}
}

// CurrentSession returns the session stored by SessionRequired, or nil.
func CurrentSession(c *fiber.Ctx) *model.Session {
	session, _ := c.Locals(sessionLocal).(*model.Session)
	return session
}

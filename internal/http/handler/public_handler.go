package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/PowerLink/internal/app/service"
	"github.com/sifan077/PowerLink/internal/http/view"
	"go.uber.org/zap"
)

const clickPublishTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// PublicDeps groups dependencies required by the public profile handlers.
type PublicDeps struct {
	Logger         *zap.Logger
	Profiles       *service.ProfileService
	ClickPublisher *service.ClickPublisher
	Checks         map[string]ReadinessCheck
}

// PublicHandler serves profile pages and click-through redirects.
type PublicHandler struct {
	logger         *zap.Logger
	profiles       *service.ProfileService
	clickPublisher *service.ClickPublisher
	checks         map[string]ReadinessCheck
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger:         logger,
		profiles:       deps.Profiles,
		clickPublisher: deps.ClickPublisher,
		checks:         deps.Checks,
	}
}

// RegisterProbes wires the health endpoints. They must be registered before Register
// so the profile route does not shadow them.
func (h *PublicHandler) RegisterProbes(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

// Register wires the public profile routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	router.Get("/:username", h.Profile)
	router.Get("/:username/go/:id", h.Go)
}

// Health is a simple root endpoint so we know the service is running.
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "PowerLink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings every configured dependency.
func (h *PublicHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	results := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return c.Status(status).JSON(fiber.Map{"checks": results})
}

// Profile handles GET /:username and renders the public link page.
func (h *PublicHandler) Profile(c *fiber.Ctx) error {
	username := c.Params("username")
	profile, err := h.profiles.Public(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return h.renderNotFound(c, username)
		}
		h.logger.Error("failed to load profile", zap.String("username", username), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "profile is temporarily unavailable",
		})
	}

	html, err := view.RenderProfilePage(view.NewProfilePageData(profile))
	if err != nil {
		h.logger.Error("failed to render profile page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}

// Go handles GET /:username/go/:id, records the click and redirects to the link.
func (h *PublicHandler) Go(c *fiber.Ctx) error {
	// Params aliases the request buffer; the click is published after the Ctx is released
	username := utils.CopyString(c.Params("username"))
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "link not found",
		})
	}

	link, err := h.profiles.Link(c.UserContext(), username, id)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) || errors.Is(err, service.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to resolve link", zap.String("username", username), zap.Int64("link_id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "link is temporarily unavailable",
		})
	}

	if h.clickPublisher != nil {
		ip, userAgent := c.IP(), string(c.Request().Header.UserAgent())
		go h.publishClick(username, id, ip, userAgent)
	}

	h.logger.Debug("click-through redirect", zap.String("username", username), zap.Int64("link_id", id))
	return c.Redirect(link.URL, fiber.StatusFound)
}

func (h *PublicHandler) publishClick(username string, linkID int64, ip, userAgent string) {
	ctx, cancel := context.WithTimeout(context.Background(), clickPublishTimeout)
	defer cancel()

	if _, err := h.clickPublisher.Publish(ctx, username, linkID, ip, userAgent); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("username", username),
			zap.Int64("link_id", linkID),
			zap.Error(err),
		)
	}
}

func (h *PublicHandler) renderNotFound(c *fiber.Ctx, username string) error {
	html, err := view.RenderNotFoundPage(username)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "profile not found",
		})
	}
	return c.
		Status(fiber.StatusNotFound).
		Type("html", "utf-8").
		SendString(html)
}

package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"github.com/sifan077/PowerLink/internal/app/service"
	"github.com/sifan077/PowerLink/internal/http/middleware"
	"go.uber.org/zap"
)

// DashboardDeps groups dependencies required by the dashboard API handlers.
type DashboardDeps struct {
	Logger         *zap.Logger
	Workspaces     *service.Workspaces
	Users          *service.UserService
	Notifications  apprepository.NotificationRepository
	ClickStats     apprepository.ClickStatsRepository
	MaxUploadBytes int64
}

// DashboardHandler implements the authenticated link management API.
type DashboardHandler struct {
	logger         *zap.Logger
	workspaces     *service.Workspaces
	users          *service.UserService
	notifications  apprepository.NotificationRepository
	clickStats     apprepository.ClickStatsRepository
	maxUploadBytes int64
}

// NewDashboardHandler creates a dashboard handler with the provided dependencies.
func NewDashboardHandler(deps DashboardDeps) *DashboardHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		logger:         logger,
		workspaces:     deps.Workspaces,
		users:          deps.Users,
		notifications:  deps.Notifications,
		clickStats:     deps.ClickStats,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}

// Register wires dashboard routes onto router. Every route expects SessionRequired
// to have run.
func (h *DashboardHandler) Register(router fiber.Router) {
	links := router.Group("/links")
	{
		links.Get("/", h.ListLinks)
		links.Post("/", h.CreateLink)
		links.Post("/reorder", h.ReorderLinks)
		links.Get("/stats", h.LinkStats)
		links.Patch("/:id", h.UpdateLink)
		links.Delete("/:id", h.DeleteLink)
	}

	notifications := router.Group("/notifications")
	{
		notifications.Get("/", h.ListNotifications)
		notifications.Delete("/:id", h.DismissNotification)
	}

	router.Get("/me", h.Me)
	router.Patch("/me", h.UpdateMe)
}

// LinkListResponse is the dashboard view of the collection.
type LinkListResponse struct {
	Links     []model.Link `json:"links"`
	Count     int          `json:"count"`
	LinkLimit int          `json:"link_limit"`
	CanCreate bool         `json:"can_create"`
	ShareURL  string       `json:"share_url"`
}

// ListLinks handles GET /api/links. The collection is refetched only when no backend
// call is in flight, so a running reconciliation is never overwritten by stale order.
func (h *DashboardHandler) ListLinks(c *fiber.Ctx) error {
	manager := h.workspaces.Manager(middleware.CurrentSession(c))
	if !manager.Loaded() || manager.Idle() {
		if err := manager.Refresh(c.UserContext()); err != nil {
			return writeError(c, h.logger, err)
		}
	}
	return c.JSON(h.listResponse(manager))
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	Title       string  `json:"title" form:"title"`
	URL         string  `json:"url" form:"url"`
	Description *string `json:"description,omitempty" form:"description"`
}

// CreateLink handles POST /api/links (JSON or multipart with an icon file)
func (h *DashboardHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	icon, err := readUpload(c, "icon", h.maxUploadBytes)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	ctx := c.UserContext()
	manager, err := h.manager(ctx, c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	if !manager.CanCreate() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "limit reached",
		})
	}

	link, err := manager.Create(ctx, service.CreateLinkInput{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Icon:        icon,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(link)
}

// UpdateLinkRequest represents the request body for updating a link.
type UpdateLinkRequest struct {
	Title       *string `json:"title,omitempty" form:"title"`
	URL         *string `json:"url,omitempty" form:"url"`
	Description *string `json:"description,omitempty" form:"description"`
	IsActive    *bool   `json:"is_active,omitempty" form:"is_active"`
	Order       *int    `json:"order,omitempty" form:"order"`
}

// UpdateLink handles PATCH /api/links/:id
func (h *DashboardHandler) UpdateLink(c *fiber.Ctx) error {
	id, ok := linkID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid link id",
		})
	}

	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	icon, err := readUpload(c, "icon", h.maxUploadBytes)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	ctx := c.UserContext()
	manager, err := h.manager(ctx, c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	link, err := manager.Update(ctx, id, model.LinkPatch{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		IsActive:    req.IsActive,
		Order:       req.Order,
		Icon:        icon,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	if link == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(link)
}

// DeleteLink handles DELETE /api/links/:id
func (h *DashboardHandler) DeleteLink(c *fiber.Ctx) error {
	id, ok := linkID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid link id",
		})
	}

	ctx := c.UserContext()
	manager, err := h.manager(ctx, c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	if err := manager.Delete(ctx, id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderRequest moves the link at From to position To.
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// ReorderLinks handles POST /api/links/reorder. It answers with the new order right
// away; order updates continue in the background.
func (h *DashboardHandler) ReorderLinks(c *fiber.Ctx) error {
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.From == nil || req.To == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "from and to are required",
		})
	}

	ctx := c.UserContext()
	manager, err := h.manager(ctx, c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	rec, err := manager.Reorder(ctx, *req.From, *req.To)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"links":           manager.Links(),
		"pending_updates": rec.Pending(),
		"changes":         rec.Changes,
	})
}

// LinkStats handles GET /api/links/stats
func (h *DashboardHandler) LinkStats(c *fiber.Ctx) error {
	if h.clickStats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "click statistics are not available",
		})
	}

	ctx := c.UserContext()
	manager, err := h.manager(ctx, c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	stats, err := h.clickStats.CountByUser(ctx, manager.Username())
	if err != nil {
		h.logger.Error("failed to load click stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load click statistics",
		})
	}
	if stats == nil {
		stats = []model.LinkClicks{}
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// ListNotifications handles GET /api/notifications
func (h *DashboardHandler) ListNotifications(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	items, err := h.notifications.List(c.UserContext(), session.ID)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list notifications",
		})
	}
	return c.JSON(fiber.Map{"notifications": items})
}

// DismissNotification handles DELETE /api/notifications/:id
func (h *DashboardHandler) DismissNotification(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	err := h.notifications.Dismiss(c.UserContext(), session.ID, c.Params("id"))
	switch {
	case errors.Is(err, apprepository.ErrNotificationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "notification not found",
		})
	case err != nil:
		h.logger.Error("failed to dismiss notification", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to dismiss notification",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/me
func (h *DashboardHandler) Me(c *fiber.Ctx) error {
	profile, err := h.users.Me(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(profile)
}

// UpdateMeRequest represents the profile settings form.
type UpdateMeRequest struct {
	Name             *string      `json:"name,omitempty" form:"name"`
	Bio              *string      `json:"bio,omitempty" form:"bio"`
	Theme            *model.Theme `json:"theme,omitempty" form:"-"`
	RemoveBackground bool         `json:"remove_background,omitempty" form:"remove_background"`
}

// UpdateMe handles PATCH /api/me (JSON, or multipart with avatar and background_image files
// and theme[key] fields)
func (h *DashboardHandler) UpdateMe(c *fiber.Ctx) error {
	var req UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Theme == nil {
		req.Theme = themeFromForm(c)
	}

	avatar, err := readUpload(c, "avatar", h.maxUploadBytes)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	background, err := readUpload(c, "background_image", h.maxUploadBytes)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	profile, err := h.users.UpdateProfile(c.UserContext(), middleware.CurrentSession(c), model.ProfileUpdate{
		Name:             req.Name,
		Bio:              req.Bio,
		Avatar:           avatar,
		Theme:            req.Theme,
		BackgroundImage:  background,
		RemoveBackground: req.RemoveBackground,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(profile)
}

// manager returns the session's link manager, loading it from the backend on first use.
func (h *DashboardHandler) manager(ctx context.Context, c *fiber.Ctx) (*service.LinkManager, error) {
	manager := h.workspaces.Manager(middleware.CurrentSession(c))
	if !manager.Loaded() {
		if err := manager.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func (h *DashboardHandler) listResponse(manager *service.LinkManager) LinkListResponse {
	links := manager.Links()
	return LinkListResponse{
		Links:     links,
		Count:     len(links),
		LinkLimit: manager.LinkLimit(),
		CanCreate: manager.CanCreate(),
		ShareURL:  h.users.ShareURL(manager.Username()),
	}
}

func linkID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func themeFromForm(c *fiber.Ctx) *model.Theme {
	theme := model.Theme{
		BackgroundType:        c.FormValue("theme[backgroundType]"),
		BackgroundColor:       c.FormValue("theme[backgroundColor]"),
		BackgroundGradient:    c.FormValue("theme[backgroundGradient]"),
		TextColor:             c.FormValue("theme[textColor]"),
		FontFamily:            c.FormValue("theme[fontFamily]"),
		ButtonStyle:           c.FormValue("theme[buttonStyle]"),
		ButtonType:            c.FormValue("theme[buttonType]"),
		ButtonBackgroundColor: c.FormValue("theme[buttonBackgroundColor]"),
		ButtonTextColor:       c.FormValue("theme[buttonTextColor]"),
	}
	if theme == (model.Theme{}) {
		return nil
	}
	return &theme
}

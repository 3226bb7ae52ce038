package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PowerLink/internal/app/model"
	"go.uber.org/zap"
)

// LinkGateway is the remote contract the link manager reads from and persists through.
type LinkGateway interface {
	FetchUser(ctx context.Context) (*model.User, error)
	FetchLinks(ctx context.Context) ([]model.Link, error)
	CreateLink(ctx context.Context, draft model.LinkDraft) (*model.Link, error)
	UpdateLink(ctx context.Context, id int64, patch model.LinkPatch) (*model.Link, error)
	DeleteLink(ctx context.Context, id int64) error
}

// Notifier receives user-visible notifications about failed operations.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}

// RecordState is the lifecycle state of one link as seen by the manager.
type RecordState int

const (
	StateAbsent RecordState = iota
	StateActive
	StatePendingUpdate
	StatePendingDelete
)

func (s RecordState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePendingUpdate:
		return "pending_update"
	case StatePendingDelete:
		return "pending_delete"
	default:
		return "absent"
	}
}

const (
	defaultReconcileConcurrency = 4
	defaultMaxUploadBytes       = 2 * 1024 * 1024
)

// ManagerOptions tunes a LinkManager.
type ManagerOptions struct {
	Logger               *zap.Logger
	Notifier             Notifier
	ReconcileConcurrency int
	MaxUploadBytes       int64
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	Title       string
	URL         string
	Description *string
	Icon        *model.Upload
}

// LinkManager owns the ordered link collection of one session.
//
// The local collection is sorted ascending by order at rest. Reorder applies locally
// before the backend confirms; Create, Update and Delete change local state only after
// the backend acknowledged them. The mutex is never held across a gateway call.
type LinkManager struct {
	gateway        LinkGateway
	notifier       Notifier
	logger         *zap.Logger
	concurrency    int
	maxUploadBytes int64

	mu         sync.Mutex
	links      []model.Link
	linkLimit  int
	username   string
	pending    map[int64]RecordState
	reordering map[int64]int
	creating   bool
	loaded     bool
}

// NewLinkManager returns an empty manager persisting through gateway.
func NewLinkManager(gateway LinkGateway, opts ManagerOptions) *LinkManager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	concurrency := opts.ReconcileConcurrency
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &LinkManager{
		gateway:        gateway,
		notifier:       notifier,
		logger:         logger,
		concurrency:    concurrency,
		maxUploadBytes: maxUpload,
		pending:        make(map[int64]RecordState),
		reordering:     make(map[int64]int),
	}
}

// Load replaces the local collection with records sorted by order.
func (m *LinkManager) Load(records []model.Link) {
	sorted := make([]model.Link, len(records))
	copy(sorted, records)
	sortLinks(sorted)

	m.mu.Lock()
	m.links = sorted
	m.mu.Unlock()
}

// Refresh fetches the user and the link set from the backend and loads them.
func (m *LinkManager) Refresh(ctx context.Context) error {
	user, err := m.gateway.FetchUser(ctx)
	if err != nil {
		return err
	}
	links, err := m.gateway.FetchLinks(ctx)
	if err != nil {
		return err
	}

	m.Load(links)

	m.mu.Lock()
	m.linkLimit = user.LinkLimit
	m.username = user.Username
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Loaded reports whether Refresh has completed at least once.
func (m *LinkManager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// SetUser records the link limit and username of the session owner.
func (m *LinkManager) SetUser(user model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkLimit = user.LinkLimit
	m.username = user.Username
}

// Links returns a copy of the local collection in display order.
func (m *LinkManager) Links() []model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Link, len(m.links))
	copy(out, m.links)
	return out
}

// Len returns the number of links in the local collection.
func (m *LinkManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

// LinkLimit returns the cap on the collection size.
func (m *LinkManager) LinkLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkLimit
}

// Username returns the owner's username as last fetched.
func (m *LinkManager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.username
}

// CanCreate reports whether another link fits under the link limit.
func (m *LinkManager) CanCreate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linkLimit > 0 && len(m.links) < m.linkLimit
}

// Creating reports whether a create request is in flight.
func (m *LinkManager) Creating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creating
}

// Idle reports whether no backend call is in flight for any record.
func (m *LinkManager) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.creating && len(m.pending) == 0 && len(m.reordering) == 0
}

// State returns the lifecycle state of the link with the given id.
func (m *LinkManager) State(id int64) RecordState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.pending[id]; ok {
		return s
	}
	if m.reordering[id] > 0 {
		return StatePendingUpdate
	}
	if m.indexOf(id) >= 0 {
		return StateActive
	}
	return StateAbsent
}

// Create validates input and asks the backend to append a new link at the end of
// the collection. The local collection only grows once the backend returned the record.
func (m *LinkManager) Create(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if err := m.validateCreate(input); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.creating {
		m.mu.Unlock()
		return nil, ErrRecordBusy
	}
	m.creating = true
	order := len(m.links)
	m.mu.Unlock()

	created, err := m.gateway.CreateLink(ctx, model.LinkDraft{
		Title:       strings.TrimSpace(input.Title),
		URL:         strings.TrimSpace(input.URL),
		Description: input.Description,
		Order:       order,
		Icon:        input.Icon,
		IsActive:    true,
	})

	m.mu.Lock()
	m.creating = false
	if err != nil {
		m.mu.Unlock()
		if HTTPStatus(err) == http.StatusForbidden {
			err = joinLimit(err)
		}
		return nil, m.fail(ctx, OpCreate, 0, err)
	}
	m.links = append(m.links, *created)
	sortLinks(m.links)
	m.mu.Unlock()

	m.logger.Debug("link created", zap.Int64("link_id", created.ID), zap.Int("order", created.Order))
	out := *created
	return &out, nil
}

// Update sends a partial update and merges the acknowledged record into the collection.
func (m *LinkManager) Update(ctx context.Context, id int64, patch model.LinkPatch) (*model.Link, error) {
	if err := m.validatePatch(patch); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.indexOf(id) < 0 {
		m.mu.Unlock()
		return nil, ErrLinkNotFound
	}
	if m.busy(id) {
		m.mu.Unlock()
		return nil, ErrRecordBusy
	}
	m.pending[id] = StatePendingUpdate
	m.mu.Unlock()

	updated, err := m.gateway.UpdateLink(ctx, id, patch)

	m.mu.Lock()
	delete(m.pending, id)
	if err != nil {
		m.mu.Unlock()
		return nil, m.fail(ctx, OpUpdate, id, err)
	}
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return updated, nil
	}
	merged := mergeLink(m.links[idx], patch, updated)
	m.links[idx] = merged
	if patch.Order != nil {
		sortLinks(m.links)
	}
	m.mu.Unlock()

	return &merged, nil
}

// Delete asks the backend to remove the link and drops it locally on success.
func (m *LinkManager) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	if m.indexOf(id) < 0 {
		m.mu.Unlock()
		return ErrLinkNotFound
	}
	if m.busy(id) {
		m.mu.Unlock()
		return ErrRecordBusy
	}
	m.pending[id] = StatePendingDelete
	m.mu.Unlock()

	err := m.gateway.DeleteLink(ctx, id)

	m.mu.Lock()
	delete(m.pending, id)
	if err != nil {
		m.mu.Unlock()
		return m.fail(ctx, OpDelete, id, err)
	}
	if idx := m.indexOf(id); idx >= 0 {
		m.links = append(m.links[:idx], m.links[idx+1:]...)
	}
	m.mu.Unlock()

	m.logger.Debug("link deleted", zap.Int64("link_id", id))
	return nil
}

func (m *LinkManager) validateCreate(input CreateLinkInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(input.URL) == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}
	return m.validateUpload("icon", input.Icon)
}

func (m *LinkManager) validatePatch(patch model.LinkPatch) error {
	if patch.Empty() {
		return &ValidationError{Field: "body", Message: "no fields to update"}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return &ValidationError{Field: "url", Message: "must not be empty"}
	}
	if patch.Order != nil && *patch.Order < 0 {
		return &ValidationError{Field: "order", Message: "must not be negative"}
	}
	return m.validateUpload("icon", patch.Icon)
}

func (m *LinkManager) validateUpload(field string, upload *model.Upload) error {
	if upload.Size() > m.maxUploadBytes {
		return &ValidationError{Field: field, Message: "file is too large"}
	}
	return nil
}

// fail wraps err, logs it and raises a notification so the failure is never silent.
func (m *LinkManager) fail(ctx context.Context, op string, id int64, err error) error {
	perr := &PersistenceError{Op: op, LinkID: id, Err: err}
	m.logger.Error("link operation failed",
		zap.String("op", op),
		zap.Int64("link_id", id),
		zap.Error(err),
	)
	m.notify(ctx, model.NotificationError, perr)
	return perr
}

func (m *LinkManager) notify(ctx context.Context, level string, perr *PersistenceError) {
	m.notifier.Notify(context.WithoutCancel(ctx), model.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Op:        perr.Op,
		LinkID:    perr.LinkID,
		Message:   perr.Error(),
		CreatedAt: time.Now().UTC(),
	})
}

// indexOf must be called with mu held.
func (m *LinkManager) indexOf(id int64) int {
	for i := range m.links {
		if m.links[i].ID == id {
			return i
		}
	}
	return -1
}

// busy must be called with mu held.
func (m *LinkManager) busy(id int64) bool {
	_, pending := m.pending[id]
	return pending || m.reordering[id] > 0
}

func sortLinks(links []model.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Order < links[j].Order
	})
}

// mergeLink folds an acknowledged update into the local record. The backend copy
// wins for content fields; order only changes when the patch asked for it, so an
// in-flight reorder is not undone by a stale response.
func mergeLink(local model.Link, patch model.LinkPatch, remote *model.Link) model.Link {
	if remote != nil && remote.ID == local.ID {
		merged := *remote
		if patch.Order == nil {
			merged.Order = local.Order
		}
		return merged
	}

	if patch.Title != nil {
		local.Title = *patch.Title
	}
	if patch.URL != nil {
		local.URL = *patch.URL
	}
	if patch.Description != nil {
		desc := *patch.Description
		local.Description = &desc
	}
	if patch.IsActive != nil {
		local.IsActive = *patch.IsActive
	}
	if patch.Order != nil {
		local.Order = *patch.Order
	}
	return local
}

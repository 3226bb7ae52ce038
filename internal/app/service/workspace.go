package service

import (
	"context"
	"sync"
	"time"

	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	metrics "github.com/sifan077/PowerLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Account is everything the dashboard does on behalf of one logged-in user.
type Account interface {
	LinkGateway
	UpdateUser(ctx context.Context, update model.ProfileUpdate) (*model.User, error)
	Logout(ctx context.Context) error
}

// AccountFactory binds a backend account to a bearer token.
type AccountFactory func(token string) Account

// WorkspaceOptions configures a Workspaces registry.
type WorkspaceOptions struct {
	Manager         ManagerOptions
	IdleTTL         time.Duration
	SweepInterval   time.Duration
	NotificationTTL time.Duration
}

type workspace struct {
	account  Account
	manager  *LinkManager
	notifier Notifier
	lastUsed time.Time
}

// Workspaces keeps one LinkManager per session and evicts the ones left idle.
type Workspaces struct {
	factory       AccountFactory
	notifications apprepository.NotificationRepository
	opts          WorkspaceOptions
	logger        *zap.Logger
	now           func() time.Time

	mu       sync.Mutex
	entries  map[string]*workspace
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWorkspaces creates an empty registry.
func NewWorkspaces(factory AccountFactory, notifications apprepository.NotificationRepository, opts WorkspaceOptions, logger *zap.Logger) *Workspaces {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = 7 * 24 * time.Hour
	}
	return &Workspaces{
		factory:       factory,
		notifications: notifications,
		opts:          opts,
		logger:        logger,
		now:           time.Now,
		entries:       make(map[string]*workspace),
		stopChan:      make(chan struct{}),
	}
}

// Manager returns the link manager of session, creating it on first use.
func (w *Workspaces) Manager(session *model.Session) *LinkManager {
	return w.get(session).manager
}

// Account returns the backend account of session.
func (w *Workspaces) Account(session *model.Session) Account {
	return w.get(session).account
}

// Notifier returns the notifier of session.
func (w *Workspaces) Notifier(session *model.Session) Notifier {
	return w.get(session).notifier
}

func (w *Workspaces) get(session *model.Session) *workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ws, ok := w.entries[session.ID]; ok {
		ws.lastUsed = w.now()
		return ws
	}

	account := w.factory(session.Token)
	notifier := NewSessionNotifier(w.notifications, session.ID, w.opts.NotificationTTL, w.logger)
	managerOpts := w.opts.Manager
	managerOpts.Notifier = notifier
	managerOpts.Logger = w.logger.With(zap.String("username", session.Username))

	ws := &workspace{
		account:  account,
		manager:  NewLinkManager(account, managerOpts),
		notifier: notifier,
		lastUsed: w.now(),
	}
	w.entries[session.ID] = ws
	metrics.Workspaces.Set(float64(len(w.entries)))
	return ws
}

// Drop forgets the workspace of sessionID.
func (w *Workspaces) Drop(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entries, sessionID)
	metrics.Workspaces.Set(float64(len(w.entries)))
}

// Len returns the number of live workspaces.
func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Start begins evicting idle workspaces in the background.
func (w *Workspaces) Start() {
	go w.run()
}

// Stop stops the eviction loop.
func (w *Workspaces) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Workspaces) run() {
	ticker := time.NewTicker(w.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			w.logger.Info("workspace janitor stopped")
			return
		}
	}
}

// sweep evicts workspaces unused for longer than the idle TTL. A workspace with a
// backend call in flight is kept until the next pass.
func (w *Workspaces) sweep() int {
	expiredBefore := w.now().Add(-w.opts.IdleTTL)

	w.mu.Lock()
	evicted := 0
	for id, ws := range w.entries {
		if ws.lastUsed.After(expiredBefore) || !ws.manager.Idle() {
			continue
		}
		delete(w.entries, id)
		evicted++
	}
	remaining := len(w.entries)
	w.mu.Unlock()

	metrics.Workspaces.Set(float64(remaining))
	if evicted > 0 {
		w.logger.Info("evicted idle workspaces",
			zap.Int("count", evicted),
			zap.Time("expired_before", expiredBefore),
		)
	}
	return evicted
}

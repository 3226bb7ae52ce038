package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned when the backend accepted a request but issued no token.
var ErrNotAuthenticated = errors.New("backend did not issue a token")

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error)
}

// AuthService manages login sessions.
type AuthService struct {
	backend       Authenticator
	sessions      apprepository.SessionRepository
	notifications apprepository.NotificationRepository
	workspaces    *Workspaces
	ttl           time.Duration
	logger        *zap.Logger
}

// NewAuthService returns an AuthService storing sessions for ttl.
func NewAuthService(
	backend Authenticator,
	sessions apprepository.SessionRepository,
	notifications apprepository.NotificationRepository,
	workspaces *Workspaces,
	ttl time.Duration,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		backend:       backend,
		sessions:      sessions,
		notifications: notifications,
		workspaces:    workspaces,
		ttl:           ttl,
		logger:        logger,
	}
}

// TTL is the lifetime of a new session.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// Login authenticates against the backend and opens a session.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "is required"}
	}
	if creds.Password == "" {
		return nil, &ValidationError{Field: "password", Message: "is required"}
	}

	result, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, result)
}

// Register creates the account and, when the backend logs the user in, opens a
// session. A nil session with a nil error means the user must log in next.
func (s *AuthService) Register(ctx context.Context, reg model.Registration) (*model.Session, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}

	result, err := s.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, nil
	}
	if result.User == nil {
		result.User = &model.User{Username: reg.Username}
	}
	return s.open(ctx, result)
}

// Session loads an open session.
func (s *AuthService) Session(ctx context.Context, id string) (*model.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Logout revokes the backend token and closes the session. A backend failure is
// logged; the local session is closed regardless.
func (s *AuthService) Logout(ctx context.Context, session *model.Session) error {
	if err := s.workspaces.Account(session).Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", zap.String("username", session.Username), zap.Error(err))
	}

	s.workspaces.Drop(session.ID)
	if err := s.notifications.Clear(ctx, session.ID); err != nil {
		s.logger.Warn("failed to clear notifications", zap.String("session_id", session.ID), zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) open(ctx context.Context, result *model.AuthResult) (*model.Session, error) {
	if result == nil || result.Token == "" {
		return nil, ErrNotAuthenticated
	}

	session := &model.Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		CreatedAt: time.Now().UTC(),
	}
	if result.User != nil {
		session.Username = result.User.Username
	}
	if err := s.sessions.Save(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session opened", zap.String("username", session.Username))
	return session, nil
}

func validateRegistration(reg *model.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	switch {
	case reg.Name == "":
		return &ValidationError{Field: "name", Message: "is required"}
	case reg.Username == "":
		return &ValidationError{Field: "username", Message: "is required"}
	case strings.ContainsAny(reg.Username, "/?# "):
		return &ValidationError{Field: "username", Message: "contains invalid characters"}
	case reg.Email == "":
		return &ValidationError{Field: "email", Message: "is required"}
	case reg.Password == "":
		return &ValidationError{Field: "password", Message: "is required"}
	case reg.Password != reg.PasswordConfirmation:
		return &ValidationError{Field: "password_confirmation", Message: "does not match"}
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

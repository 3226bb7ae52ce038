package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PowerLink/internal/app/model"
	"go.uber.org/zap"
)

// UserService reads and edits the logged-in user's profile.
type UserService struct {
	workspaces     *Workspaces
	publicBaseURL  string
	storageURL     string
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewUserService returns a UserService.
func NewUserService(workspaces *Workspaces, publicBaseURL, storageURL string, maxUploadBytes int64, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	if storageURL != "" && !strings.HasSuffix(storageURL, "/") {
		storageURL += "/"
	}
	return &UserService{
		workspaces:     workspaces,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		storageURL:     storageURL,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Profile is the user as shown in the dashboard settings.
type Profile struct {
	*model.User
	ShareURL  string  `json:"share_url"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ShareURL is the public address of username's profile.
func (s *UserService) ShareURL(username string) string {
	if username == "" {
		return ""
	}
	return s.publicBaseURL + "/" + url.PathEscape(username)
}

// Me fetches the session owner.
func (s *UserService) Me(ctx context.Context, session *model.Session) (*Profile, error) {
	user, err := s.workspaces.Account(session).FetchUser(ctx)
	if err != nil {
		return nil, err
	}
	s.workspaces.Manager(session).SetUser(*user)
	return s.profile(user), nil
}

// UpdateProfile validates update and sends it to the backend. Failures raise a
// notification like every other failed edit.
func (s *UserService) UpdateProfile(ctx context.Context, session *model.Session, update model.ProfileUpdate) (*Profile, error) {
	if err := s.validate(update); err != nil {
		return nil, err
	}

	user, err := s.workspaces.Account(session).UpdateUser(ctx, update)
	if err != nil {
		perr := &PersistenceError{Op: OpProfile, Err: err}
		s.logger.Error("profile update failed", zap.String("username", session.Username), zap.Error(err))
		s.workspaces.Notifier(session).Notify(context.WithoutCancel(ctx), model.Notification{
			ID:        uuid.NewString(),
			Level:     model.NotificationError,
			Op:        OpProfile,
			Message:   perr.Error(),
			CreatedAt: time.Now().UTC(),
		})
		return nil, perr
	}

	s.workspaces.Manager(session).SetUser(*user)
	return s.profile(user), nil
}

func (s *UserService) validate(update model.ProfileUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if update.Avatar.Size() > s.maxUploadBytes {
		return &ValidationError{Field: "avatar", Message: "file is too large"}
	}
	if update.BackgroundImage.Size() > s.maxUploadBytes {
		return &ValidationError{Field: "background_image", Message: "file is too large"}
	}
	if update.Theme != nil {
		switch update.Theme.BackgroundType {
		case "", model.BackgroundSolid, model.BackgroundGradient, model.BackgroundImage:
		default:
			return &ValidationError{Field: "theme.backgroundType", Message: "must be solid, gradient or image"}
		}
	}
	return nil
}

func (s *UserService) profile(user *model.User) *Profile {
	p := &Profile{User: user, ShareURL: s.ShareURL(user.Username)}
	if user.Avatar != nil && *user.Avatar != "" {
		avatar := resolveAsset(s.storageURL, *user.Avatar)
		p.AvatarURL = &avatar
	}
	return p
}

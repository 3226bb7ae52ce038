package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/sifan077/PowerLink/internal/app/model"
	"go.uber.org/zap"
)

// ProfileSource reads public profiles from the backend.
type ProfileSource interface {
	PublicProfile(ctx context.Context, username string) (*model.PublicProfile, error)
}

// ProfileService prepares public profiles for display.
type ProfileService struct {
	source     ProfileSource
	storageURL string
	logger     *zap.Logger
}

// NewProfileService returns a ProfileService. Relative asset paths are resolved
// against storageURL.
func NewProfileService(source ProfileSource, storageURL string, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storageURL != "" && !strings.HasSuffix(storageURL, "/") {
		storageURL += "/"
	}
	return &ProfileService{source: source, storageURL: storageURL, logger: logger}
}

// Public returns the profile of username with only active links, sorted by order,
// every asset URL made absolute and every theme field filled in.
func (s *ProfileService) Public(ctx context.Context, username string) (*model.PublicProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrProfileNotFound
	}

	profile, err := s.source.PublicProfile(ctx, username)
	if err != nil {
		if HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("failed to fetch public profile", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	links := make([]model.Link, 0, len(profile.Links))
	for _, l := range profile.Links {
		if !l.IsActive {
			continue
		}
		l.Icon = s.resolvePtr(l.Icon)
		links = append(links, l)
	}
	sortLinks(links)

	user := profile.User
	user.Links = nil
	user.Avatar = s.resolvePtr(user.Avatar)
	theme := user.Theme.WithDefaults()
	theme.BackgroundImage = s.resolvePtr(theme.BackgroundImage)
	user.Theme = &theme

	return &model.PublicProfile{User: user, Links: links}, nil
}

// Link returns the active link id of username's profile.
func (s *ProfileService) Link(ctx context.Context, username string, id int64) (*model.Link, error) {
	profile, err := s.Public(ctx, username)
	if err != nil {
		return nil, err
	}
	for i := range profile.Links {
		if profile.Links[i].ID == id {
			return &profile.Links[i], nil
		}
	}
	return nil, ErrLinkNotFound
}

func (s *ProfileService) resolvePtr(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	resolved := resolveAsset(s.storageURL, *path)
	return &resolved
}

func resolveAsset(base, path string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || base == "" {
		return path
	}
	return base + strings.TrimLeft(path, "/")
}

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileSourceFunc func(ctx context.Context, username string) (*model.PublicProfile, error)

func (f profileSourceFunc) PublicProfile(ctx context.Context, username string) (*model.PublicProfile, error) {
	return f(ctx, username)
}

func strPtr(s string) *string { return &s }

func TestProfileService_Public(t *testing.T) {
	source := profileSourceFunc(func(ctx context.Context, username string) (*model.PublicProfile, error) {
		return &model.PublicProfile{
			User: model.User{
				Username: username,
				Avatar:   strPtr("avatars/ana.png"),
				Theme:    &model.Theme{BackgroundType: model.BackgroundSolid, BackgroundColor: "#111111"},
			},
			Links: []model.Link{
				{ID: 1, Title: "third", Order: 2, IsActive: true, Icon: strPtr("https://cdn.example.com/x.png")},
				{ID: 2, Title: "hidden", Order: 0, IsActive: false},
				{ID: 3, Title: "first", Order: 0, IsActive: true, Icon: strPtr("/icons/a.png")},
				{ID: 4, Title: "second", Order: 1, IsActive: true},
			},
		}, nil
	})

	svc := NewProfileService(source, "http://storage.local/storage", nil)
	profile, err := svc.Public(context.Background(), "ana")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, titles(profile.Links))
	assert.Equal(t, "http://storage.local/storage/icons/a.png", *profile.Links[0].Icon)
	assert.Nil(t, profile.Links[1].Icon)
	assert.Equal(t, "https://cdn.example.com/x.png", *profile.Links[2].Icon)
	assert.Equal(t, "http://storage.local/storage/avatars/ana.png", *profile.User.Avatar)

	require.NotNil(t, profile.User.Theme)
	assert.Equal(t, model.BackgroundSolid, profile.User.Theme.BackgroundType)
	assert.Equal(t, "#111111", profile.User.Theme.BackgroundColor)
	assert.Equal(t, "#ffffff", profile.User.Theme.TextColor)
	assert.Equal(t, "rounded-full", profile.User.Theme.ButtonStyle)
}

func TestProfileService_DefaultTheme(t *testing.T) {
	source := profileSourceFunc(func(ctx context.Context, username string) (*model.PublicProfile, error) {
		return &model.PublicProfile{User: model.User{Username: username}}, nil
	})

	profile, err := NewProfileService(source, "", nil).Public(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTheme(), *profile.User.Theme)
	assert.Empty(t, profile.Links)
}

func TestProfileService_NotFound(t *testing.T) {
	source := profileSourceFunc(func(ctx context.Context, username string) (*model.PublicProfile, error) {
		return nil, statusError{status: http.StatusNotFound}
	})
	svc := NewProfileService(source, "", nil)

	_, err := svc.Public(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Public(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileService_BackendError(t *testing.T) {
	boom := errors.New("connection refused")
	source := profileSourceFunc(func(ctx context.Context, username string) (*model.PublicProfile, error) {
		return nil, boom
	})

	_, err := NewProfileService(source, "", nil).Public(context.Background(), "ana")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileService_Link(t *testing.T) {
	source := profileSourceFunc(func(ctx context.Context, username string) (*model.PublicProfile, error) {
		return &model.PublicProfile{
			User: model.User{Username: username},
			Links: []model.Link{
				{ID: 1, URL: "https://a.example", IsActive: true},
				{ID: 2, URL: "https://b.example", IsActive: false},
			},
		}, nil
	})
	svc := NewProfileService(source, "", nil)

	link, err := svc.Link(context.Background(), "ana", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", link.URL)

	_, err = svc.Link(context.Background(), "ana", 2)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestResolveAsset(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://s/", "a.png", "http://s/a.png"},
		{"http://s/", "/a.png", "http://s/a.png"},
		{"http://s/", "HTTPS://cdn/a.png", "HTTPS://cdn/a.png"},
		{"", "a.png", "a.png"},
		{"http://s/", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveAsset(tt.base, tt.path), tt.path)
	}
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sifan077/PowerLink/internal/app/model"
)

const (
	loginPath    = "/api/login"
	registerPath = "/api/register"
	logoutPath   = "/api/logout"
	mePath       = "/api/me"
	usersPath    = "/api/users"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	return c.authenticate(ctx, "login", loginPath, creds)
}

// Register creates an account. The backend may or may not log the new user in;
// Token is empty when it does not.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	return c.authenticate(ctx, "register", registerPath, reg)
}

func (c *Client) authenticate(ctx context.Context, op, path string, payload any) (*model.AuthResult, error) {
	req, err := jsonRequest(op, http.MethodPost, path, "", payload)
	if err != nil {
		return nil, err
	}
	var result model.AuthResult
	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublicProfile fetches the unauthenticated profile of username. Links fall back
// to the user's embedded links when the response has no top-level list.
func (c *Client) PublicProfile(ctx context.Context, username string) (*model.PublicProfile, error) {
	var payload struct {
		User  *model.User     `json:"user"`
		Links json.RawMessage `json:"links"`
	}
	if err := c.do(ctx, request{
		op:     "public_profile",
		method: http.MethodGet,
		path:   usersPath + "/" + url.PathEscape(username),
	}, &payload); err != nil {
		return nil, err
	}
	if payload.User == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "user missing from response"}
	}

	links, err := decodeLinks(payload.Links)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 && len(payload.User.Links) > 0 {
		links = payload.User.Links
	}

	return &model.PublicProfile{User: *payload.User, Links: links}, nil
}

// FetchUser returns the account owner.
func (a *Account) FetchUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := a.client.do(ctx, request{
		op:     "fetch_user",
		method: http.MethodGet,
		path:   mePath,
		token:  a.token,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser patches the profile and theme. Theme fields travel as theme[key] entries.
func (a *Account) UpdateUser(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	f := newForm().patch()
	if update.Name != nil {
		f.field("name", *update.Name)
	}
	if update.Bio != nil {
		f.field("bio", *update.Bio)
	}
	f.file("avatar", update.Avatar)

	if update.Theme != nil {
		for _, kv := range themeFields(*update.Theme) {
			f.field("theme["+kv[0]+"]", kv[1])
		}
	}
	switch {
	case update.BackgroundImage != nil:
		f.file("theme[backgroundImage]", update.BackgroundImage)
	case update.RemoveBackground:
		f.field("theme[backgroundImage]", "")
	}

	body, contentType, err := f.finish()
	if err != nil {
		return nil, fmt.Errorf("backend: encode update_user: %w", err)
	}

	var user model.User
	if err := a.client.do(ctx, request{
		op:          "update_user",
		method:      http.MethodPost,
		path:        mePath,
		token:       a.token,
		body:        body,
		contentType: contentType,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the bearer token on the backend.
func (a *Account) Logout(ctx context.Context) error {
	return a.client.do(ctx, request{
		op:     "logout",
		method: http.MethodPost,
		path:   logoutPath,
		token:  a.token,
	}, nil)
}

func themeFields(t model.Theme) [][2]string {
	fields := [][2]string{
		{"backgroundType", t.BackgroundType},
		{"backgroundColor", t.BackgroundColor},
		{"backgroundGradient", t.BackgroundGradient},
		{"textColor", t.TextColor},
		{"fontFamily", t.FontFamily},
		{"buttonStyle", t.ButtonStyle},
		{"buttonType", t.ButtonType},
		{"buttonBackgroundColor", t.ButtonBackgroundColor},
		{"buttonTextColor", t.ButtonTextColor},
	}
	out := fields[:0]
	for _, kv := range fields {
		if kv[1] != "" {
			out = append(out, kv)
		}
	}
	return out
}

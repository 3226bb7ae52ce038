package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/config"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"github.com/sifan077/PowerLink/internal/app/service"
	"github.com/sifan077/PowerLink/internal/http/middleware"
	httpUtil "github.com/sifan077/PowerLink/internal/http/util"
	"github.com/sifan077/PowerLink/internal/infra/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	links := `[{"id":1,"title":"Blog","url":"https://blog.test","order":0,"is_active":true}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/login":
			_, _ = io.WriteString(w, `{"token":"tok","user":{"id":1,"username":"ana"}}`)
		case "/api/links":
			_, _ = io.WriteString(w, links)
		case "/api/me":
			_, _ = io.WriteString(w, `{"id":1,"username":"ana","link_limit":5}`)
		case "/api/users/ana":
			_, _ = io.WriteString(w, `{"user":{"id":1,"username":"ana"},"links":`+links+`}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{SessionTTL: time.Hour},
		Links:  config.LinksConfig{MaxUploadBytes: 1024},
		RateLimit: config.RateLimitConfig{
			MaxRequests: 100,
			Window:      time.Minute,
		},
		Backend: config.BackendConfig{BaseURL: fakeBackend(t).URL, Timeout: 2 * time.Second},
	}

	client, err := backend.New(cfg.Backend, nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := apprepository.NewSessionRepository(rdb)
	notifications := apprepository.NewNotificationRepository(rdb)
	workspaces := service.NewWorkspaces(
		func(token string) service.Account { return client.WithToken(token) },
		notifications,
		service.WorkspaceOptions{},
		nil,
	)

	return New(Dependencies{
		Config:        cfg,
		Redis:         rdb,
		Tokens:        httpUtil.NewTokenSigner([]byte("test-secret"), time.Hour),
		Auth:          service.NewAuthService(client, sessions, notifications, workspaces, time.Hour, nil),
		Users:         service.NewUserService(workspaces, "https://links.test", "https://cdn.test/storage/", 1024, nil),
		Profiles:      service.NewProfileService(client, "https://cdn.test/storage/", nil),
		Workspaces:    workspaces,
		Notifications: notifications,
	})
}

func login(t *testing.T, s *Server) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			return cookie
		}
	}
	t.Fatal("session cookie missing")
	return nil
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	tests := []struct {
		name   string
		path   string
		cookie bool
		want   int
	}{
		{name: "health", path: "/health", want: http.StatusOK},
		{name: "links need a session", path: "/api/links", want: http.StatusUnauthorized},
		{name: "links", path: "/api/links", cookie: true, want: http.StatusOK},
		{name: "unknown api route", path: "/api/nope", cookie: true, want: http.StatusNotFound},
		{name: "public profile", path: "/ana", want: http.StatusOK},
		{name: "click-through", path: "/ana/go/1", want: http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie {
				req.AddCookie(cookie)
			}
			resp, err := s.App().Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_ListLinksThroughBackend(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.AddCookie(cookie)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count     int  `json:"count"`
		LinkLimit int  `json:"link_limit"`
		CanCreate bool `json:"can_create"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 5, body.LinkLimit)
	assert.True(t, body.CanCreate)
}

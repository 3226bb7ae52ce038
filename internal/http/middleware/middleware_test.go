package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/internal/app/model"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"github.com/sifan077/PowerLink/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sessionLoaderFunc func(ctx context.Context, id string) (*model.Session, error)

func (f sessionLoaderFunc) Session(ctx context.Context, id string) (*model.Session, error) {
	return f(ctx, id)
}

func newSessionApp(t *testing.T, loader SessionLoader) (*fiber.App, *util.TokenSigner) {
	t.Helper()
	signer := util.NewTokenSigner([]byte("test-secret"), time.Hour)
	app := fiber.New()
	app.Get("/me", SessionRequired(signer, loader, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(CurrentSession(c).Username)
	})
	return app, signer
}

func TestSessionRequired(t *testing.T) {
	loader := sessionLoaderFunc(func(ctx context.Context, id string) (*model.Session, error) {
		switch id {
		case "s1":
			return &model.Session{ID: "s1", Username: "ana"}, nil
		case "broken":
			return nil, errors.New("redis down")
		default:
			return nil, apprepository.ErrSessionNotFound
		}
	})
	app, signer := newSessionApp(t, loader)

	valid, err := signer.Issue("s1")
	require.NoError(t, err)
	gone, err := signer.Issue("gone")
	require.NoError(t, err)
	broken, err := signer.Issue("broken")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
		bearer string
		want   int
	}{
		{name: "no credentials", want: http.StatusUnauthorized},
		{name: "cookie", cookie: valid, want: http.StatusOK},
		{name: "bearer", bearer: valid, want: http.StatusOK},
		{name: "garbage token", cookie: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired session", cookie: gone, want: http.StatusUnauthorized},
		{name: "store failure", cookie: broken, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := fiber.New()
	app.Use(RateLimit(rdb, RateLimitConfig{MaxRequests: 2, Window: time.Minute, KeyPrefix: "rl"}, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i, want := range []int{200, 200, 429} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, "request %d", i+1)
		if want == fiber.StatusTooManyRequests {
			assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
			assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		}
	}
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "rl:ip:")
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	app := fiber.New()
	app.Use(RateLimit(rdb, RateLimitConfig{MaxRequests: 1}, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_StoreTimeoutBoundsLatency(t *testing.T) {
	mr := miniredis.RunT(t)
	// default retries and dial timeout: only StoreTimeout keeps the request fast
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	app := fiber.New()
	app.Use(RateLimit(rdb, RateLimitConfig{MaxRequests: 1, StoreTimeout: 100 * time.Millisecond}, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	start := time.Now()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("https://app.example, https://admin.example/"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://admin.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://admin.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recovery(zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "rid-1", resp.Header.Get(RequestIDHeader))
}

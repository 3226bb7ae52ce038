package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sifan077/PowerLink/config"
	metrics "github.com/sifan077/PowerLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
)

// Client talks to the remote REST backend. It holds no credentials; use WithToken
// to obtain an Account bound to one user's bearer token.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// New builds a backend client from config. A nil logger disables request logging.
func New(cfg config.BackendConfig, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: NewLoggingTransport(http.DefaultTransport, logger),
		},
		logger: logger,
	}, nil
}

// WithToken returns an Account that authenticates every request with token.
func (c *Client) WithToken(token string) *Account {
	return &Account{client: c, token: token}
}

type request struct {
	op          string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, path, token string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("backend: encode %s: %w", op, err)
	}
	return request{
		op:          op,
		method:      method,
		path:        path,
		token:       token,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do executes req and decodes a successful JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()
	err := c.send(ctx, req, out)
	metrics.BackendRequests.WithLabelValues(req.op, metrics.Outcome(err)).Inc()
	metrics.BackendLatency.WithLabelValues(req.op).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	target := c.baseURL.JoinPath(req.path)

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), req.body)
	if err != nil {
		return fmt.Errorf("backend: build %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", req.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("backend: read %s response: %w", req.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode %s response: %w", req.op, err)
	}
	return nil
}

package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// loggingTransport logs every backend round trip without bodies.
type loggingTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

// NewLoggingTransport wraps base so requests and responses are logged at debug level
// and failures at warn level.
func NewLoggingTransport(base http.RoundTripper, logger *zap.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper interface with logging
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.Any("headers", redactHeaders(req.Header)),
	}
	if resp.StatusCode >= 500 {
		t.logger.Warn("backend responded with server error", fields...)
	} else {
		t.logger.Debug("backend request", fields...)
	}

	return resp, nil
}

// redactHeaders formats HTTP headers for logging, hiding sensitive data
func redactHeaders(headers http.Header) map[string]string {
	formatted := make(map[string]string, len(headers))
	for key, values := range headers {
		lowerKey := strings.ToLower(key)
		if strings.Contains(lowerKey, "authorization") ||
			strings.Contains(lowerKey, "token") ||
			strings.Contains(lowerKey, "cookie") {
			formatted[key] = "***REDACTED***"
			continue
		}
		formatted[key] = strings.Join(values, ", ")
	}
	return formatted
}

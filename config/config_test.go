package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		production  bool
		expectError bool
	}{
		{
			name:        "missing backend",
			cfg:         Config{Server: ServerConfig{SessionSecret: "x"}},
			expectError: true,
		},
		{
			name:        "missing secret",
			cfg:         Config{Backend: BackendConfig{BaseURL: "http://api"}},
			expectError: true,
		},
		{
			name: "default secret in development",
			cfg: Config{
				Backend: BackendConfig{BaseURL: "http://api"},
				Server:  ServerConfig{SessionSecret: defaultSessionSecret},
			},
		},
		{
			name: "default secret in production",
			cfg: Config{
				Backend: BackendConfig{BaseURL: "http://api"},
				Server:  ServerConfig{SessionSecret: defaultSessionSecret},
			},
			production:  true,
			expectError: true,
		},
		{
			name: "short secret in production",
			cfg: Config{
				Backend: BackendConfig{BaseURL: "http://api"},
				Server:  ServerConfig{SessionSecret: "short"},
			},
			production:  true,
			expectError: true,
		},
		{
			name: "strong secret in production",
			cfg: Config{
				Backend: BackendConfig{BaseURL: "http://api"},
				Server:  ServerConfig{SessionSecret: strings.Repeat("s", 40)},
			},
			production: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.production)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	s := NewTokenSigner([]byte("test-secret"), time.Hour)

	token, err := s.Issue("session-1")
	require.NoError(t, err)

	id, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestTokenSigner_Rejects(t *testing.T) {
	s := NewTokenSigner([]byte("test-secret"), time.Hour)
	token, err := s.Issue("session-1")
	require.NoError(t, err)

	other := NewTokenSigner([]byte("other-secret"), time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSigner_Expired(t *testing.T) {
	s := NewTokenSigner([]byte("test-secret"), time.Minute)
	start := time.Now()
	s.now = func() time.Time { return start }

	token, err := s.Issue("session-1")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSigner_MissingSecret(t *testing.T) {
	s := NewTokenSigner(nil, time.Hour)
	_, err := s.Issue("x")
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = s.Validate("x")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

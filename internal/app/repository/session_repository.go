package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/internal/app/model"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores login sessions.
type SessionRepository interface {
	Save(ctx context.Context, session *model.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	rdb redis.Cmdable
}

// NewSessionRepository returns a Redis-backed SessionRepository.
func NewSessionRepository(rdb redis.Cmdable) SessionRepository {
	return &sessionRepository{rdb: rdb}
}

func (r *sessionRepository) Save(ctx context.Context, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return r.rdb.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/internal/app/model"
)

const notificationKeyPrefix = "notifications:"

// NotificationRepository keeps the dismissible notifications of each session.
type NotificationRepository interface {
	Add(ctx context.Context, sessionID string, n model.Notification, ttl time.Duration) error
	List(ctx context.Context, sessionID string) ([]model.Notification, error)
	Dismiss(ctx context.Context, sessionID, id string) error
	Clear(ctx context.Context, sessionID string) error
}

type notificationRepository struct {
	rdb redis.Cmdable
}

// NewNotificationRepository returns a Redis-backed NotificationRepository.
func NewNotificationRepository(rdb redis.Cmdable) NotificationRepository {
	return &notificationRepository{rdb: rdb}
}

// Add stores n and pushes the expiry of the whole set ttl into the future.
func (r *notificationRepository) Add(ctx context.Context, sessionID string, n model.Notification, ttl time.Duration) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification: encode: %w", err)
	}

	key := notificationKey(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, n.ID, data)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the notifications newest first.
func (r *notificationRepository) List(ctx context.Context, sessionID string) ([]model.Notification, error) {
	raw, err := r.rdb.HGetAll(ctx, notificationKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(raw))
	for _, v := range raw {
		var n model.Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepository) Dismiss(ctx context.Context, sessionID, id string) error {
	removed, err := r.rdb.HDel(ctx, notificationKey(sessionID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) Clear(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, notificationKey(sessionID)).Err()
}

func notificationKey(sessionID string) string {
	return notificationKeyPrefix + sessionID
}

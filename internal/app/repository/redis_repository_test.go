package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	session := &model.Session{ID: "s1", Token: "bearer", Username: "ana", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, repo.Save(ctx, session, time.Hour))
	assert.True(t, mr.Exists("session:s1"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.Token, got.Token)
	assert.Equal(t, session.Username, got.Username)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_Expires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &model.Session{ID: "s2"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNotificationRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewNotificationRepository(rdb)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Add(ctx, "s1", model.Notification{ID: "a", Level: model.NotificationError, Op: "delete", CreatedAt: base}, time.Hour))
	require.NoError(t, repo.Add(ctx, "s1", model.Notification{ID: "b", Level: model.NotificationWarning, Op: "reorder", CreatedAt: base.Add(time.Second)}, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("notifications:s1"))

	list, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	require.NoError(t, repo.Dismiss(ctx, "s1", "a"))
	assert.ErrorIs(t, repo.Dismiss(ctx, "s1", "a"), ErrNotificationNotFound)

	list, err = repo.List(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Clear(ctx, "s1"))
	list, err = repo.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

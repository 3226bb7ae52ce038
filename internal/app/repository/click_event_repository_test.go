package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ClickEvent{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestClickEventRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewClickEventRepository(db)
	ctx := context.Background()

	event := &model.ClickEvent{
		ID:        "2b0c6a4e-6f3c-4c5e-9d64-0d2b0f1c1a11",
		Username:  "ana",
		LinkID:    7,
		IP:        "10.0.0.1",
		UserAgent: "curl/8",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, event))

	// Redelivery of the same event is absorbed.
	dup := *event
	require.NoError(t, repo.Create(ctx, &dup))

	var count int64
	require.NoError(t, db.Model(&model.ClickEvent{}).Where("link_id = ?", 7).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

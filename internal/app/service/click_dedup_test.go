package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClickDeduper_Window(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewClickDeduper(1000, 10*time.Second)
	d.now = func() time.Time { return clock }
	d.rotatedAt = clock

	assert.False(t, d.Seen("ana|1|10.0.0.1"))
	assert.True(t, d.Seen("ana|1|10.0.0.1"))
	assert.False(t, d.Seen("ana|2|10.0.0.1"))

	// Still remembered one rotation later.
	clock = clock.Add(12 * time.Second)
	assert.True(t, d.Seen("ana|2|10.0.0.1"))

	// Forgotten after two idle windows.
	clock = clock.Add(25 * time.Second)
	assert.False(t, d.Seen("ana|1|10.0.0.1"))
}

func TestClickDeduper_Defaults(t *testing.T) {
	d := NewClickDeduper(0, 0)
	assert.Equal(t, defaultDedupWindow, d.window)
	assert.False(t, d.Seen("k"))
	assert.True(t, d.Seen("k"))
}

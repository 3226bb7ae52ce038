package service

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	defaultDedupCapacity = 100_000
	defaultDedupWindow   = 10 * time.Second
	dedupFalsePositive   = 0.001
)

// ClickDeduper suppresses repeated clicks on the same key within a window.
//
// Two bloom filters rotate every window: a key is a repeat when either holds it, so it
// is remembered for at least one and at most two windows. A false positive only drops
// one analytics event.
type ClickDeduper struct {
	mu        sync.Mutex
	current   *bloom.BloomFilter
	previous  *bloom.BloomFilter
	window    time.Duration
	rotatedAt time.Time
	now       func() time.Time
}

// NewClickDeduper sizes both filters for capacity keys per window.
func NewClickDeduper(capacity uint, window time.Duration) *ClickDeduper {
	if capacity == 0 {
		capacity = defaultDedupCapacity
	}
	if window <= 0 {
		window = defaultDedupWindow
	}
	d := &ClickDeduper{
		current:  bloom.NewWithEstimates(capacity, dedupFalsePositive),
		previous: bloom.NewWithEstimates(capacity, dedupFalsePositive),
		window:   window,
		now:      time.Now,
	}
	d.rotatedAt = d.now()
	return d
}

// Seen records key and reports whether it was already recorded in the window.
func (d *ClickDeduper) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rotate()
	data := []byte(key)
	if d.previous.Test(data) {
		d.current.Add(data)
		return true
	}
	return d.current.TestAndAdd(data)
}

// rotate must be called with mu held.
func (d *ClickDeduper) rotate() {
	elapsed := d.now().Sub(d.rotatedAt)
	if elapsed < d.window {
		return
	}
	if elapsed >= 2*d.window {
		d.previous.ClearAll()
		d.current.ClearAll()
	} else {
		d.previous, d.current = d.current, d.previous
		d.current.ClearAll()
	}
	d.rotatedAt = d.now()
}

package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerLink/internal/app/model"
	metrics "github.com/sifan077/PowerLink/internal/infra/prometheus"
)

const (
	ClickPublished    = "published"
	ClickDeduplicated = "deduplicated"
	ClickFailed       = "failed"
)

// StreamPublisher is the JetStream publish call the click publisher needs.
type StreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// ClickPublisher publishes click events to NATS JetStream
type ClickPublisher struct {
	js    StreamPublisher
	dedup *ClickDeduper
}

// NewClickPublisher creates a new click event publisher. A nil deduper publishes every click.
func NewClickPublisher(js StreamPublisher, dedup *ClickDeduper) *ClickPublisher {
	return &ClickPublisher{js: js, dedup: dedup}
}

// Publish publishes a click on username's link unless the same visitor clicked it
// moments ago. It reports whether an event was sent.
func (p *ClickPublisher) Publish(ctx context.Context, username string, linkID int64, ip, userAgent string) (bool, error) {
	if p.dedup != nil && p.dedup.Seen(username+"|"+strconv.FormatInt(linkID, 10)+"|"+ip) {
		metrics.ClickEvents.WithLabelValues(ClickDeduplicated).Inc()
		return false, nil
	}

	event := model.ClickEvent{
		ID:        uuid.New().String(),
		Username:  username,
		LinkID:    linkID,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		metrics.ClickEvents.WithLabelValues(ClickFailed).Inc()
		return false, err
	}

	if _, err := p.js.Publish(model.ClickStreamSubject, data, nats.MsgId(event.ID), nats.Context(ctx)); err != nil {
		metrics.ClickEvents.WithLabelValues(ClickFailed).Inc()
		return false, err
	}
	metrics.ClickEvents.WithLabelValues(ClickPublished).Inc()
	return true, nil
}

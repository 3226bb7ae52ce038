package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStream struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return &nats.PubAck{Stream: model.ClickStreamName}, nil
}

type mockClickRepository struct {
	createFn func(ctx context.Context, event *model.ClickEvent) error
}

func (m *mockClickRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	if m.createFn != nil {
		return m.createFn(ctx, event)
	}
	return nil
}

func TestClickPublisher_Publish(t *testing.T) {
	stream := &fakeStream{}
	p := NewClickPublisher(stream, NewClickDeduper(100, 0))

	sent, err := p.Publish(context.Background(), "ana", 3, "10.0.0.1", "curl/8")
	require.NoError(t, err)
	assert.True(t, sent)

	// Same visitor, same link: suppressed.
	sent, err = p.Publish(context.Background(), "ana", 3, "10.0.0.1", "curl/8")
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = p.Publish(context.Background(), "ana", 4, "10.0.0.1", "curl/8")
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, stream.payloads, 2)
	assert.Equal(t, model.ClickStreamSubject, stream.subjects[0])

	var event model.ClickEvent
	require.NoError(t, json.Unmarshal(stream.payloads[0], &event))
	assert.Equal(t, "ana", event.Username)
	assert.Equal(t, int64(3), event.LinkID)
	assert.NotEmpty(t, event.ID)
}

func TestClickPublisher_PublishError(t *testing.T) {
	boom := errors.New("no responders")
	p := NewClickPublisher(&fakeStream{err: boom}, nil)

	sent, err := p.Publish(context.Background(), "ana", 1, "1.1.1.1", "")
	assert.ErrorIs(t, err, boom)
	assert.False(t, sent)
}

func TestClickConsumer_Handle(t *testing.T) {
	var stored *model.ClickEvent
	c := NewClickConsumer(nil, zap.NewNop(), &mockClickRepository{
		createFn: func(ctx context.Context, event *model.ClickEvent) error {
			stored = event
			return nil
		},
	})

	data, _ := json.Marshal(model.ClickEvent{ID: "e1", Username: "ana", LinkID: 9})
	require.NoError(t, c.handle(context.Background(), data))
	require.NotNil(t, stored)
	assert.Equal(t, int64(9), stored.LinkID)

	err := c.handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, errMalformedClick)
}

func TestClickConsumer_HandleStoreError(t *testing.T) {
	boom := errors.New("db down")
	c := NewClickConsumer(nil, zap.NewNop(), &mockClickRepository{
		createFn: func(ctx context.Context, event *model.ClickEvent) error { return boom },
	})

	data, _ := json.Marshal(model.ClickEvent{ID: "e1"})
	err := c.handle(context.Background(), data)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, errMalformedClick)
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-docstore/internal/application"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed int
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisherWithChannel(ch, "identity.events")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), application.Event{
		Type: application.EventUserCreated, ID: "users/1", Version: 1, OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, ch.sent, 1)

	got := ch.sent[0]
	assert.Equal(t, "identity.events", got.exchange)
	assert.Equal(t, application.EventUserCreated, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "users/1@"+application.EventUserCreated, got.msg.MessageId)
	assert.Equal(t, application.EventUserCreated, got.msg.Type)

	var ev application.Event
	require.NoError(t, json.Unmarshal(got.msg.Body, &ev))
	assert.Equal(t, "users/1", ev.ID)
	assert.Equal(t, int64(1), ev.Version)
	assert.True(t, at.Equal(ev.OccurredAt))
}

func TestPublisher_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	p := newPublisherWithChannel(&fakeChannel{err: boom}, "identity.events")
	err := p.Publish(context.Background(), application.Event{Type: application.EventRoleDeleted, ID: "roles/1"})
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	newPublisherWithChannel(ch, "x").Close()
	assert.Equal(t, 1, ch.closed)

	var nilPublisher *Publisher
	assert.NotPanics(t, nilPublisher.Close)
}

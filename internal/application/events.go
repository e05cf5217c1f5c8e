package application

import (
	"context"
	"time"
)

const (
	EventUserCreated = "identity.user.created"
	EventUserUpdated = "identity.user.updated"
	EventUserDeleted = "identity.user.deleted"
	EventRoleCreated = "identity.role.created"
	EventRoleUpdated = "identity.role.updated"
	EventRoleDeleted = "identity.role.deleted"
)

// Event describes a committed change to an identity document.
type Event struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher receives events after a successful commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

func (o options) publish(ctx context.Context, typ, id string, version int64) {
	if o.publisher == nil {
		return
	}
	ev := Event{Type: typ, ID: id, Version: version, OccurredAt: o.now()}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.logger.WithError(err).WithField("event", typ).WithField("id", id).Warn("publish identity event failed")
	}
}

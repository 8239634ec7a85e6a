package ports

import (
	"context"

	"citizen-portal/internal/domain"
)

const (
	KeyToken               = "token"
	KeyRefreshApplications = "refreshApplications"
)

// StateStore is the client's persisted key/value state. Get returns
// domain.ErrNotFound for a missing key.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Subscription interface {
	Events() <-chan domain.Event
	Close() error
}

// EventSource opens a push subscription for the named events.
type EventSource interface {
	Subscribe(ctx context.Context, token string, names []string) (Subscription, error)
}

package storage

import (
	"context"
	"errors"
	"time"

	"dronewatch/internal/alert"
)

// ErrUnavailable wraps every persistence-layer failure so callers can match
// storage trouble with errors.Is regardless of the underlying driver error.
var ErrUnavailable = errors.New("storage unavailable")

// DefaultRecentLimit bounds RecentAlerts when the caller passes limit <= 0.
const DefaultRecentLimit = 5

// Config configures storage.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// Subscriber is a recipient row. UserID is the stable identity; ChatID is
// where messages are delivered and may differ from UserID (group chats).
type Subscriber struct {
	UserID      int64
	ChatID      int64
	DisplayName string
}

// Store is the persistence API used by the core and the delivery engine.
type Store interface {
	// UpsertSubscriber inserts a new subscriber or reactivates an existing
	// one, updating display fields. Idempotent; never fails on duplicates.
	UpsertSubscriber(ctx context.Context, sub Subscriber) error

	// DeactivateSubscriber flips is_active off. Missing rows are a no-op,
	// not an error. Rows are never hard-deleted.
	DeactivateSubscriber(ctx context.Context, userID int64) error

	// ListActiveChats returns the chat id of every active subscriber.
	// Order is not significant.
	ListActiveChats(ctx context.Context) ([]int64, error)

	// CountActiveSubscribers reports how many subscribers are active.
	CountActiveSubscribers(ctx context.Context) (int, error)

	// AppendAlert writes a ledger row and returns it with id and created_at
	// assigned. The ledger is append-only.
	AppendAlert(ctx context.Context, d alert.Draft) (alert.Alert, error)

	// RecentAlerts returns up to limit alerts, newest first.
	RecentAlerts(ctx context.Context, limit int) ([]alert.Alert, error)

	Close() error
}

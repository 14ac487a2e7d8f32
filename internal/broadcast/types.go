package broadcast

import (
	"context"
	"errors"
	"time"

	"dronewatch/internal/alert"
)

// ErrLedgerWrite means the alert could not be recorded. No dispatch happens
// after this error; history and delivery never diverge.
var ErrLedgerWrite = errors.New("ledger write failed")

// Gateway is the sole effectful boundary: it delivers one rendered message
// to one chat. Implementations must be safe for concurrent use.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Ledger records submitted alerts before any delivery is attempted.
type Ledger interface {
	AppendAlert(ctx context.Context, d alert.Draft) (alert.Alert, error)
}

// SubscriberDirectory resolves the current recipient set.
type SubscriberDirectory interface {
	ListActiveChats(ctx context.Context) ([]int64, error)
}

// Config tunes dispatch. Zero values pick the defaults below.
type Config struct {
	// Workers bounds dispatch concurrency. 1 means fully sequential sends;
	// 0 means DefaultWorkers.
	Workers int

	// SendInterval is the minimum gap between consecutive gateway sends,
	// shared across all workers and all concurrent submits.
	SendInterval time.Duration
}

const (
	DefaultWorkers      = 4
	DefaultSendInterval = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.SendInterval <= 0 {
		c.SendInterval = DefaultSendInterval
	}
	return c
}

// Request is one alert submission. Severity is raw caller input; the engine
// normalizes it and substitutes the default for unrecognized values.
type Request struct {
	Type        string
	Location    string
	Description string
	Severity    string
}

// Failure is one recipient the gateway could not reach.
type Failure struct {
	ChatID int64
	Err    error
}

// Result aggregates one broadcast attempt. It is transient; only the alert
// itself is persisted.
type Result struct {
	AlertID   int64
	Attempted int
	Succeeded int
	Failures  []Failure
}

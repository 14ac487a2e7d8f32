// Package core exposes the narrow inbound surface the presentation layer
// calls into: subscribe, unsubscribe, submit an alert, query history.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/alert"
	"dronewatch/internal/broadcast"
	"dronewatch/internal/storage"
)

var ErrInvalidRequest = errors.New("invalid request")

type SubscribeRequest struct {
	UserID      int64
	ChatID      int64
	DisplayName string
}

type SubmitAlertRequest struct {
	Type        string
	Location    string
	Description string
	Severity    string
}

type StatusReport struct {
	ActiveSubscribers int
	Uptime            time.Duration
}

// Service wires the stores and the delivery engine behind typed operations.
type Service struct {
	store   storage.Store
	engine  *broadcast.Engine
	log     logx.Logger
	started time.Time
}

func NewService(store storage.Store, engine *broadcast.Engine, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, engine: engine, log: log, started: time.Now()}
}

// Subscribe registers or reactivates a recipient. Repeat calls with the same
// user id update display fields and leave a single active row.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	if req.UserID == 0 || req.ChatID == 0 {
		return fmt.Errorf("%w: user id and chat id are required", ErrInvalidRequest)
	}
	if err := s.store.UpsertSubscriber(ctx, storage.Subscriber{
		UserID:      req.UserID,
		ChatID:      req.ChatID,
		DisplayName: req.DisplayName,
	}); err != nil {
		return err
	}
	s.log.Info("subscriber registered", logx.Int64("user_id", req.UserID), logx.Int64("chat_id", req.ChatID))
	return nil
}

// Unsubscribe deactivates the recipient. Unknown user ids are a no-op.
func (s *Service) Unsubscribe(ctx context.Context, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if err := s.store.DeactivateSubscriber(ctx, userID); err != nil {
		return err
	}
	s.log.Info("subscriber deactivated", logx.Int64("user_id", userID))
	return nil
}

// SubmitAlert records the alert and broadcasts it to all active subscribers.
// The returned Result is always meaningful when err is nil, including after
// caller cancellation (shorter result, not an error).
func (s *Service) SubmitAlert(ctx context.Context, req SubmitAlertRequest) (broadcast.Result, error) {
	if req.Type == "" {
		return broadcast.Result{}, fmt.Errorf("%w: alert type is required", ErrInvalidRequest)
	}
	return s.engine.SubmitAndDeliver(ctx, broadcast.Request{
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		Severity:    req.Severity,
	})
}

// RecentAlerts returns up to limit ledger entries, newest first.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]alert.Alert, error) {
	return s.store.RecentAlerts(ctx, limit)
}

// Status reports operational state for the /status command.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	n, err := s.store.CountActiveSubscribers(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{ActiveSubscribers: n, Uptime: time.Since(s.started)}, nil
}

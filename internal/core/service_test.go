package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"dronewatch/internal/alert"
	"dronewatch/internal/broadcast"
	"dronewatch/internal/storage"

	logx "dronewatch/pkg/logx"
)

type memStore struct {
	subs   map[int64]storage.Subscriber
	active map[int64]bool
	alerts []alert.Alert
}

func newMemStore() *memStore {
	return &memStore{subs: map[int64]storage.Subscriber{}, active: map[int64]bool{}}
}

func (m *memStore) UpsertSubscriber(_ context.Context, sub storage.Subscriber) error {
	m.subs[sub.UserID] = sub
	m.active[sub.UserID] = true
	return nil
}

func (m *memStore) DeactivateSubscriber(_ context.Context, userID int64) error {
	if _, ok := m.subs[userID]; ok {
		m.active[userID] = false
	}
	return nil
}

func (m *memStore) ListActiveChats(context.Context) ([]int64, error) {
	var chats []int64
	for id, on := range m.active {
		if on {
			chats = append(chats, m.subs[id].ChatID)
		}
	}
	return chats, nil
}

func (m *memStore) CountActiveSubscribers(context.Context) (int, error) {
	n := 0
	for _, on := range m.active {
		if on {
			n++
		}
	}
	return n, nil
}

func (m *memStore) AppendAlert(_ context.Context, d alert.Draft) (alert.Alert, error) {
	a := alert.Alert{
		ID: int64(len(m.alerts) + 1), Type: d.Type, Location: d.Location,
		Description: d.Description, Severity: d.Severity, CreatedAt: time.Now(),
	}
	m.alerts = append(m.alerts, a)
	return a, nil
}

func (m *memStore) RecentAlerts(_ context.Context, limit int) ([]alert.Alert, error) {
	if limit <= 0 {
		limit = storage.DefaultRecentLimit
	}
	var out []alert.Alert
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

type nopGateway struct{ calls int }

func (g *nopGateway) Send(context.Context, int64, string) error {
	g.calls++
	return nil
}

func newTestService(st storage.Store, gw broadcast.Gateway) *Service {
	engine := broadcast.New(broadcast.Config{Workers: 1, SendInterval: time.Millisecond},
		st, st, gw, logx.Nop())
	return NewService(st, engine, logx.Nop())
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemStore(), &nopGateway{})

	err := svc.Subscribe(context.Background(), SubscribeRequest{UserID: 0, ChatID: 1})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if err := svc.Subscribe(context.Background(), SubscribeRequest{UserID: 1, ChatID: 1}); err != nil {
		t.Fatalf("valid subscribe: %v", err)
	}
}

func TestSubmitAlertEndToEnd(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	gw := &nopGateway{}
	svc := newTestService(st, gw)
	ctx := context.Background()

	if err := svc.Subscribe(ctx, SubscribeRequest{UserID: 1, ChatID: 100, DisplayName: "A"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	res, err := svc.SubmitAlert(ctx, SubmitAlertRequest{
		Type: "Drone sighting", Location: "City X", Description: "desc", Severity: "high",
	})
	if err != nil {
		t.Fatalf("SubmitAlert: %v", err)
	}
	if res.Attempted != 1 || res.Succeeded != 1 || len(res.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d", gw.calls)
	}

	recent, err := svc.RecentAlerts(ctx, 1)
	if err != nil {
		t.Fatalf("RecentAlerts: %v", err)
	}
	if len(recent) != 1 || recent[0].Severity != alert.SeverityHigh {
		t.Fatalf("unexpected history: %+v", recent)
	}

	st2, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st2.ActiveSubscribers != 1 {
		t.Fatalf("active subscribers = %d", st2.ActiveSubscribers)
	}
}

func TestSubmitAlertRequiresType(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemStore(), &nopGateway{})
	_, err := svc.SubmitAlert(context.Background(), SubmitAlertRequest{Severity: "high"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

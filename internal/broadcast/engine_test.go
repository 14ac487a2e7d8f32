package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dronewatch/internal/alert"

	logx "dronewatch/pkg/logx"
)

type fakeLedger struct {
	mu     sync.Mutex
	nextID int64
	rows   []alert.Alert
	err    error
}

func (l *fakeLedger) AppendAlert(_ context.Context, d alert.Draft) (alert.Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return alert.Alert{}, l.err
	}
	l.nextID++
	a := alert.Alert{
		ID: l.nextID, Type: d.Type, Location: d.Location,
		Description: d.Description, Severity: d.Severity, CreatedAt: time.Now(),
	}
	l.rows = append(l.rows, a)
	return a, nil
}

type fakeDirectory struct {
	chats []int64
	err   error
}

func (d *fakeDirectory) ListActiveChats(context.Context) ([]int64, error) {
	return d.chats, d.err
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []int64
	stamps  []time.Time
	failFor map[int64]error
	delay   time.Duration
}

func (g *fakeGateway) Send(_ context.Context, chatID int64, _ string) error {
	g.mu.Lock()
	g.sent = append(g.sent, chatID)
	g.stamps = append(g.stamps, time.Now())
	err := g.failFor[chatID]
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return err
}

func (g *fakeGateway) calls() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.sent...)
}

func newTestEngine(cfg Config, dir *fakeDirectory, led *fakeLedger, gw *fakeGateway) *Engine {
	return New(cfg, dir, led, gw, logx.Nop())
}

func TestSubmitDeliversToSingleSubscriber(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{}
	gw := &fakeGateway{}
	e := newTestEngine(Config{Workers: 1, SendInterval: time.Millisecond},
		&fakeDirectory{chats: []int64{100}}, led, gw)

	res, err := e.SubmitAndDeliver(context.Background(), Request{
		Type: "Drone sighting", Location: "City X", Description: "desc", Severity: "high",
	})
	if err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if res.Attempted != 1 || res.Succeeded != 1 || len(res.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(led.rows) != 1 || led.rows[0].Severity != alert.SeverityHigh {
		t.Fatalf("unexpected ledger state: %+v", led.rows)
	}
	if calls := gw.calls(); len(calls) != 1 || calls[0] != 100 {
		t.Fatalf("unexpected gateway calls: %v", calls)
	}
	if res.AlertID != led.rows[0].ID {
		t.Fatalf("result alert id %d, ledger id %d", res.AlertID, led.rows[0].ID)
	}
}

func TestSubmitWithNoSubscribersStillRecords(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{}
	gw := &fakeGateway{}
	e := newTestEngine(Config{}, &fakeDirectory{}, led, gw)

	res, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t", Severity: "low"})
	if err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if res.Attempted != 0 || res.Succeeded != 0 || len(res.Failures) != 0 {
		t.Fatalf("expected empty delivery, got %+v", res)
	}
	if len(led.rows) != 1 {
		t.Fatalf("alert must still be recorded, ledger has %d rows", len(led.rows))
	}
	if len(gw.calls()) != 0 {
		t.Fatal("gateway must not be called without subscribers")
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{}
	gw := &fakeGateway{failFor: map[int64]error{200: errors.New("transient")}}
	e := newTestEngine(Config{Workers: 1, SendInterval: time.Millisecond},
		&fakeDirectory{chats: []int64{100, 200, 300}}, led, gw)

	res, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t", Severity: "medium"})
	if err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if res.Attempted != 3 || res.Succeeded != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(res.Failures) != 1 || res.Failures[0].ChatID != 200 {
		t.Fatalf("expected exactly chat 200 to fail, got %+v", res.Failures)
	}
	if len(gw.calls()) != 3 {
		t.Fatalf("all recipients must be attempted, got %d calls", len(gw.calls()))
	}
}

func TestLedgerFailureAbortsDispatch(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{err: errors.New("disk full")}
	gw := &fakeGateway{}
	e := newTestEngine(Config{}, &fakeDirectory{chats: []int64{100}}, led, gw)

	_, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t"})
	if !errors.Is(err, ErrLedgerWrite) {
		t.Fatalf("expected ErrLedgerWrite, got %v", err)
	}
	if len(gw.calls()) != 0 {
		t.Fatal("no dispatch may happen after an append failure")
	}
}

func TestDirectoryFailureAfterAppend(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{}
	gw := &fakeGateway{}
	e := newTestEngine(Config{}, &fakeDirectory{err: errors.New("storage down")}, led, gw)

	res, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t"})
	if err == nil {
		t.Fatal("expected error from recipient resolution")
	}
	if errors.Is(err, ErrLedgerWrite) {
		t.Fatalf("directory failure must not masquerade as ledger failure: %v", err)
	}
	if res.AlertID == 0 {
		t.Fatal("alert id must be reported; the alert is already recorded")
	}
	if len(led.rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(led.rows))
	}
}

func TestUnknownSeverityRecordedAsDefault(t *testing.T) {
	t.Parallel()
	led := &fakeLedger{}
	e := newTestEngine(Config{}, &fakeDirectory{}, led, &fakeGateway{})

	if _, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t", Severity: "SEVERE!!"}); err != nil {
		t.Fatalf("unknown severity must not reject the alert: %v", err)
	}
	if led.rows[0].Severity != alert.DefaultSeverity {
		t.Fatalf("stored severity = %q, want default", led.rows[0].Severity)
	}
}

func TestCancellationShortensResult(t *testing.T) {
	t.Parallel()
	chats := make([]int64, 10)
	for i := range chats {
		chats[i] = int64(i + 1)
	}
	led := &fakeLedger{}
	gw := &fakeGateway{delay: 30 * time.Millisecond}
	e := newTestEngine(Config{Workers: 1, SendInterval: time.Millisecond},
		&fakeDirectory{chats: chats}, led, gw)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := e.SubmitAndDeliver(ctx, Request{Type: "t", Severity: "high"})
	if err != nil {
		t.Fatalf("cancellation is not an error: %v", err)
	}
	if res.Attempted == 0 {
		t.Fatal("expected at least one attempt before cancellation")
	}
	if res.Attempted >= len(chats) {
		t.Fatalf("expected cancellation to stop new sends, attempted %d", res.Attempted)
	}
	if len(led.rows) != 1 {
		t.Fatal("alert must be recorded even when delivery is cut short")
	}
}

package broadcast

import (
	"context"
	"testing"
	"time"

	logx "dronewatch/pkg/logx"
)

func TestSequentialPacingLowerBound(t *testing.T) {
	t.Parallel()
	const (
		n        = 4
		interval = 40 * time.Millisecond
	)
	chats := make([]int64, n)
	for i := range chats {
		chats[i] = int64(i + 1)
	}
	gw := &fakeGateway{}
	e := New(Config{Workers: 1, SendInterval: interval},
		&fakeDirectory{chats: chats}, &fakeLedger{}, gw, logx.Nop())

	start := time.Now()
	res, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t", Severity: "low"})
	if err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if res.Attempted != n {
		t.Fatalf("attempted = %d, want %d", res.Attempted, n)
	}
	if elapsed, min := time.Since(start), time.Duration(n-1)*interval-5*time.Millisecond; elapsed < min {
		t.Fatalf("dispatch took %v, want at least %v", elapsed, min)
	}
}

func TestPoolRespectsSharedRate(t *testing.T) {
	t.Parallel()
	const (
		n        = 5
		interval = 40 * time.Millisecond
	)
	chats := make([]int64, n)
	for i := range chats {
		chats[i] = int64(i + 1)
	}
	gw := &fakeGateway{}
	e := New(Config{Workers: 4, SendInterval: interval},
		&fakeDirectory{chats: chats}, &fakeLedger{}, gw, logx.Nop())

	start := time.Now()
	res, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t", Severity: "low"})
	if err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if res.Attempted != n || res.Succeeded != n {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(gw.calls()) != n {
		t.Fatalf("gateway saw %d sends, want %d", len(gw.calls()), n)
	}

	// The shared limiter hands out one token per interval, so even a pool of
	// 4 cannot finish n sends faster than (n-1) intervals. Small tolerance
	// for the token available at limiter creation.
	const tolerance = 5 * time.Millisecond
	if elapsed, min := time.Since(start), time.Duration(n-1)*interval-tolerance; elapsed < min {
		t.Fatalf("pool dispatch took %v, want at least %v", elapsed, min)
	}
}

func TestApplySwapsPacing(t *testing.T) {
	t.Parallel()
	e := New(Config{Workers: 1, SendInterval: 500 * time.Millisecond},
		&fakeDirectory{chats: []int64{1, 2, 3}}, &fakeLedger{}, &fakeGateway{}, logx.Nop())
	e.Apply(Config{Workers: 1, SendInterval: time.Millisecond})

	start := time.Now()
	if _, err := e.SubmitAndDeliver(context.Background(), Request{Type: "t"}); err != nil {
		t.Fatalf("SubmitAndDeliver: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Fatalf("dispatch still paced at old interval, took %v", elapsed)
	}
}

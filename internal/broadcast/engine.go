package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/alert"
)

// Engine orchestrates one broadcast: append, resolve, dispatch, aggregate.
// It owns no durable state; the ledger and directory do.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	subs    SubscriberDirectory
	ledger  Ledger
	gateway Gateway
	log     logx.Logger

	// limiter is the shared pacing gate toward the gateway. It spans
	// concurrent submits on purpose: the outbound channel is one resource.
	limiter *rate.Limiter
}

func New(cfg Config, subs SubscriberDirectory, ledger Ledger, gateway Gateway, log logx.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		cfg:     cfg,
		subs:    subs,
		ledger:  ledger,
		gateway: gateway,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(cfg.SendInterval), 1),
	}
}

// Apply swaps dispatch tuning at runtime. In-flight submits keep the limiter
// they started with.
func (e *Engine) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.SendInterval != e.cfg.SendInterval {
		e.limiter = rate.NewLimiter(rate.Every(cfg.SendInterval), 1)
	}
	e.cfg = cfg
}

// SubmitAndDeliver records the alert, then delivers it to every active
// subscriber with per-recipient isolation.
//
// An append failure returns ErrLedgerWrite and nothing is sent. A directory
// failure returns the storage error with the alert already recorded. An
// empty subscriber set is not an error. Context cancellation shortens the
// Result instead of failing it.
func (e *Engine) SubmitAndDeliver(ctx context.Context, req Request) (Result, error) {
	log := e.log.With(logx.String("submit", uuid.NewString()))

	sev, known := alert.ParseSeverity(req.Severity)
	if !known {
		log.Warn("unrecognized severity substituted",
			logx.String("raw", req.Severity), logx.String("severity", string(sev)))
	}

	a, err := e.ledger.AppendAlert(ctx, alert.Draft{
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		Severity:    sev,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}
	log = log.With(logx.Int64("alert_id", a.ID))
	res := Result{AlertID: a.ID}

	chats, err := e.subs.ListActiveChats(ctx)
	if err != nil {
		return res, fmt.Errorf("resolve recipients: %w", err)
	}
	if len(chats) == 0 {
		log.Info("no active subscribers; alert recorded only")
		return res, nil
	}

	start := time.Now()
	e.dispatch(ctx, &res, chats, alert.RenderMessage(a), log)

	fields := []logx.Field{
		logx.Int("attempted", res.Attempted),
		logx.Int("succeeded", res.Succeeded),
		logx.Int("failed", len(res.Failures)),
		logx.Duration("dur", time.Since(start)),
	}
	switch {
	case len(res.Failures) > 0:
		log.Warn("broadcast finished with failures", fields...)
	case res.Attempted < len(chats):
		log.Info("broadcast cancelled before completion", fields...)
	default:
		log.Info("broadcast finished", fields...)
	}
	return res, nil
}

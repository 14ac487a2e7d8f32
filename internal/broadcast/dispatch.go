package broadcast

import (
	"context"
	"runtime/debug"
	"sync"

	"golang.org/x/time/rate"

	logx "dronewatch/pkg/logx"
)

func (e *Engine) dispatch(ctx context.Context, res *Result, chats []int64, text string, log logx.Logger) {
	e.mu.Lock()
	workers := e.cfg.Workers
	lim := e.limiter
	e.mu.Unlock()

	if workers > len(chats) {
		workers = len(chats)
	}
	if workers <= 1 {
		e.dispatchSequential(ctx, res, chats, text, lim, log)
		return
	}
	e.dispatchPool(ctx, res, chats, text, lim, workers, log)
}

func (e *Engine) dispatchSequential(ctx context.Context, res *Result, chats []int64, text string, lim *rate.Limiter, log logx.Logger) {
	for _, chat := range chats {
		if err := lim.Wait(ctx); err != nil {
			// Cancelled: no new sends.
			return
		}
		res.Attempted++
		if err := e.gateway.Send(ctx, chat, text); err != nil {
			log.Warn("send failed", logx.Int64("chat_id", chat), logx.Err(err))
			res.Failures = append(res.Failures, Failure{ChatID: chat, Err: err})
			continue
		}
		res.Succeeded++
	}
}

func (e *Engine) dispatchPool(ctx context.Context, res *Result, chats []int64, text string, lim *rate.Limiter, workers int, log logx.Logger) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		feed = make(chan int64)
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic in dispatch worker",
						logx.Int("worker", idx), logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
			}()
			for chat := range feed {
				if err := lim.Wait(ctx); err != nil {
					// Cancelled: drain the feed without sending.
					continue
				}
				err := e.gateway.Send(ctx, chat, text)
				mu.Lock()
				res.Attempted++
				if err != nil {
					res.Failures = append(res.Failures, Failure{ChatID: chat, Err: err})
				} else {
					res.Succeeded++
				}
				mu.Unlock()
				if err != nil {
					log.Warn("send failed", logx.Int64("chat_id", chat), logx.Err(err))
				}
			}
		}()
	}

feeding:
	for _, chat := range chats {
		select {
		case <-ctx.Done():
			break feeding
		case feed <- chat:
		}
	}
	close(feed)
	wg.Wait()
}

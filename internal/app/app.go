// Package app wires the services together and owns start/stop order.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/broadcast"
	"dronewatch/internal/config"
	"dronewatch/internal/core"
	"dronewatch/internal/storage"
	"dronewatch/internal/transport/telegram"
	"dronewatch/internal/trigger"
)

type App struct {
	cfgPath string

	logSvc *logx.Service
	log    logx.Logger

	store   storage.Store
	adapter *telegram.Adapter
	engine  *broadcast.Engine
	svc     *core.Service
	trig    *trigger.Service

	watchWG     sync.WaitGroup
	watchCancel context.CancelFunc
}

// New loads the config and constructs every component. Nothing runs yet;
// Start begins polling, the trigger, and the config watcher.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", cfgPath, err)
	}

	logSvc, log := logx.New(cfg.Logx())

	store, err := storage.Open(cfg.Store(), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	adapter, err := telegram.New(cfg.TelegramAdapter(), log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	engine := broadcast.New(cfg.Engine(), store, store, adapter,
		log.With(logx.String("comp", "broadcast")))
	svc := core.NewService(store, engine, log.With(logx.String("comp", "core")))
	trig := trigger.New(cfg.TriggerService(), svc, log.With(logx.String("comp", "trigger")))

	return &App{
		cfgPath: cfgPath,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		adapter: adapter,
		engine:  engine,
		svc:     svc,
		trig:    trig,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.adapter.RegisterCommands(ctx, a.svc)
	a.adapter.Start(ctx)

	if err := a.trig.Start(ctx); err != nil {
		a.adapter.Stop(ctx)
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.watchWG.Add(1)
	go func() {
		defer a.watchWG.Done()
		if err := config.Watch(wctx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.applyConfig); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("dronewatch started")
	return nil
}

// applyConfig handles live-reloadable settings. Storage path, telegram token
// and trigger schedule need a restart; logging and dispatch tuning do not.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(cfg.Logx())
	a.engine.Apply(cfg.Engine())
	a.log.Info("runtime config applied",
		logx.Int("workers", cfg.Broadcast.Workers),
		logx.String("level", cfg.Logging.Level))
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.trig.Stop(ctx)
	a.adapter.Stop(ctx)
	a.watchWG.Wait()

	err := a.store.Close()
	a.log.Info("dronewatch stopped")
	_ = a.logSvc.Close()
	return err
}

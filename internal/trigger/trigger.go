// Package trigger is the periodic alert source: a cron entry that, with a
// configured probability, submits a synthetic alert through the core. It is
// demo scaffolding for running the system without a live operator and owns
// no delivery logic of its own.
package trigger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/broadcast"
	"dronewatch/internal/core"
)

type Config struct {
	Enabled     bool
	Schedule    string  // cron spec or @every form; default "@every 5m"
	Probability float64 // chance per tick, default 0.1
	Locations   []string
	Types       []string
}

var defaultLocations = []string{
	"Kazan", "Naberezhnye Chelny", "Almetyevsk", "Nizhnekamsk",
	"Zelenodolsk", "Bugulma", "Elabuga", "Leninogorsk", "Chistopol",
}

var defaultTypes = []string{
	"Drone sighting",
	"Airspace violation",
	"Possible UAV threat",
	"UAV activity",
}

// Submitter is the slice of the core the trigger needs.
type Submitter interface {
	SubmitAlert(ctx context.Context, req core.SubmitAlertRequest) (broadcast.Result, error)
}

type Service struct {
	cfg Config
	sub Submitter
	log logx.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	runMu sync.Mutex
	c     *cron.Cron
}

func New(cfg Config, sub Submitter, log logx.Logger) *Service {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Probability <= 0 {
		cfg.Probability = 0.1
	}
	if len(cfg.Locations) == 0 {
		cfg.Locations = defaultLocations
	}
	if len(cfg.Types) == 0 {
		cfg.Types = defaultTypes
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg: cfg,
		sub: sub,
		log: log,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Debug("trigger disabled")
		return nil
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.c != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("bad trigger schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.c = c
	s.log.Info("trigger started",
		logx.String("schedule", s.cfg.Schedule), logx.Float64("probability", s.cfg.Probability))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.runMu.Lock()
	c := s.c
	s.c = nil
	s.runMu.Unlock()
	if c == nil {
		return
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	s.log.Info("trigger stopped")
}

func (s *Service) tick(ctx context.Context) {
	if !s.roll() {
		return
	}
	req := s.synthesize()
	res, err := s.sub.SubmitAlert(ctx, req)
	if err != nil {
		s.log.Error("synthetic alert failed", logx.Err(err))
		return
	}
	s.log.Info("synthetic alert broadcast",
		logx.Int64("alert_id", res.AlertID),
		logx.Int("attempted", res.Attempted),
		logx.Int("succeeded", res.Succeeded))
}

func (s *Service) roll() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < s.cfg.Probability
}

func (s *Service) synthesize() core.SubmitAlertRequest {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	loc := s.cfg.Locations[s.rng.Intn(len(s.cfg.Locations))]
	typ := s.cfg.Types[s.rng.Intn(len(s.cfg.Types))]
	sev := "medium"
	if s.rng.Intn(2) == 1 {
		sev = "high"
	}
	return core.SubmitAlertRequest{
		Type:        typ,
		Location:    loc,
		Description: fmt.Sprintf("Unmanned aircraft activity reported near %s. Caution is advised.", loc),
		Severity:    sev,
	}
}

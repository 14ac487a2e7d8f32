// Package config loads the bot configuration from a YAML or JSON file with
// strict decoding, applies environment overrides for secrets, and can watch
// the file for live changes.
package config

import (
	"time"

	"dronewatch/internal/broadcast"
	"dronewatch/internal/storage"
	"dronewatch/internal/transport/telegram"
	"dronewatch/internal/trigger"

	logx "dronewatch/pkg/logx"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Broadcast BroadcastConfig `json:"broadcast"`
	Trigger   TriggerConfig   `json:"trigger"`
}

type TelegramConfig struct {
	Token        string  `json:"token" env:"TELEGRAM_TOKEN"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout Duration `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level" env:"LOG_LEVEL"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Path string `json:"path" env:"STORAGE_PATH"`
	// BusyTimeout is a Go duration string (sqlite busy handler).
	BusyTimeout Duration `json:"busy_timeout,omitempty"`
}

// BroadcastConfig tunes the delivery engine.
//
// Defaults (when fields are omitted/zero):
//   - workers: 4 (set 1 for fully sequential sends)
//   - send_interval: "100ms"
type BroadcastConfig struct {
	Workers      int      `json:"workers,omitempty"`
	SendInterval Duration `json:"send_interval,omitempty"`
}

// TriggerConfig controls the synthetic-alert cron source.
type TriggerConfig struct {
	Enabled     bool     `json:"enabled"`
	Schedule    string   `json:"schedule,omitempty"`
	Probability float64  `json:"probability,omitempty"`
	Locations   []string `json:"locations,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// ---- conversions into component configs ----

func (c *Config) TelegramAdapter() telegram.Config {
	return telegram.Config{
		Token:        c.Telegram.Token,
		OwnerUserIDs: c.Telegram.OwnerUserIDs,
		PollTimeout:  time.Duration(c.Telegram.PollTimeout),
	}
}

func (c *Config) Logx() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File:    logx.FileConfig{Enabled: c.Logging.File.Enabled, Path: c.Logging.File.Path},
	}
}

func (c *Config) Store() storage.Config {
	return storage.Config{
		Path:        c.Storage.Path,
		BusyTimeout: time.Duration(c.Storage.BusyTimeout),
	}
}

func (c *Config) Engine() broadcast.Config {
	return broadcast.Config{
		Workers:      c.Broadcast.Workers,
		SendInterval: time.Duration(c.Broadcast.SendInterval),
	}
}

func (c *Config) TriggerService() trigger.Config {
	return trigger.Config{
		Enabled:     c.Trigger.Enabled,
		Schedule:    c.Trigger.Schedule,
		Probability: c.Trigger.Probability,
		Locations:   c.Trigger.Locations,
		Types:       c.Trigger.Types,
	}
}

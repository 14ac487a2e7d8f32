package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/alert"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite store, creating the database file and schema
// if needed.
func Open(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, unavailable(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable(err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, unavailable(err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UpsertSubscriber(ctx context.Context, sub Subscriber) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers(user_id, chat_id, display_name, subscribed_at, is_active)
		 VALUES(?,?,?,?,1)
		 ON CONFLICT(user_id) DO UPDATE SET
		   chat_id = excluded.chat_id,
		   display_name = excluded.display_name,
		   is_active = 1`,
		sub.UserID, sub.ChatID, sub.DisplayName, now,
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *sqliteStore) DeactivateSubscriber(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET is_active = 0 WHERE user_id = ?`, userID)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *sqliteStore) ListActiveChats(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id FROM subscribers WHERE is_active = 1`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(err)
		}
		chats = append(chats, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return chats, nil
}

func (s *sqliteStore) CountActiveSubscribers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE is_active = 1`).Scan(&n)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (s *sqliteStore) AppendAlert(ctx context.Context, d alert.Draft) (alert.Alert, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_history(alert_type, location, description, severity, created_at)
		 VALUES(?,?,?,?,?)`,
		d.Type, d.Location, d.Description, string(d.Severity), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return alert.Alert{}, unavailable(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return alert.Alert{}, unavailable(err)
	}
	return alert.Alert{
		ID:          id,
		Type:        d.Type,
		Location:    d.Location,
		Description: d.Description,
		Severity:    d.Severity,
		CreatedAt:   createdAt,
	}, nil
}

func (s *sqliteStore) RecentAlerts(ctx context.Context, limit int) ([]alert.Alert, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, alert_type, location, description, severity, created_at
		 FROM alert_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var out []alert.Alert
	for rows.Next() {
		var (
			a   alert.Alert
			sev string
			ts  string
		)
		if err := rows.Scan(&a.ID, &a.Type, &a.Location, &a.Description, &sev, &ts); err != nil {
			return nil, unavailable(err)
		}
		a.Severity = alert.Severity(sev)
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			a.CreatedAt = t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

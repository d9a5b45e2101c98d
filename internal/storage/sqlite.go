package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(dbPath string, logger internal.Logger) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// WAL mode so reads don't block the writer.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- IntervalRepository ---

func (s *SQLiteStorage) ListIntervals(ctx context.Context) ([]internal.SleepInterval, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, start_time, end_time FROM sleep_intervals`)
	if err != nil {
		s.logger.Errorf("failed to query sleep intervals: %v", err)
		return []internal.SleepInterval{}, nil
	}
	defer rows.Close()

	var ivs []internal.SleepInterval
	for rows.Next() {
		var iv internal.SleepInterval
		var end sql.NullTime
		if err := rows.Scan(&iv.ID, &iv.StartTime, &end); err != nil {
			s.logger.Errorf("failed to scan sleep interval: %v", err)
			return []internal.SleepInterval{}, nil
		}
		if end.Valid {
			t := end.Time
			iv.EndTime = &t
		}
		ivs = append(ivs, iv)
	}
	if ivs == nil {
		ivs = []internal.SleepInterval{}
	}
	return ivs, nil
}

func (s *SQLiteStorage) SaveInterval(ctx context.Context, iv *internal.SleepInterval) error {
	var end any
	if iv.EndTime != nil {
		end = *iv.EndTime
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sleep_intervals (id, start_time, end_time) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET start_time = excluded.start_time, end_time = excluded.end_time`,
		iv.ID, iv.StartTime, end)
	if err != nil {
		s.logger.Errorf("failed to upsert sleep interval: %v", err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) DeleteInterval(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sleep_intervals WHERE id = ?`, id)
	if err != nil {
		s.logger.Errorf("failed to delete sleep interval: %v", err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) ReplaceIntervals(ctx context.Context, ivs []internal.SleepInterval) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleep_intervals`); err != nil {
		return err
	}
	for i := range ivs {
		iv := &ivs[i]
		var end any
		if iv.EndTime != nil {
			end = *iv.EndTime
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO sleep_intervals (id, start_time, end_time) VALUES (?, ?, ?)`,
			iv.ID, iv.StartTime, end); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- ProfileRepository / SettingsRepository ---

func (s *SQLiteStorage) GetProfile(ctx context.Context) (internal.BabyProfile, error) {
	return sqliteGetDocument(ctx, s, "profile", internal.DefaultProfile())
}

func (s *SQLiteStorage) SetProfile(ctx context.Context, p internal.BabyProfile) error {
	return sqliteSetDocument(ctx, s, "profile", p)
}

func (s *SQLiteStorage) GetSettings(ctx context.Context) (internal.AppSettings, error) {
	return sqliteGetDocument(ctx, s, "settings", internal.DefaultSettings())
}

func (s *SQLiteStorage) SetSettings(ctx context.Context, set internal.AppSettings) error {
	return sqliteSetDocument(ctx, s, "settings", set)
}

func sqliteGetDocument[T any](ctx context.Context, s *SQLiteStorage, key string, fallback T) (T, error) {
	var raw []byte
	row := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Errorf("failed to read %s: %v", key, err)
		}
		return fallback, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warnf("failed to decode %s, using defaults: %v", key, err)
		return fallback, nil
	}
	return out, nil
}

func sqliteSetDocument(ctx context.Context, s *SQLiteStorage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, raw)
	if err != nil {
		s.logger.Errorf("failed to write %s: %v", key, err)
		return err
	}
	return nil
}

// --- Compile-time assertions ---
var _ Store = (*SQLiteStorage)(nil)

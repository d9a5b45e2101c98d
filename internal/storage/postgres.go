package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mattwrdg/snoozydozy/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

// NewPostgresStorage connects to an existing database. The schema matches
// internal/storage/migrations and is managed externally (goose CLI).
func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- IntervalRepository ---

func (p *PostgresStorage) ListIntervals(ctx context.Context) ([]internal.SleepInterval, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, start_time, end_time FROM sleep_intervals`)
	if err != nil {
		p.logger.Errorf("failed to query sleep intervals: %v", err)
		return []internal.SleepInterval{}, nil
	}
	defer rows.Close()

	var ivs []internal.SleepInterval
	for rows.Next() {
		var iv internal.SleepInterval
		var end *time.Time
		if err := rows.Scan(&iv.ID, &iv.StartTime, &end); err != nil {
			p.logger.Errorf("failed to scan sleep interval: %v", err)
			return []internal.SleepInterval{}, nil
		}
		iv.EndTime = end
		ivs = append(ivs, iv)
	}
	if ivs == nil {
		ivs = []internal.SleepInterval{}
	}
	return ivs, nil
}

func (p *PostgresStorage) SaveInterval(ctx context.Context, iv *internal.SleepInterval) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_intervals (id, start_time, end_time) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time`,
		iv.ID, iv.StartTime, iv.EndTime)
	if err != nil {
		p.logger.Errorf("failed to upsert sleep interval: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) DeleteInterval(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM sleep_intervals WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("failed to delete sleep interval: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ReplaceIntervals(ctx context.Context, ivs []internal.SleepInterval) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sleep_intervals`); err != nil {
		return err
	}
	for i := range ivs {
		iv := &ivs[i]
		if _, err := tx.Exec(ctx, `INSERT INTO sleep_intervals (id, start_time, end_time) VALUES ($1, $2, $3)`,
			iv.ID, iv.StartTime, iv.EndTime); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- ProfileRepository ---

// Profile and settings live in a single-row key/value table; the rows hold
// the JSON document so schema changes don't need migrations.

func (p *PostgresStorage) GetProfile(ctx context.Context) (internal.BabyProfile, error) {
	return getDocument(ctx, p, "profile", internal.DefaultProfile())
}

func (p *PostgresStorage) SetProfile(ctx context.Context, prof internal.BabyProfile) error {
	return setDocument(ctx, p, "profile", prof)
}

// --- SettingsRepository ---

func (p *PostgresStorage) GetSettings(ctx context.Context) (internal.AppSettings, error) {
	return getDocument(ctx, p, "settings", internal.DefaultSettings())
}

func (p *PostgresStorage) SetSettings(ctx context.Context, s internal.AppSettings) error {
	return setDocument(ctx, p, "settings", s)
}

func getDocument[T any](ctx context.Context, p *PostgresStorage, key string, fallback T) (T, error) {
	var raw []byte
	row := p.pool.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key)
	if err := row.Scan(&raw); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.logger.Errorf("failed to read %s: %v", key, err)
		}
		return fallback, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		p.logger.Warnf("failed to decode %s, using defaults: %v", key, err)
		return fallback, nil
	}
	return out, nil
}

func setDocument(ctx context.Context, p *PostgresStorage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO app_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, raw)
	if err != nil {
		p.logger.Errorf("failed to write %s: %v", key, err)
		return err
	}
	return nil
}

// --- Compile-time assertions ---
var _ Store = (*PostgresStorage)(nil)

package storage

import (
	"context"

	"github.com/mattwrdg/snoozydozy/internal"
)

type IntervalRepository interface {
	// ListIntervals returns every stored interval. Missing or unreadable
	// data is treated as an empty collection, not an error.
	ListIntervals(ctx context.Context) ([]internal.SleepInterval, error)
	// SaveInterval inserts the interval, or replaces the stored one with
	// the same ID.
	SaveInterval(ctx context.Context, iv *internal.SleepInterval) error
	// DeleteInterval removes the interval with the given ID; no-op when
	// the ID is unknown.
	DeleteInterval(ctx context.Context, id string) error
	// ReplaceIntervals swaps the full collection, used by import.
	ReplaceIntervals(ctx context.Context, ivs []internal.SleepInterval) error
}

type ProfileRepository interface {
	GetProfile(ctx context.Context) (internal.BabyProfile, error)
	SetProfile(ctx context.Context, p internal.BabyProfile) error
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (internal.AppSettings, error)
	SetSettings(ctx context.Context, s internal.AppSettings) error
}

// Store bundles the three repositories every backend implements.
type Store interface {
	IntervalRepository
	ProfileRepository
	SettingsRepository
	Close() error
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/service"
	"github.com/mattwrdg/snoozydozy/internal/stats"
	"github.com/mattwrdg/snoozydozy/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	dir := t.TempDir()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	store, err := storage.NewFileStorage(dir+"/sleep_data.json", dir+"/app_state.json", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStartAndEndSleep(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2026, time.August, 28, 20, 0, 0, 0, time.UTC)

	iv, err := service.StartSleep(ctx, store, now)
	require.NoError(t, err)
	assert.NotEmpty(t, iv.ID)
	assert.True(t, iv.IsOngoing())

	// A second start while one is running is rejected.
	_, err = service.StartSleep(ctx, store, now.Add(time.Minute))
	assert.ErrorIs(t, err, service.ErrOngoingExists)

	ended, err := service.EndSleep(ctx, store, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, iv.ID, ended.ID)
	require.NotNil(t, ended.EndTime)
	assert.Equal(t, 2*time.Hour, ended.EndTime.Sub(ended.StartTime))

	_, err = service.EndSleep(ctx, store, now.Add(3*time.Hour))
	assert.ErrorIs(t, err, service.ErrNoOngoing)
}

func TestAddManualEntrySameDay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := service.AddManualEntry(ctx, store, &service.ManualEntryRequest{
		Date:        time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
		StartHour:   10,
		StartMinute: 0,
		EndHour:     11,
		EndMinute:   30,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 90*time.Minute, created[0].EndTime.Sub(created[0].StartTime))
}

func TestAddManualEntrySplitsAtMidnight(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	day := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)

	created, err := service.AddManualEntry(ctx, store, &service.ManualEntryRequest{
		Date:      day,
		StartHour: 20, StartMinute: 0,
		EndHour: 7, EndMinute: 0,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	first, second := created[0], created[1]
	assert.Equal(t, time.Date(2026, time.August, 20, 20, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, time.Date(2026, time.August, 20, 23, 59, 59, 0, time.UTC), *first.EndTime)
	assert.Equal(t, time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC), second.StartTime)
	assert.Equal(t, time.Date(2026, time.August, 21, 7, 0, 0, 0, time.UTC), *second.EndTime)

	// The two halves report as a single night.
	ivs, err := store.ListIntervals(ctx)
	require.NoError(t, err)
	nights := stats.NightDurations(ivs, stats.PeriodAll, day.AddDate(0, 0, 2))
	require.Len(t, nights, 1)
	assert.Equal(t, 11*time.Hour-time.Second, nights[day])
}

func TestUpdateIntervalNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := service.UpdateInterval(ctx, store, "missing", &service.UpdateIntervalRequest{
		StartTime: time.Now(),
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateAndDeleteInterval(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)

	iv, err := service.StartSleep(ctx, store, now)
	require.NoError(t, err)

	newStart := now.Add(-time.Hour)
	newEnd := now.Add(time.Hour)
	updated, err := service.UpdateInterval(ctx, store, iv.ID, &service.UpdateIntervalRequest{
		StartTime: newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, newEnd, *updated.EndTime)

	require.NoError(t, service.DeleteInterval(ctx, store, iv.ID))
	ivs, err := store.ListIntervals(ctx)
	require.NoError(t, err)
	assert.Empty(t, ivs)

	// Deleting an unknown ID is a no-op, not an error.
	assert.NoError(t, service.DeleteInterval(ctx, store, "missing"))
}

func TestValidateUpdateIntervalRequest(t *testing.T) {
	start := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	assert.NoError(t, service.ValidateUpdateIntervalRequest(&service.UpdateIntervalRequest{StartTime: start}))
	assert.Error(t, service.ValidateUpdateIntervalRequest(&service.UpdateIntervalRequest{StartTime: start, EndTime: &before}))
	assert.Error(t, service.ValidateUpdateIntervalRequest(&service.UpdateIntervalRequest{}))
}

func TestValidateManualEntryRequest(t *testing.T) {
	day := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, service.ValidateManualEntryRequest(&service.ManualEntryRequest{Date: day, StartHour: 20, EndHour: 7}))
	assert.Error(t, service.ValidateManualEntryRequest(&service.ManualEntryRequest{Date: day, StartHour: 24}))
	assert.Error(t, service.ValidateManualEntryRequest(&service.ManualEntryRequest{Date: day, EndMinute: 60}))
}

func TestListIntervalsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	day := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)

	for hour := 8; hour <= 16; hour += 4 {
		_, err := service.AddManualEntry(ctx, store, &service.ManualEntryRequest{
			Date:      day,
			StartHour: hour, EndHour: hour + 1,
		})
		require.NoError(t, err)
	}

	ivs, err := service.ListIntervals(ctx, store)
	require.NoError(t, err)
	require.Len(t, ivs, 3)
	assert.Equal(t, 16, ivs[0].StartTime.Hour())
	assert.Equal(t, 8, ivs[2].StartTime.Hour())
}

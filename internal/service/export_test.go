package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/service"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

	_, err := service.AddManualEntry(ctx, src, &service.ManualEntryRequest{
		Date:      time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
		StartHour: 20, EndHour: 7,
	})
	require.NoError(t, err)
	ongoing, err := service.StartSleep(ctx, src, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, src.SetProfile(ctx, internal.BabyProfile{
		Name:     "Anna",
		Birthday: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Height:   "60",
		Weight:   "5500",
	}))
	require.NoError(t, src.SetSettings(ctx, internal.AppSettings{
		NotificationsEnabled:  true,
		ReminderMinutesBefore: 45,
	}))

	doc, err := service.Export(ctx, src, now)
	require.NoError(t, err)
	assert.Equal(t, now, doc.Metadata.ExportDate)
	assert.Len(t, doc.SleepEntries, 3)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	dst := newTestStore(t)
	imported, err := service.Import(ctx, dst, raw)
	require.NoError(t, err)
	assert.Len(t, imported.SleepEntries, 3)

	ivs, err := dst.ListIntervals(ctx)
	require.NoError(t, err)
	require.Len(t, ivs, 3)

	// The ongoing entry survives with its absent end time and same ID.
	var roundTripped *internal.SleepInterval
	for i := range ivs {
		if ivs[i].ID == ongoing.ID {
			roundTripped = &ivs[i]
		}
	}
	require.NotNil(t, roundTripped)
	assert.Nil(t, roundTripped.EndTime)
	assert.True(t, roundTripped.StartTime.Equal(ongoing.StartTime))

	profile, err := dst.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anna", profile.Name)

	settings, err := dst.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, settings.ReminderMinutesBefore)
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := service.AddManualEntry(ctx, store, &service.ManualEntryRequest{
		Date:      time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
		StartHour: 10, EndHour: 11,
	})
	require.NoError(t, err)

	_, err = service.Import(ctx, store, []byte(`{not json`))
	assert.Error(t, err)

	_, err = service.Import(ctx, store, []byte(`{"unexpected_field": true}`))
	assert.Error(t, err)

	// A rejected import leaves the existing data alone.
	ivs, err := store.ListIntervals(ctx)
	require.NoError(t, err)
	assert.Len(t, ivs, 1)
}

func TestImportEmptyEntries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := service.AddManualEntry(ctx, store, &service.ManualEntryRequest{
		Date:      time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC),
		StartHour: 10, EndHour: 11,
	})
	require.NoError(t, err)

	doc := service.ExportDocument{
		Metadata: service.ExportMetadata{ExportDate: time.Now(), AppVersion: "1.0.0"},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = service.Import(ctx, store, raw)
	require.NoError(t, err)

	ivs, err := store.ListIntervals(ctx)
	require.NoError(t, err)
	assert.Empty(t, ivs)
}

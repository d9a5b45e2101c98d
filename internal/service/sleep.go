package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/storage"
)

var validate = validator.New()

var (
	ErrOngoingExists = errors.New("service: an ongoing sleep already exists")
	ErrNoOngoing     = errors.New("service: no ongoing sleep to end")
	ErrNotFound      = errors.New("service: interval not found")
)

// ManualEntryRequest is a hand-entered sleep for a chosen day. Start and
// end are clock times; an end at or before the start means the sleep ran
// past midnight.
type ManualEntryRequest struct {
	Date        time.Time `json:"date" validate:"required"`
	StartHour   int       `json:"start_hour" validate:"gte=0,lte=23"`
	StartMinute int       `json:"start_minute" validate:"gte=0,lte=59"`
	EndHour     int       `json:"end_hour" validate:"gte=0,lte=23"`
	EndMinute   int       `json:"end_minute" validate:"gte=0,lte=59"`
}

type UpdateIntervalRequest struct {
	StartTime time.Time  `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

func ValidateManualEntryRequest(body *ManualEntryRequest) error {
	return validate.Struct(body)
}

func ValidateUpdateIntervalRequest(body *UpdateIntervalRequest) error {
	if err := validate.Struct(body); err != nil {
		return err
	}
	if body.EndTime != nil && body.EndTime.Before(body.StartTime) {
		return errors.New("end_time must not be before start_time")
	}
	return nil
}

// StartSleep opens a new ongoing interval. The store itself does not
// enforce a single ongoing interval, so the guard lives here.
func StartSleep(ctx context.Context, repo storage.IntervalRepository, now time.Time) (*internal.SleepInterval, error) {
	ivs, err := repo.ListIntervals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ivs {
		if ivs[i].IsOngoing() {
			return nil, ErrOngoingExists
		}
	}

	iv := &internal.SleepInterval{
		ID:        uuid.NewString(),
		StartTime: now,
	}
	if err := repo.SaveInterval(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// EndSleep closes the earliest ongoing interval at now.
func EndSleep(ctx context.Context, repo storage.IntervalRepository, now time.Time) (*internal.SleepInterval, error) {
	ivs, err := repo.ListIntervals(ctx)
	if err != nil {
		return nil, err
	}

	var ongoing *internal.SleepInterval
	for i := range ivs {
		if !ivs[i].IsOngoing() {
			continue
		}
		if ongoing == nil || ivs[i].StartTime.Before(ongoing.StartTime) {
			ongoing = &ivs[i]
		}
	}
	if ongoing == nil {
		return nil, ErrNoOngoing
	}

	end := now
	ongoing.EndTime = &end
	if err := repo.SaveInterval(ctx, ongoing); err != nil {
		return nil, err
	}
	return ongoing, nil
}

// AddManualEntry stores a hand-entered sleep. When the entry crosses
// midnight it is split into two records, one per calendar day; the night
// aggregation in the stats package merges them back for reporting.
func AddManualEntry(ctx context.Context, repo storage.IntervalRepository, body *ManualEntryRequest) ([]internal.SleepInterval, error) {
	day := body.Date
	loc := day.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), body.StartHour, body.StartMinute, 0, 0, loc)

	startMinutes := body.StartHour*60 + body.StartMinute
	endMinutes := body.EndHour*60 + body.EndMinute

	var created []internal.SleepInterval
	if endMinutes <= startMinutes {
		endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
		nextDay := day.AddDate(0, 0, 1)
		startOfNext := time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), 0, 0, 0, 0, loc)
		endOnNext := time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), body.EndHour, body.EndMinute, 0, 0, loc)

		created = append(created,
			internal.SleepInterval{ID: uuid.NewString(), StartTime: start, EndTime: &endOfDay},
			internal.SleepInterval{ID: uuid.NewString(), StartTime: startOfNext, EndTime: &endOnNext},
		)
	} else {
		end := time.Date(day.Year(), day.Month(), day.Day(), body.EndHour, body.EndMinute, 0, 0, loc)
		created = append(created, internal.SleepInterval{ID: uuid.NewString(), StartTime: start, EndTime: &end})
	}

	for i := range created {
		if err := repo.SaveInterval(ctx, &created[i]); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// UpdateInterval replaces the timestamps of a stored interval.
func UpdateInterval(ctx context.Context, repo storage.IntervalRepository, id string, body *UpdateIntervalRequest) (*internal.SleepInterval, error) {
	ivs, err := repo.ListIntervals(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range ivs {
		if ivs[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	iv := &internal.SleepInterval{ID: id, StartTime: body.StartTime, EndTime: body.EndTime}
	if err := repo.SaveInterval(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

func DeleteInterval(ctx context.Context, repo storage.IntervalRepository, id string) error {
	return repo.DeleteInterval(ctx, id)
}

// ListIntervals returns the collection newest first.
func ListIntervals(ctx context.Context, repo storage.IntervalRepository) ([]internal.SleepInterval, error) {
	ivs, err := repo.ListIntervals(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].StartTime.After(ivs[j].StartTime)
	})
	return ivs, nil
}

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/storage"
)

type UpdateProfileRequest struct {
	Name          string    `json:"name" validate:"required"`
	Birthday      time.Time `json:"birthday" validate:"required"`
	Gender        string    `json:"gender" validate:"omitempty,oneof=Junge Mädchen"`
	Breastfeeding string    `json:"breastfeeding" validate:"omitempty,oneof=Ja Nein Teilweise"`
	Height        string    `json:"height"`
	Weight        string    `json:"weight"`
}

func ValidateUpdateProfileRequest(body *UpdateProfileRequest) error {
	return validate.Struct(body)
}

// UpdateProfile sanitizes the submitted profile and stores it. Out-of-range
// height or weight keeps the previously stored value, and a birthday in the
// future is clamped to now.
func UpdateProfile(ctx context.Context, repo storage.ProfileRepository, body *UpdateProfileRequest, now time.Time) (internal.BabyProfile, error) {
	current, err := repo.GetProfile(ctx)
	if err != nil {
		return internal.BabyProfile{}, err
	}

	p := internal.BabyProfile{
		Name:          internal.SanitizeName(body.Name),
		Birthday:      body.Birthday,
		Gender:        body.Gender,
		Breastfeeding: body.Breastfeeding,
		Height:        current.Height,
		Weight:        current.Weight,
	}
	if p.Name == "" {
		p.Name = current.Name
	}
	if p.Gender == "" {
		p.Gender = current.Gender
	}
	if p.Breastfeeding == "" {
		p.Breastfeeding = current.Breastfeeding
	}
	if p.Birthday.After(now) {
		p.Birthday = now
	}
	if inRange(body.Height, internal.MinHeightCm, internal.MaxHeightCm) {
		p.Height = body.Height
	}
	if inRange(body.Weight, internal.MinWeightG, internal.MaxWeightG) {
		p.Weight = body.Weight
	}

	if err := repo.SetProfile(ctx, p); err != nil {
		return internal.BabyProfile{}, err
	}
	return p, nil
}

func inRange(raw string, min, max int) bool {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	return v >= min && v <= max
}

type UpdateSettingsRequest struct {
	NotificationsEnabled  bool `json:"notifications_enabled"`
	ReminderMinutesBefore int  `json:"reminder_minutes_before" validate:"gte=0,lte=720"`
}

func ValidateUpdateSettingsRequest(body *UpdateSettingsRequest) error {
	return validate.Struct(body)
}

func UpdateSettings(ctx context.Context, repo storage.SettingsRepository, body *UpdateSettingsRequest) (internal.AppSettings, error) {
	s := internal.AppSettings{
		NotificationsEnabled:  body.NotificationsEnabled,
		ReminderMinutesBefore: body.ReminderMinutesBefore,
	}
	if err := repo.SetSettings(ctx, s); err != nil {
		return internal.AppSettings{}, err
	}
	return s, nil
}

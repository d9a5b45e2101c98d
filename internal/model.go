package internal

import (
	"strings"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// SleepInterval is one recorded sleep session. A nil EndTime means the
// sleep is still ongoing.
type SleepInterval struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

func (s *SleepInterval) IsOngoing() bool {
	return s.EndTime == nil
}

// EffectiveEnd returns the end time, or now for an ongoing interval. It is
// recomputed on every read so the duration of an ongoing sleep grows as
// time passes.
func (s *SleepInterval) EffectiveEnd(now time.Time) time.Time {
	if s.EndTime != nil {
		return *s.EndTime
	}
	return now
}

func (s *SleepInterval) Duration(now time.Time) time.Duration {
	return s.EffectiveEnd(now).Sub(s.StartTime)
}

// BabyProfile holds the tracked infant's master data. Height is in cm,
// weight in g; both are strings because the stored data format keeps the
// raw field input.
type BabyProfile struct {
	Name          string    `json:"name"`
	Birthday      time.Time `json:"birthday"`
	Gender        string    `json:"gender"`
	Breastfeeding string    `json:"breastfeeding"`
	Height        string    `json:"height"`
	Weight        string    `json:"weight"`
}

func DefaultProfile() BabyProfile {
	return BabyProfile{
		Name:          "Baby",
		Birthday:      time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Gender:        "Junge",
		Breastfeeding: "Ja",
		Height:        "52",
		Weight:        "3750",
	}
}

// AppSettings are the user-tunable toggles that survive export/import.
type AppSettings struct {
	NotificationsEnabled  bool `json:"notifications_enabled"`
	ReminderMinutesBefore int  `json:"reminder_minutes_before"`
}

func DefaultSettings() AppSettings {
	return AppSettings{NotificationsEnabled: false, ReminderMinutesBefore: 60}
}

// Validation bounds for profile input.
const (
	MaxNameLength = 50
	MinHeightCm   = 30
	MaxHeightCm   = 120
	MinWeightG    = 500
	MaxWeightG    = 20000
)

// SanitizeName trims whitespace and caps the length.
func SanitizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) > MaxNameLength {
		return trimmed[:MaxNameLength]
	}
	return trimmed
}

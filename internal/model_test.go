package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveEndGrowsForOngoing(t *testing.T) {
	start := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)
	iv := SleepInterval{ID: "iv1", StartTime: start}

	assert.True(t, iv.IsOngoing())
	assert.Equal(t, 2*time.Hour, iv.Duration(start.Add(2*time.Hour)))
	assert.Equal(t, 3*time.Hour, iv.Duration(start.Add(3*time.Hour)))

	end := start.Add(90 * time.Minute)
	iv.EndTime = &end
	assert.False(t, iv.IsOngoing())
	// A completed interval ignores "now".
	assert.Equal(t, 90*time.Minute, iv.Duration(start.Add(5*time.Hour)))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Anna", SanitizeName("  Anna \n"))
	assert.Equal(t, strings.Repeat("x", MaxNameLength), SanitizeName(strings.Repeat("x", 120)))
	assert.Equal(t, "", SanitizeName("   "))
}

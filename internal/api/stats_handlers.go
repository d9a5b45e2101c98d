package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattwrdg/snoozydozy/internal/stats"
)

// GetSleepStats returns the scalar aggregates for the requested period.
// Durations are reported as fractional hours for direct display.
func GetSleepStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		period := stats.ParsePeriod(c.Query("period"))
		ivs, err := app.Store().ListIntervals(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch entries for stats")
			return
		}

		s := stats.Summarize(ivs, period, time.Now())
		meta := map[string]any{
			"period":                 string(period),
			"average_daily_sleep":    s.AverageDailySleep.Hours(),
			"average_sleep_sessions": s.AverageSleepSessions,
			"average_night_sleep":    s.AverageNightSleep.Hours(),
			"longest_sleep":          s.LongestSleep.Hours(),
			"shortest_sleep":         s.ShortestSleep.Hours(),
			"total_entries":          s.TotalEntries,
			"unique_days":            s.UniqueDays,
			"has_data":               s.HasData,
		}
		HandleSuccess(c, app.Logger(), nil, meta)
	}
}

// GetSleepChart returns the per-day sleep duration bars.
func GetSleepChart(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		period := stats.ParsePeriod(c.Query("period"))
		ivs, err := app.Store().ListIntervals(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch entries for chart")
			return
		}

		totals := stats.DailyTotals(ivs, period, time.Now())
		HandleSuccess(c, app.Logger(), totals, map[string]any{"period": string(period)})
	}
}

// GetSleepTimes returns the bedtime and wake time series side by side.
func GetSleepTimes(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		period := stats.ParsePeriod(c.Query("period"))
		ivs, err := app.Store().ListIntervals(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch entries for times")
			return
		}

		now := time.Now()
		data := map[string]any{
			"sleep_times": stats.SleepTimes(ivs, period, now),
			"wake_times":  stats.WakeTimes(ivs, period, now),
		}
		HandleSuccess(c, app.Logger(), data, map[string]any{"period": string(period)})
	}
}

// GetBedtime reports the average bedtime and the reminder derived from it.
func GetBedtime(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ivs, err := app.Store().ListIntervals(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch entries for bedtime")
			return
		}

		bt := stats.AverageBedtime(ivs, time.Now())
		meta := map[string]any{"has_data": bt != nil}
		if sched := app.Reminder().Scheduled(); sched != nil {
			meta["reminder"] = sched
		}
		HandleSuccess(c, app.Logger(), bt, meta)
	}
}

// GetSunTimes returns sunrise and sunset for a date, defaulting to today.
func GetSunTimes(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, date.Location())
			if err != nil {
				HandleError(c, app.Logger(), errors.New("date must be YYYY-MM-DD"), 400, "Invalid date")
				return
			}
			date = parsed
		}

		times := app.Sun().SunTimes(c.Request.Context(), date)
		HandleSuccess(c, app.Logger(), times, map[string]any{"date": date.Format("2006-01-02")})
	}
}

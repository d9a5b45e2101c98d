// Package stats derives calendar-aware sleep statistics from a raw set of
// sleep intervals. Every function is a pure computation over its inputs;
// "now" is always an explicit parameter so results are deterministic.
package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/mattwrdg/snoozydozy/internal"
)

// Period is the reporting horizon for aggregates and chart series.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod maps a query value onto a Period, defaulting to week.
func ParsePeriod(s string) Period {
	switch s {
	case string(PeriodMonth):
		return PeriodMonth
	case string(PeriodAll):
		return PeriodAll
	default:
		return PeriodWeek
	}
}

// chartDays is the number of days rendered for the period. "all" has no
// natural window, so its chart series fall back to the 7-day view.
func (p Period) chartDays() int {
	if p == PeriodMonth {
		return 30
	}
	return 7
}

// Night sleep starts at or after this hour, or before morningHour.
const (
	eveningHour = 18
	morningHour = 6

	wakeWindowStart = 4
	wakeWindowEnd   = 12
)

// DayTotal is one bar of the per-day sleep duration chart.
type DayTotal struct {
	Date    time.Time `json:"date"`
	Hours   float64   `json:"hours"`
	Label   string    `json:"label"`
	IsToday bool      `json:"is_today"`
	Index   int       `json:"index"`
}

// TimePoint is one entry of a time-of-day series (bedtime or wake time).
// Value is fractional hours, e.g. 19.5 for 19:30.
type TimePoint struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Label   string    `json:"label"`
	Day     string    `json:"day"`
	IsToday bool      `json:"is_today"`
	HasData bool      `json:"has_data"`
	Index   int       `json:"index"`
}

// Summary bundles the scalar aggregates shown on the statistics cards.
type Summary struct {
	AverageDailySleep    time.Duration `json:"average_daily_sleep"`
	AverageSleepSessions float64       `json:"average_sleep_sessions"`
	AverageNightSleep    time.Duration `json:"average_night_sleep"`
	LongestSleep         time.Duration `json:"longest_sleep"`
	ShortestSleep        time.Duration `json:"shortest_sleep"`
	TotalEntries         int           `json:"total_entries"`
	UniqueDays           int           `json:"unique_days"`
	HasData              bool          `json:"has_data"`
}

// Bedtime is a wall-clock time of day.
type Bedtime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// dayOf truncates t to its calendar day in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// Entries filters to completed intervals whose start falls within the
// period's window ending at now. "all" keeps every completed interval.
func Entries(ivs []internal.SleepInterval, period Period, now time.Time) []internal.SleepInterval {
	var cutoff time.Time
	switch period {
	case PeriodWeek:
		cutoff = now.AddDate(0, 0, -7)
	case PeriodMonth:
		cutoff = now.AddDate(0, 0, -30)
	case PeriodAll:
		// no cutoff
	}

	out := make([]internal.SleepInterval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.EndTime == nil {
			continue
		}
		if period != PeriodAll && iv.StartTime.Before(cutoff) {
			continue
		}
		out = append(out, iv)
	}
	return out
}

// DailyTotals sums sleep per calendar day over the period's chart window,
// oldest day first. Ongoing intervals count up to now. Day labels are the
// weekday abbreviation for the week view and the day of month for the
// month view.
func DailyTotals(ivs []internal.SleepInterval, period Period, now time.Time) []DayTotal {
	loc := now.Location()
	today := dayOf(now, loc)
	days := period.chartDays()

	totals := make([]DayTotal, 0, days)
	for index, dayOffset := 0, days-1; dayOffset >= 0; index, dayOffset = index+1, dayOffset-1 {
		date := today.AddDate(0, 0, -dayOffset)

		var total time.Duration
		for i := range ivs {
			iv := &ivs[i]
			if !dayOf(iv.StartTime, loc).Equal(date) {
				continue
			}
			if d := iv.Duration(now); d > 0 {
				total += d
			}
		}

		totals = append(totals, DayTotal{
			Date:    date,
			Hours:   total.Hours(),
			Label:   dayLabel(date, period),
			IsToday: date.Equal(today),
			Index:   index,
		})
	}
	return totals
}

func dayLabel(date time.Time, period Period) string {
	if period == PeriodMonth {
		return strconv.Itoa(date.Day())
	}
	return date.Format("Mon")
}

// NightDurations merges night-sleep entries into per-night totals, keyed by
// the calendar day of the evening the night belongs to. An entry starting
// before 06:00 is the continuation of the previous evening, so a bedtime
// interval split at midnight is summed back into a single night.
func NightDurations(ivs []internal.SleepInterval, period Period, now time.Time) map[time.Time]time.Duration {
	loc := now.Location()
	durations := make(map[time.Time]time.Duration)

	for _, iv := range Entries(ivs, period, now) {
		hour := iv.StartTime.In(loc).Hour()
		if hour < eveningHour && hour >= morningHour {
			continue
		}

		nightKey := dayOf(iv.StartTime, loc)
		if hour < morningHour {
			nightKey = nightKey.AddDate(0, 0, -1)
		}
		durations[nightKey] += iv.EndTime.Sub(iv.StartTime)
	}
	return durations
}

// Summarize computes the scalar aggregates for the period.
func Summarize(ivs []internal.SleepInterval, period Period, now time.Time) Summary {
	loc := now.Location()
	entries := Entries(ivs, period, now)

	daySet := make(map[time.Time]struct{})
	var total time.Duration
	for _, e := range entries {
		daySet[dayOf(e.StartTime, loc)] = struct{}{}
		total += e.EndTime.Sub(e.StartTime)
	}
	uniqueDays := len(daySet)
	divisor := uniqueDays
	if divisor < 1 {
		divisor = 1
	}

	nights := NightDurations(ivs, period, now)
	var nightTotal time.Duration
	for _, d := range nights {
		nightTotal += d
	}
	var avgNight time.Duration
	if len(nights) > 0 {
		avgNight = nightTotal / time.Duration(len(nights))
	}

	return Summary{
		AverageDailySleep:    total / time.Duration(divisor),
		AverageSleepSessions: float64(len(entries)) / float64(divisor),
		AverageNightSleep:    avgNight,
		LongestSleep:         longestSleep(entries, nights, loc),
		ShortestSleep:        shortestSleep(entries),
		TotalEntries:         len(entries),
		UniqueDays:           uniqueDays,
		HasData:              len(entries) > 0,
	}
}

// longestSleep takes the maximum over individual daytime naps and merged
// per-night totals. Night entries are only considered as merged blocks, so
// a night split at midnight competes with its full combined duration.
func longestSleep(entries []internal.SleepInterval, nights map[time.Time]time.Duration, loc *time.Location) time.Duration {
	var longest time.Duration
	for _, e := range entries {
		hour := e.StartTime.In(loc).Hour()
		if hour < morningHour || hour >= eveningHour {
			continue
		}
		if d := e.EndTime.Sub(e.StartTime); d > longest {
			longest = d
		}
	}
	for _, d := range nights {
		if d > longest {
			longest = d
		}
	}
	return longest
}

// shortestSleep is the minimum over all individual entries. Unlike
// longestSleep it does not merge midnight-split nights; that asymmetry is
// existing behavior, kept on purpose.
func shortestSleep(entries []internal.SleepInterval) time.Duration {
	var shortest time.Duration
	for i, e := range entries {
		d := e.EndTime.Sub(e.StartTime)
		if i == 0 || d < shortest {
			shortest = d
		}
	}
	return shortest
}

// SleepTimes returns, per chart day, the time the baby fell asleep in the
// evening of that day: the earliest completed interval starting at or
// after 18:00. Days without one are marked HasData=false.
func SleepTimes(ivs []internal.SleepInterval, period Period, now time.Time) []TimePoint {
	loc := now.Location()
	return timeSeries(period, now, func(date time.Time) (time.Time, bool) {
		var best time.Time
		found := false
		for i := range ivs {
			iv := &ivs[i]
			if iv.EndTime == nil {
				continue
			}
			st := iv.StartTime.In(loc)
			if !dayOf(iv.StartTime, loc).Equal(date) || st.Hour() < eveningHour {
				continue
			}
			if !found || st.Before(best) {
				best = st
				found = true
			}
		}
		return best, found
	})
}

// WakeTimes returns, per chart day, the end of the primary night sleep:
// the earliest completed interval ending on that day between 04:00 and
// 12:00.
func WakeTimes(ivs []internal.SleepInterval, period Period, now time.Time) []TimePoint {
	loc := now.Location()
	return timeSeries(period, now, func(date time.Time) (time.Time, bool) {
		var best time.Time
		found := false
		for i := range ivs {
			iv := &ivs[i]
			if iv.EndTime == nil {
				continue
			}
			et := iv.EndTime.In(loc)
			if !dayOf(*iv.EndTime, loc).Equal(date) {
				continue
			}
			if et.Hour() < wakeWindowStart || et.Hour() >= wakeWindowEnd {
				continue
			}
			if !found || et.Before(best) {
				best = et
				found = true
			}
		}
		return best, found
	})
}

// timeSeries walks the chart window oldest to newest and builds one point
// per day from the pick function.
func timeSeries(period Period, now time.Time, pick func(date time.Time) (time.Time, bool)) []TimePoint {
	loc := now.Location()
	today := dayOf(now, loc)
	days := period.chartDays()

	points := make([]TimePoint, 0, days)
	for index, dayOffset := 0, days-1; dayOffset >= 0; index, dayOffset = index+1, dayOffset-1 {
		date := today.AddDate(0, 0, -dayOffset)
		point := TimePoint{
			Date:    date,
			Label:   "--:--",
			Day:     dayLabel(date, period),
			IsToday: date.Equal(today),
			Index:   index,
		}
		if t, ok := pick(date); ok {
			point.Value = float64(t.Hour()) + float64(t.Minute())/60.0
			point.Label = t.Format("15:04")
			point.HasData = true
		}
		points = append(points, point)
	}
	return points
}

// AverageBedtime averages the evening sleep-start times of the last seven
// days, excluding today and days without data. Nil means no data, in which
// case the reminder collaborator cancels instead of scheduling.
func AverageBedtime(ivs []internal.SleepInterval, now time.Time) *Bedtime {
	var values []float64
	for _, p := range SleepTimes(ivs, PeriodWeek, now) {
		if p.HasData && !p.IsToday {
			values = append(values, p.Value)
		}
	}
	if len(values) == 0 {
		return nil
	}

	avg := meanClockHours(values)
	hour := int(avg)
	minute := int(math.Round((avg - float64(hour)) * 60))
	if minute == 60 {
		hour = (hour + 1) % 24
		minute = 0
	}
	return &Bedtime{Hour: hour, Minute: minute}
}

// meanClockHours is a plain arithmetic mean. Clock times are circular, so
// values straddling midnight (23:45 and 00:15) average to the wrong side
// of the clock; swapping in a circular mean here fixes every caller at
// once.
func meanClockHours(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// SortByStart orders intervals oldest first. Storage backends return the
// collection unordered, so consumers re-sort when order matters.
func SortByStart(ivs []internal.SleepInterval) {
	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].StartTime.Before(ivs[j].StartTime)
	})
}

// Package reminder schedules the daily bedtime notification. The target
// time is derived from the average bedtime of the past week; whenever the
// recorded data or the settings change, the schedule is re-evaluated.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/stats"
)

// Notifier delivers one notification. Swapped out in tests.
type Notifier func(title, message string) error

type Scheduler struct {
	logger internal.Logger
	notify Notifier
	now    func() time.Time

	mu      sync.Mutex
	target  *stats.Bedtime
	bedtime stats.Bedtime
	timer   *time.Timer
}

func NewScheduler(logger internal.Logger) *Scheduler {
	beeep.AppName = "SnoozyDozy"
	return &Scheduler{
		logger: logger,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		now: time.Now,
	}
}

// ReminderClock is the wall-clock time the notification fires: the bedtime
// minus the lead, wrapping across midnight.
func ReminderClock(bt stats.Bedtime, minutesBefore int) stats.Bedtime {
	total := bt.Hour*60 + bt.Minute - minutesBefore
	for total < 0 {
		total += 24 * 60
	}
	total %= 24 * 60
	return stats.Bedtime{Hour: total / 60, Minute: total % 60}
}

// Update reconciles the schedule with the current average bedtime and
// settings. A nil bedtime or disabled notifications cancel any pending
// reminder; an unchanged target leaves the running timer alone.
func (s *Scheduler) Update(bt *stats.Bedtime, settings internal.AppSettings) {
	if bt == nil || !settings.NotificationsEnabled {
		s.Cancel()
		return
	}
	target := ReminderClock(*bt, settings.ReminderMinutesBefore)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target != nil && *s.target == target {
		return
	}

	s.cancelLocked()
	s.target = &target
	s.bedtime = *bt
	s.armLocked()
	s.logger.Infof("bedtime reminder scheduled for %02d:%02d", target.Hour, target.Minute)
}

// Cancel drops any pending reminder.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target != nil {
		s.logger.Infof("bedtime reminder cancelled")
	}
	s.cancelLocked()
}

// Scheduled reports the currently armed reminder time, nil when none.
func (s *Scheduler) Scheduled() *stats.Bedtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	t := *s.target
	return &t
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.target = nil
}

// armLocked starts a timer for the next occurrence of the target time and
// re-arms itself after firing, so the reminder repeats daily until the
// target changes or is cancelled.
func (s *Scheduler) armLocked() {
	target := *s.target
	now := s.now()
	delay := nextOccurrence(now, target).Sub(now)

	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		rearm := s.target != nil && *s.target == target
		bedtime := s.bedtime
		if rearm {
			s.armLocked()
		}
		s.mu.Unlock()
		if !rearm {
			return
		}

		message := fmt.Sprintf("Um %02d:%02d ist Schlafenszeit.", bedtime.Hour, bedtime.Minute)
		if err := s.notify("Schlafenszeit", message); err != nil {
			s.logger.Errorf("failed to deliver bedtime reminder: %v", err)
		}
	})
}

// nextOccurrence is the next time of day at or after now matching the
// target clock time.
func nextOccurrence(now time.Time, target stats.Bedtime) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), target.Hour, target.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

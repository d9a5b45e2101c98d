package api

import (
	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/reminder"
	"github.com/mattwrdg/snoozydozy/internal/storage"
	"github.com/mattwrdg/snoozydozy/internal/suntimes"
)

// App is the dependency surface the handlers pull from. The composition
// root in cmd/server provides the concrete implementation.
type App interface {
	Logger() internal.Logger
	Store() storage.Store
	Reminder() *reminder.Scheduler
	Sun() *suntimes.Client
}

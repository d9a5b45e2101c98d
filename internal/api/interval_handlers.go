package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattwrdg/snoozydozy/internal/service"
)

// PostSleepStart opens a new ongoing interval at the current time.
func PostSleepStart(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		iv, err := service.StartSleep(c.Request.Context(), app.Store(), time.Now())
		if err != nil {
			if errors.Is(err, service.ErrOngoingExists) {
				HandleError(c, app.Logger(), err, 409, "Sleep already running")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to start sleep")
			return
		}
		HandleSuccess(c, app.Logger(), iv, nil)
	}
}

// PostSleepEnd closes the ongoing interval at the current time.
func PostSleepEnd(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		iv, err := service.EndSleep(c.Request.Context(), app.Store(), time.Now())
		if err != nil {
			if errors.Is(err, service.ErrNoOngoing) {
				HandleError(c, app.Logger(), err, 409, "No sleep running")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to end sleep")
			return
		}
		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), iv, nil)
	}
}

// PostSleep records a manually entered sleep for a chosen day.
func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.ManualEntryRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateManualEntryRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		created, err := service.AddManualEntry(c.Request.Context(), app.Store(), &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save entry")
			return
		}
		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), created, map[string]any{"created": len(created)})
	}
}

// GetSleep lists every interval, newest first.
func GetSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ivs, err := service.ListIntervals(c.Request.Context(), app.Store())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch entries")
			return
		}
		HandleSuccess(c, app.Logger(), ivs, map[string]any{"count": len(ivs)})
	}
}

func PutSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var body service.UpdateIntervalRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateUpdateIntervalRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		iv, err := service.UpdateInterval(c.Request.Context(), app.Store(), id, &body)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Entry not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to update entry")
			return
		}
		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), iv, nil)
	}
}

func DeleteSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := service.DeleteInterval(c.Request.Context(), app.Store(), id); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to delete entry")
			return
		}
		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), nil, map[string]any{"deleted": id})
	}
}

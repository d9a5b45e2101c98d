package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/response"
	"github.com/mattwrdg/snoozydozy/internal/stats"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 409:
		resp = response.Conflict(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}

// refreshReminder re-derives the average bedtime from the stored intervals
// and reconciles the reminder schedule. Called after every mutation that
// can move the average.
func refreshReminder(c *gin.Context, app App) {
	ctx := c.Request.Context()
	ivs, err := app.Store().ListIntervals(ctx)
	if err != nil {
		app.Logger().Warnf("skipping reminder refresh, failed to list intervals: %v", err)
		return
	}
	settings, err := app.Store().GetSettings(ctx)
	if err != nil {
		app.Logger().Warnf("skipping reminder refresh, failed to load settings: %v", err)
		return
	}
	app.Reminder().Update(stats.AverageBedtime(ivs, time.Now()), settings)
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattwrdg/snoozydozy/internal/service"
)

func GetProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := app.Store().GetProfile(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to load profile")
			return
		}
		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

func PutProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.UpdateProfileRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateUpdateProfileRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		profile, err := service.UpdateProfile(c.Request.Context(), app.Store(), &body, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save profile")
			return
		}
		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

func GetSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := app.Store().GetSettings(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to load settings")
			return
		}
		HandleSuccess(c, app.Logger(), settings, nil)
	}
}

// PutSettings stores the settings and reconciles the reminder, since both
// the toggle and the lead time feed the schedule.
func PutSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.UpdateSettingsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateUpdateSettingsRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		settings, err := service.UpdateSettings(c.Request.Context(), app.Store(), &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save settings")
			return
		}
		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), settings, nil)
	}
}

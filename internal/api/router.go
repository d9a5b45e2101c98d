package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires every endpoint. The auth middleware is injected so tests
// can run the router without a token.
func NewRouter(app App, authMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware())

	g := r.Group("/api")
	if authMW != nil {
		g.Use(authMW)
	}

	g.POST("/sleep/start", PostSleepStart(app))
	g.POST("/sleep/end", PostSleepEnd(app))
	g.POST("/sleep", PostSleep(app))
	g.GET("/sleep", GetSleep(app))
	g.PUT("/sleep/:id", PutSleep(app))
	g.DELETE("/sleep/:id", DeleteSleep(app))

	g.GET("/sleep/stats", GetSleepStats(app))
	g.GET("/sleep/chart", GetSleepChart(app))
	g.GET("/sleep/times", GetSleepTimes(app))
	g.GET("/sleep/bedtime", GetBedtime(app))

	g.GET("/profile", GetProfile(app))
	g.PUT("/profile", PutProfile(app))
	g.GET("/settings", GetSettings(app))
	g.PUT("/settings", PutSettings(app))

	g.GET("/export", GetExport(app))
	g.POST("/import", PostImport(app))

	g.GET("/suntimes", GetSunTimes(app))

	return r
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/api"
	"github.com/mattwrdg/snoozydozy/internal/auth"
	"github.com/mattwrdg/snoozydozy/internal/config"
	"github.com/mattwrdg/snoozydozy/internal/reminder"
	"github.com/mattwrdg/snoozydozy/internal/stats"
	"github.com/mattwrdg/snoozydozy/internal/storage"
	"github.com/mattwrdg/snoozydozy/internal/suntimes"
)

// app is the concrete dependency container handed to the handlers.
type app struct {
	logger   internal.Logger
	store    storage.Store
	reminder *reminder.Scheduler
	sun      *suntimes.Client
}

func (a *app) Logger() internal.Logger       { return a.logger }
func (a *app) Store() storage.Store          { return a.store }
func (a *app) Reminder() *reminder.Scheduler { return a.reminder }
func (a *app) Sun() *suntimes.Client         { return a.sun }

func main() {
	cfg := config.Load()

	var zl *zap.Logger
	var err error
	if cfg.Env == "production" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := internal.NewZapLogger(zl.Sugar())

	store, err := storage.NewStore(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	a := &app{
		logger:   logger,
		store:    store,
		reminder: reminder.NewScheduler(logger),
		sun:      suntimes.NewClient(cfg.Latitude, cfg.Longitude, cfg.Timezone, logger),
	}

	// Arm the reminder from whatever data survived the restart.
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if ivs, err := store.ListIntervals(startCtx); err == nil {
		if settings, err := store.GetSettings(startCtx); err == nil {
			a.reminder.Update(stats.AverageBedtime(ivs, time.Now()), settings)
		}
	}
	cancel()

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(cfg.AuthToken, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(a, auth.AuthMiddleware(provider, cfg))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("server running on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}

	a.reminder.Cancel()
	if err := store.Close(); err != nil {
		logger.Errorf("failed to close storage: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"burnbin/internal/config"
	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/admin"
	"burnbin/internal/domain/progress"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/session"
	"burnbin/internal/domain/share"
	"burnbin/internal/domain/transfer"
	"burnbin/internal/domain/upload"
	"burnbin/internal/middleware"
	jwtsvc "burnbin/internal/pkg/jwt"
)

// app holds the wired server and what must be released on shutdown.
type app struct {
	router   *gin.Engine
	registry *registry.Registry
	tracker  *session.Tracker
	activity *activity.Log
	jwt      *jwtsvc.Service

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, activityLog *activity.Log) (*app, error) {
	a := &app{activity: activityLog}

	store, closeStore, err := registry.OpenStore(cfg.DatabaseURL, cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := closeStore(); err != nil {
			log.Printf("store_close_failed error=%v", err)
		}
	})

	a.registry, err = registry.Load(ctx, store, activityLog)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.tracker = session.NewTracker()
	hub := progress.NewHub()
	a.tracker.Observe(hub.Publish)

	transferMetrics := transfer.NewMetrics()
	a.closers = append(a.closers, transferMetrics.Close)
	if cfg.MetricsLogInterval > 0 {
		logCtx, stopLog := context.WithCancel(ctx)
		a.closers = append(a.closers, stopLog)
		go transferMetrics.LogEvery(logCtx, cfg.MetricsLogInterval, log.Writer())
	}
	streamer := transfer.NewStreamer(a.registry, a.tracker, activityLog,
		transfer.WithMetrics(transferMetrics),
		transfer.WithWriteTimeout(cfg.DownloadWriteTimeout),
	)

	uploads, err := upload.NewService(a.registry, cfg.UploadDir, activityLog)
	if err != nil {
		a.Close()
		return nil, err
	}

	cleanup := session.NewCleanupService(a.tracker)
	if stopCleanup := cleanup.Schedule(ctx, session.CleanupConfig{
		Retention: cfg.SessionRetention,
		Interval:  cfg.SessionCleanupInterval,
	}); stopCleanup != nil {
		a.closers = append(a.closers, func() { close(stopCleanup) })
	}

	a.jwt = jwtsvc.New(cfg.OperatorSecret, cfg.OperatorTokenTTL)
	if !cfg.OperatorLoginEnabled() {
		log.Println("OPERATOR_PASSWORD_HASH is empty: operator login disabled (use `share hash-password`)")
	}
	adminService := admin.NewService(admin.Deps{
		Registry:     a.registry,
		Promoter:     uploads,
		Sessions:     a.tracker,
		Activity:     activityLog,
		Metrics:      transferMetrics,
		JWT:          a.jwt,
		PasswordHash: cfg.OperatorPasswordHash,
	})

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.StoreKind()})
	})

	share.RegisterRoutes(r, share.NewHandler(a.registry, a.tracker, streamer, activityLog))
	progress.RegisterRoutes(r, progress.NewHandler(hub, a.tracker))
	if cfg.UploadsEnabled {
		upload.RegisterRoutes(r, upload.NewHandler(uploads, a.registry, activityLog))
	} else {
		log.Println("Uploads are disabled")
	}
	admin.RegisterRoutes(r, admin.NewHandler(adminService, cfg.PublicURL), a.jwt)

	a.router = r
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

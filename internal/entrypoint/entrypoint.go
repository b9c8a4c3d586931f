package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookfinder/internal/audit"
	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/database/lookups"
	http_controllers "github.com/mrlokans/bookfinder/internal/http"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
	"github.com/mrlokans/bookfinder/internal/scheduler"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/tasks"
	"github.com/mrlokans/bookfinder/internal/web"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Listen failed")
		}
	}()

	// kill (no param) default sends syscall.SIGTERM, kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.WithField("timeout", timeout).Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}

	// Stop background work after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logrus.Info("Server exiting")
}

// NewOpenLibraryClient builds the bibliographic API client from configuration.
func NewOpenLibraryClient(cfg config.OpenLibrary) *openlibrary.Client {
	return openlibrary.NewClient(openlibrary.Config{
		BaseURL:   cfg.BaseURL,
		CoversURL: cfg.CoversURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
}

// NewRegistry builds the search session registry. Every session reports its
// lookups to auditor when one is given.
func NewRegistry(searcher search.Searcher, cfg config.Search, auditor *audit.Service) *search.Registry {
	return search.NewRegistry(func(id string) *search.Session {
		opts := []search.Option{search.WithPageSize(cfg.PageSize)}
		if auditor != nil {
			opts = append(opts, search.WithLookupHook(auditor.SessionHook(id)))
		}
		return search.NewSession(searcher, opts...)
	})
}

func Run(cfg *config.Config, version string) {
	logrus.WithField("version", version).Info("Starting Bookfinder")

	client := NewOpenLibraryClient(cfg.OpenLibrary)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("Error closing database")
		}
	}()

	auditor := audit.NewService(lookups.NewRepository(db.DB))
	registry := NewRegistry(client, cfg.Search, auditor)

	taskDefaults := tasks.Defaults{
		LookupRetentionDays: cfg.Lookups.RetentionDays,
		SessionIdleMinutes:  int(cfg.Search.IdleTimeout / time.Minute),
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}, auditor, registry)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logrus.WithError(err).Error("Error closing task client")
			}
		}()

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Scheduled maintenance goes through the queue when there is one
	var queue scheduler.Enqueuer
	if taskClient != nil {
		queue = taskClient
	}
	maintenance := scheduler.NewMaintenanceScheduler(scheduler.Config{
		CleanupSchedule: cfg.Lookups.CleanupSchedule,
		RetentionDays:   cfg.Lookups.RetentionDays,
		PruneSchedule:   cfg.Search.PruneSchedule,
		SessionIdle:     cfg.Search.IdleTimeout,
	}, queue, auditor, registry)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := maintenance.Start(schedCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to start maintenance scheduler")
	}

	sessionManager := web.NewSessionManager(cfg.Session)

	var csrfSecret []byte
	if cfg.CSRF.Enabled {
		csrfSecret, err = resolveCSRFSecret(cfg.CSRF.Secret)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to generate CSRF secret")
		}
	} else {
		logrus.Warn("CSRF protection disabled")
	}

	routerCfg := http_controllers.RouterConfig{
		Books:          client,
		Registry:       registry,
		Database:       db,
		Lookups:        auditor,
		Recorder:       auditor,
		TaskDefaults:   taskDefaults,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		CoversURL:      cfg.OpenLibrary.CoversURL,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditor.Wait()
	}

	Serve(router, cfg, onShutdown)
}

// resolveCSRFSecret decodes a configured hex secret, uses any other value as
// raw bytes, and generates a random one when nothing is configured.
func resolveCSRFSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	logrus.Info("Generated CSRF secret (set CSRF_SECRET to persist)")
	return secret, nil
}

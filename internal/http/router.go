package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/bookfinder/internal/web"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(AccessLogMiddleware())
	router.Use(RecoveryMiddleware())

	// Apply security headers to all responses
	router.Use(web.SecurityHeadersMiddleware(cfg.CoversURL))
	if cfg.SecureCookies {
		router.Use(web.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(web.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	sessions := sessionResolver{cookies: cfg.SessionManager}

	health := NewHealthController(cfg.Database, cfg.Registry, cfg.Version)
	searchController := NewSearchController(cfg.Registry, sessions, cfg.Books)
	booksController := NewBooksController(cfg.Books, cfg.Registry, sessions, cfg.Recorder)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if len(cfg.CSRFSecret) > 0 {
		router.GET("/api/csrf", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"csrf_token": web.GetCSRFToken(c)})
		})
	}

	// Search session endpoints
	router.GET("/api/search", searchController.GetState)
	router.POST("/api/search", searchController.StartSearch)
	router.POST("/api/search/more", searchController.LoadMore)

	// Work endpoints
	router.GET("/api/books/:id", booksController.GetDetail)
	router.GET("/api/books/:id/summary", booksController.GetSummary)
	router.GET("/api/books/:id/cover", booksController.GetCover)

	// Lookup audit endpoints
	if cfg.Lookups != nil {
		lookupsController := NewLookupsController(cfg.Lookups)
		router.GET("/api/lookups", lookupsController.GetLookups)
		router.GET("/api/lookups/stats", lookupsController.GetStats)
	}

	// Task endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.TaskDefaults)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/status/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}

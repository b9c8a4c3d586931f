package http

import (
	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/tasks"
	"github.com/mrlokans/bookfinder/internal/web"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookSource
	Registry *search.Registry

	// Lookup audit log (optional)
	Database *database.Database
	Lookups  LookupLog
	Recorder DetailRecorder

	// Task queue (optional)
	TaskQueue    TaskQueue
	TaskDefaults tasks.Defaults

	// Browser sessions (optional); without them every cookie-less caller
	// shares one search session unless it sends X-Session-ID
	SessionManager *web.SessionManager

	// CSRF protection is enabled when the secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// CoversURL is allowed as an image source in the CSP
	CoversURL string

	// Application info
	Version string
}

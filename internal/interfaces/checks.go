package interfaces

// Compile-time checks that the concrete types wired in entrypoint satisfy
// the interfaces their consumers declare.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookfinder/internal/audit"
	"github.com/mrlokans/bookfinder/internal/cli"
	"github.com/mrlokans/bookfinder/internal/database/lookups"
	"github.com/mrlokans/bookfinder/internal/http"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
	"github.com/mrlokans/bookfinder/internal/scheduler"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/tasks"
)

// =============================================================================
// Bibliographic API
// =============================================================================

var _ search.Searcher = (*openlibrary.Client)(nil)
var _ http.BookSource = (*openlibrary.Client)(nil)
var _ cli.BookSource = (*openlibrary.Client)(nil)

// =============================================================================
// Lookup Audit
// =============================================================================

var _ audit.Store = (*lookups.Repository)(nil)
var _ http.LookupLog = (*audit.Service)(nil)
var _ http.DetailRecorder = (*audit.Service)(nil)
var _ tasks.LookupEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.SessionPruner = (*search.Registry)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

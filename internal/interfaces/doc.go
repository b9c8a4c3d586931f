// Package interfaces documents the seams between packages.
//
// Consumers declare the small interfaces they need next to the code that uses
// them; concrete types never import their consumers. checks.go pins every
// pairing wired in entrypoint so a signature change fails the build here.
//
// # Interface Map
//
//   - search.Searcher: one page of results (internal/search/session.go),
//     implemented by openlibrary.Client
//   - http.BookSource, cli.BookSource: search plus work detail and cover URLs,
//     implemented by openlibrary.Client
//   - audit.Store: lookup persistence, implemented by lookups.Repository
//   - http.LookupLog, http.DetailRecorder: audit log reads and detail
//     recording, implemented by audit.Service
//   - tasks.LookupEventCleaner, tasks.SessionPruner: maintenance targets,
//     implemented by audit.Service and search.Registry
//   - http.TaskQueue, scheduler.Enqueuer: the backlite queue, implemented by
//     tasks.Client
//
// # Adding a New Bibliographic Source
//
//  1. Implement Search, GetDetail and CoverImageURL in a new package under
//     internal/, returning openlibrary.ErrNotFound and *openlibrary.NetworkError
//     so HTTP error mapping keeps working.
//
//  2. Add compile-time checks to checks.go:
//
//     var _ http.BookSource = (*googlebooks.Client)(nil)
//
//  3. Pass it to entrypoint.NewRegistry and RouterConfig.Books.
package interfaces

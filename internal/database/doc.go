// Package database owns the sqlite connection used for the lookup log.
//
// The connection and migrations live here. Queries live in sub-packages,
// one Repository per domain:
//
//	database/
//	├── database.go   # Connection setup, migrations
//	└── lookups/      # Lookup event log
//
//	db, err := database.NewDatabase("./bookfinder.db")
//	repo := lookups.NewRepository(db.DB)
//
// Search results themselves are never stored; the lookup log is an
// operational record only.
package database

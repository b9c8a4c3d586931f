package config

const (
	// DefaultDatabasePath is the sqlite file holding the lookup log.
	// The task queue lives next to it with a "-tasks" suffix.
	DefaultDatabasePath = "./bookfinder.db"

	DefaultOpenLibraryBaseURL   = "https://openlibrary.org"
	DefaultOpenLibraryCoversURL = "https://covers.openlibrary.org/b"
	DefaultUserAgent            = "Bookfinder/1.0 (https://github.com/mrlokans/bookfinder)"
)

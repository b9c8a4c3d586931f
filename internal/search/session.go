package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/metrics"
)

// DefaultPageSize is the number of results requested per page.
const DefaultPageSize = 20

// State is the lifecycle position of a session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

// Searcher fetches one page of results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, pageSize, offset int) (*entities.SearchResultPage, error)
}

// Lookup describes one completed page fetch, reported to the lookup hook.
type Lookup struct {
	Query       string
	Offset      int
	ResultCount int
	Total       int
	Err         error
	Duration    time.Duration
	Stale       bool // superseded by a newer search and discarded
}

// LookupFunc receives every completed page fetch. It runs outside the session
// lock and must not call back into the session.
type LookupFunc func(ctx context.Context, lookup Lookup)

// Snapshot is a copy of the session state handed to consumers.
type Snapshot struct {
	Query        string                  `json:"query"`
	State        State                   `json:"state"`
	Results      []entities.SearchResult `json:"results"`
	Total        int                     `json:"total"`
	HasMore      bool                    `json:"has_more"`
	IsLoading    bool                    `json:"is_loading"`
	ErrorMessage string                  `json:"error_message,omitempty"`
}

// Session is the state of one user's search: the active query and the pages
// loaded so far. It changes only through StartSearch and LoadMore.
//
// A Session is safe for concurrent use. The lock is released while a page is
// being fetched, so Snapshot shows prior results with IsLoading set during a
// load-more. Each StartSearch bumps a generation counter and responses from an
// older generation are dropped.
type Session struct {
	searcher Searcher
	pageSize int
	onLookup LookupFunc

	mu         sync.Mutex
	state      State
	query      string
	results    []entities.SearchResult
	total      int
	hasMore    bool
	errMsg     string
	generation uint64
}

// Option configures a Session.
type Option func(*Session)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLookupHook registers fn to be told about every page fetch.
func WithLookupHook(fn LookupFunc) Option {
	return func(s *Session) {
		s.onLookup = fn
	}
}

// NewSession creates an idle session backed by searcher.
func NewSession(searcher Searcher, opts ...Option) *Session {
	s := &Session{
		searcher: searcher,
		pageSize: DefaultPageSize,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the number of results requested per page.
func (s *Session) PageSize() int {
	return s.pageSize
}

// StartSearch replaces the session's query and loads its first page.
// A blank query resets the session to idle without calling the searcher.
// On failure the previous results are cleared and the error message is kept.
func (s *Session) StartSearch(ctx context.Context, query string) Snapshot {
	q := NormalizeQuery(query)

	s.mu.Lock()
	s.generation++
	gen := s.generation

	if q == "" {
		s.state = StateIdle
		s.query = ""
		s.results = nil
		s.total = 0
		s.hasMore = false
		s.errMsg = ""
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	s.query = q
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	return s.fetch(ctx, gen, q, 0)
}

// LoadMore appends the next page of the active query. It does nothing while a
// page is loading, when there is nothing more to load, or when query is not
// the active one. A failed page keeps the results loaded so far.
func (s *Session) LoadMore(ctx context.Context, query string) Snapshot {
	q := NormalizeQuery(query)

	s.mu.Lock()
	if s.state == StateLoading || !s.hasMore || q == "" || q != s.query {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	gen := s.generation
	offset := len(s.results)
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	return s.fetch(ctx, gen, q, offset)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// FindResult returns the loaded result whose key matches key. Both bare ids
// and "/works/..." keys are accepted.
func (s *Session) FindResult(key string) (entities.SearchResult, bool) {
	want := bareKey(key)
	if want == "" {
		return entities.SearchResult{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if bareKey(r.Key) == want {
			return r, true
		}
	}
	return entities.SearchResult{}, false
}

func (s *Session) fetch(ctx context.Context, gen uint64, query string, offset int) Snapshot {
	start := time.Now()
	page, err := s.searcher.Search(ctx, query, s.pageSize, offset)
	if err == nil && page == nil {
		page = &entities.SearchResultPage{}
	}

	lookup := Lookup{
		Query:    query,
		Offset:   offset,
		Err:      err,
		Duration: time.Since(start),
	}
	if page != nil {
		lookup.ResultCount = len(page.Docs)
		lookup.Total = page.NumFound
	}

	snap, applied := s.apply(gen, offset, page, err)
	if !applied {
		lookup.Stale = true
		metrics.StaleResponsesTotal.Inc()
	}

	if s.onLookup != nil {
		s.onLookup(ctx, lookup)
	}
	return snap
}

// apply folds a fetch result into the state. It reports false when the
// result belongs to an older generation and was dropped.
func (s *Session) apply(gen uint64, offset int, page *entities.SearchResultPage, err error) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return s.snapshotLocked(), false
	}

	if err != nil {
		s.state = StateErrored
		s.errMsg = err.Error()
		if offset == 0 {
			s.results = nil
			s.total = 0
			s.hasMore = false
		}
		return s.snapshotLocked(), true
	}

	if offset == 0 {
		s.results = append([]entities.SearchResult(nil), page.Docs...)
	} else {
		s.results = append(s.results, page.Docs...)
	}
	s.total = page.NumFound
	s.hasMore = len(page.Docs) == s.pageSize && len(s.results) < s.total
	s.state = StateLoaded

	return s.snapshotLocked(), true
}

func (s *Session) snapshotLocked() Snapshot {
	results := make([]entities.SearchResult, len(s.results))
	copy(results, s.results)

	return Snapshot{
		Query:        s.query,
		State:        s.state,
		Results:      results,
		Total:        s.total,
		HasMore:      s.hasMore,
		IsLoading:    s.state == StateLoading,
		ErrorMessage: s.errMsg,
	}
}

func bareKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/works/")
	return strings.Trim(key, "/")
}

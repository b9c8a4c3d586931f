package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/entities"
)

type searchCall struct {
	Query    string
	PageSize int
	Offset   int
}

// fakeSearcher serves a result set of a fixed size per query. Behaviour can be
// overridden per call through the respond hook.
type fakeSearcher struct {
	mu      sync.Mutex
	total   int
	calls   []searchCall
	respond func(call searchCall) (*entities.SearchResultPage, error)
}

func newFakeSearcher(total int) *fakeSearcher {
	return &fakeSearcher{total: total}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, pageSize, offset int) (*entities.SearchResultPage, error) {
	call := searchCall{Query: query, PageSize: pageSize, Offset: offset}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(call)
	}
	return makePage(query, f.total, pageSize, offset), nil
}

func (f *fakeSearcher) Calls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]searchCall(nil), f.calls...)
}

func makePage(query string, total, pageSize, offset int) *entities.SearchResultPage {
	n := total - offset
	if n > pageSize {
		n = pageSize
	}
	if n < 0 {
		n = 0
	}

	docs := make([]entities.SearchResult, n)
	for i := range docs {
		docs[i] = entities.SearchResult{
			Key:   fmt.Sprintf("/works/OL%dW", offset+i+1),
			Title: fmt.Sprintf("%s #%d", query, offset+i+1),
		}
	}
	return &entities.SearchResultPage{Docs: docs, NumFound: total, Start: offset}
}

func TestSession_InitialState(t *testing.T) {
	s := NewSession(newFakeSearcher(0))
	snap := s.Snapshot()

	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Results)
	assert.NotNil(t, snap.Results)
	assert.Zero(t, snap.Total)
	assert.False(t, snap.HasMore)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.ErrorMessage)
}

func TestSession_StartSearch(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		wantResults int
		wantHasMore bool
	}{
		{"more than one page", 57, 20, true},
		{"exactly one page", 20, 20, false},
		{"partial page", 7, 7, false},
		{"no results", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := newFakeSearcher(tt.total)
			s := NewSession(searcher)

			snap := s.StartSearch(context.Background(), "dune")

			assert.Equal(t, StateLoaded, snap.State)
			assert.Len(t, snap.Results, tt.wantResults)
			assert.Equal(t, tt.total, snap.Total)
			assert.Equal(t, tt.wantHasMore, snap.HasMore)
			assert.False(t, snap.IsLoading)

			calls := searcher.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, searchCall{Query: "dune", PageSize: DefaultPageSize, Offset: 0}, calls[0])
		})
	}
}

func TestSession_DunePagination(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	snap := s.StartSearch(ctx, "dune")
	assert.Len(t, snap.Results, 20)
	assert.True(t, snap.HasMore)

	snap = s.LoadMore(ctx, "dune")
	assert.Len(t, snap.Results, 40)
	assert.True(t, snap.HasMore)

	snap = s.LoadMore(ctx, "dune")
	assert.Len(t, snap.Results, 57)
	assert.False(t, snap.HasMore)
	assert.Equal(t, 57, snap.Total)
	assert.Equal(t, StateLoaded, snap.State)

	// Nothing more to load: no further request.
	snap = s.LoadMore(ctx, "dune")
	assert.Len(t, snap.Results, 57)

	calls := searcher.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 0, calls[0].Offset)
	assert.Equal(t, 20, calls[1].Offset)
	assert.Equal(t, 40, calls[2].Offset)

	// Results are appended in order, never replaced.
	assert.Equal(t, "/works/OL1W", snap.Results[0].Key)
	assert.Equal(t, "/works/OL21W", snap.Results[20].Key)
	assert.Equal(t, "/works/OL57W", snap.Results[56].Key)
}

func TestSession_NewSearchReplacesResults(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")
	s.LoadMore(ctx, "dune")

	snap := s.StartSearch(ctx, "emma")
	assert.Equal(t, "emma", snap.Query)
	assert.Len(t, snap.Results, 20)
	assert.Equal(t, "emma #1", snap.Results[0].Title)
}

func TestSession_BlankQueryResets(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")
	require.Len(t, searcher.Calls(), 1)

	for _, blank := range []string{"", "   ", "\t\n"} {
		snap := s.StartSearch(ctx, blank)
		assert.Equal(t, StateIdle, snap.State)
		assert.Empty(t, snap.Results)
		assert.Zero(t, snap.Total)
		assert.False(t, snap.HasMore)
		assert.Empty(t, snap.ErrorMessage)
		assert.Empty(t, snap.Query)
	}

	assert.Len(t, searcher.Calls(), 1, "blank queries never reach the searcher")
}

func TestSession_FirstPageFailureClearsResults(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")

	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		return nil, errors.New("search failed: 503 Service Unavailable")
	}

	snap := s.StartSearch(ctx, "emma")
	assert.Equal(t, StateErrored, snap.State)
	assert.Equal(t, "search failed: 503 Service Unavailable", snap.ErrorMessage)
	assert.Empty(t, snap.Results)
	assert.Zero(t, snap.Total)
	assert.False(t, snap.HasMore)
	assert.False(t, snap.IsLoading)
}

func TestSession_LoadMoreFailureKeepsResults(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")

	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		return nil, errors.New("search failed: 502 Bad Gateway")
	}

	snap := s.LoadMore(ctx, "dune")
	assert.Equal(t, StateErrored, snap.State)
	assert.Equal(t, "search failed: 502 Bad Gateway", snap.ErrorMessage)
	assert.Len(t, snap.Results, 20, "earlier pages survive a failed page")
	assert.Equal(t, 57, snap.Total)
	assert.True(t, snap.HasMore)

	// Try again succeeds and clears the error.
	searcher.respond = nil
	snap = s.LoadMore(ctx, "dune")
	assert.Equal(t, StateLoaded, snap.State)
	assert.Empty(t, snap.ErrorMessage)
	assert.Len(t, snap.Results, 40)
}

func TestSession_LoadMoreWhileLoadingIsNoop(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")

	started := make(chan struct{})
	release := make(chan struct{})
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		close(started)
		<-release
		return makePage(call.Query, 57, call.PageSize, call.Offset), nil
	}

	done := make(chan Snapshot)
	go func() {
		done <- s.LoadMore(ctx, "dune")
	}()
	<-started

	// Prior results stay visible while the next page loads.
	mid := s.Snapshot()
	assert.True(t, mid.IsLoading)
	assert.Equal(t, StateLoading, mid.State)
	assert.Len(t, mid.Results, 20)

	second := s.LoadMore(ctx, "dune")
	assert.True(t, second.IsLoading)
	assert.Len(t, second.Results, 20)
	assert.Len(t, searcher.Calls(), 2, "second LoadMore must not issue a request")

	close(release)
	final := <-done
	assert.Len(t, final.Results, 40)
	assert.Len(t, searcher.Calls(), 2)
}

func TestSession_StaleResponseDiscarded(t *testing.T) {
	searcher := newFakeSearcher(57)

	var (
		mu      sync.Mutex
		lookups []Lookup
	)
	s := NewSession(searcher, WithLookupHook(func(ctx context.Context, l Lookup) {
		mu.Lock()
		lookups = append(lookups, l)
		mu.Unlock()
	}))
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		if call.Query == "slow" {
			close(started)
			<-release
		}
		return makePage(call.Query, 57, call.PageSize, call.Offset), nil
	}

	done := make(chan Snapshot)
	go func() {
		done <- s.StartSearch(ctx, "slow")
	}()
	<-started

	fast := s.StartSearch(ctx, "fast")
	assert.Equal(t, "fast", fast.Query)
	assert.Equal(t, "fast #1", fast.Results[0].Title)

	close(release)
	late := <-done

	assert.Equal(t, "fast", late.Query, "late response must not clobber the newer search")
	assert.Equal(t, "fast #1", late.Results[0].Title)
	assert.Equal(t, StateLoaded, late.State)

	snap := s.Snapshot()
	assert.Equal(t, "fast #1", snap.Results[0].Title)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lookups, 2)
	var stale int
	for _, l := range lookups {
		if l.Stale {
			stale++
			assert.Equal(t, "slow", l.Query)
		}
	}
	assert.Equal(t, 1, stale)
}

func TestSession_StaleLoadMoreDiscardedAfterNewSearch(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	s.StartSearch(ctx, "dune")

	started := make(chan struct{})
	release := make(chan struct{})
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		if call.Offset > 0 {
			close(started)
			<-release
		}
		return makePage(call.Query, 57, call.PageSize, call.Offset), nil
	}

	done := make(chan Snapshot)
	go func() {
		done <- s.LoadMore(ctx, "dune")
	}()
	<-started

	s.StartSearch(ctx, "emma")
	close(release)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, "emma", snap.Query)
	assert.Len(t, snap.Results, 20, "old page must not be appended to the new query")
}

func TestSession_BlankQueryDiscardsInFlight(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		close(started)
		<-release
		return makePage(call.Query, 57, call.PageSize, call.Offset), nil
	}

	done := make(chan Snapshot)
	go func() {
		done <- s.StartSearch(ctx, "dune")
	}()
	<-started

	s.StartSearch(ctx, "")
	close(release)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Results)
}

func TestSession_LoadMoreRequiresActiveQuery(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	snap := s.LoadMore(ctx, "dune")
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, searcher.Calls(), "nothing to extend before a search")

	s.StartSearch(ctx, "dune")
	snap = s.LoadMore(ctx, "emma")
	assert.Len(t, snap.Results, 20)
	assert.Len(t, searcher.Calls(), 1, "a different query does not extend the current one")
}

func TestSession_QueryNormalization(t *testing.T) {
	searcher := newFakeSearcher(57)
	s := NewSession(searcher)
	ctx := context.Background()

	snap := s.StartSearch(ctx, "  dune   messiah ")
	assert.Equal(t, "dune messiah", snap.Query)

	snap = s.LoadMore(ctx, "dune messiah")
	assert.Len(t, snap.Results, 40)

	calls := searcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "dune messiah", calls[0].Query)
}

func TestSession_PageSize(t *testing.T) {
	searcher := newFakeSearcher(25)
	s := NewSession(searcher, WithPageSize(10))
	ctx := context.Background()

	assert.Equal(t, 10, s.PageSize())

	snap := s.StartSearch(ctx, "dune")
	assert.Len(t, snap.Results, 10)
	assert.True(t, snap.HasMore)

	s.LoadMore(ctx, "dune")
	snap = s.LoadMore(ctx, "dune")
	assert.Len(t, snap.Results, 25)
	assert.False(t, snap.HasMore)
}

func TestSession_ShortPageStopsPaging(t *testing.T) {
	// Upstream claims more matches than it actually returns.
	searcher := newFakeSearcher(0)
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		page := makePage(call.Query, 15, call.PageSize, call.Offset)
		page.NumFound = 100
		return page, nil
	}
	s := NewSession(searcher)

	snap := s.StartSearch(context.Background(), "dune")
	assert.Len(t, snap.Results, 15)
	assert.Equal(t, 100, snap.Total)
	assert.False(t, snap.HasMore, "a short page means the end of the results")
}

func TestSession_LookupHook(t *testing.T) {
	searcher := newFakeSearcher(57)
	var lookups []Lookup
	s := NewSession(searcher, WithLookupHook(func(ctx context.Context, l Lookup) {
		lookups = append(lookups, l)
	}))
	ctx := context.Background()

	s.StartSearch(ctx, "dune")
	s.LoadMore(ctx, "dune")

	require.Len(t, lookups, 2)
	assert.Equal(t, 0, lookups[0].Offset)
	assert.Equal(t, 20, lookups[0].ResultCount)
	assert.Equal(t, 57, lookups[0].Total)
	assert.Equal(t, 20, lookups[1].Offset)
	assert.False(t, lookups[1].Stale)
	assert.NoError(t, lookups[1].Err)
}

func TestSession_FindResult(t *testing.T) {
	s := NewSession(newFakeSearcher(57))
	s.StartSearch(context.Background(), "dune")

	r, ok := s.FindResult("OL3W")
	require.True(t, ok)
	assert.Equal(t, "/works/OL3W", r.Key)

	r, ok = s.FindResult("/works/OL3W")
	require.True(t, ok)
	assert.Equal(t, "dune #3", r.Title)

	_, ok = s.FindResult("OL999W")
	assert.False(t, ok)

	_, ok = s.FindResult("")
	assert.False(t, ok)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := NewSession(newFakeSearcher(57))
	snap := s.StartSearch(context.Background(), "dune")

	snap.Results[0].Title = "mutated"

	assert.Equal(t, "dune #1", s.Snapshot().Results[0].Title)
}

func TestSession_ConcurrentUse(t *testing.T) {
	searcher := newFakeSearcher(200)
	searcher.respond = func(call searchCall) (*entities.SearchResultPage, error) {
		time.Sleep(time.Millisecond)
		return makePage(call.Query, 200, call.PageSize, call.Offset), nil
	}
	s := NewSession(searcher)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.StartSearch(ctx, "dune")
			} else {
				s.LoadMore(ctx, "dune")
			}
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, "dune", snap.Query)
	assert.False(t, snap.IsLoading)
	assert.LessOrEqual(t, len(snap.Results), snap.Total)
	assert.Zero(t, len(snap.Results)%DefaultPageSize)
}

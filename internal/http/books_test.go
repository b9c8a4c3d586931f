package http

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
)

type recordedDetail struct {
	sessionID string
	workKey   string
	err       error
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedDetail
}

func (r *fakeRecorder) LogDetail(sessionID, workKey string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedDetail{sessionID: sessionID, workKey: workKey, err: err})
}

func setupBooksRouter(searcher *fakeSearcher, recorder DetailRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	registry := newTestRegistry(searcher)
	searchController := NewSearchController(registry, sessionResolver{}, searcher)
	books := NewBooksController(searcher, registry, sessionResolver{}, recorder)

	router := gin.New()
	router.POST("/api/search", searchController.StartSearch)
	router.GET("/api/books/:id", books.GetDetail)
	router.GET("/api/books/:id/summary", books.GetSummary)
	router.GET("/api/books/:id/cover", books.GetCover)
	return router
}

func TestBooksController_GetDetail(t *testing.T) {
	searcher := &fakeSearcher{
		total: 3,
		details: map[string]*entities.BookDetail{
			"OL1W": {
				SearchResult: entities.SearchResult{Key: "/works/OL1W", Title: "Dune"},
				Description:  "<p>Arrakis &amp; spice</p>",
				Covers:       []int{-1, 42},
				ISBN10:       []string{"0441013597"},
			},
		},
	}
	recorder := &fakeRecorder{}
	router := setupBooksRouter(searcher, recorder)
	headers := withSession("reader")

	t.Run("fills gaps from the loaded search result", func(t *testing.T) {
		doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, headers)

		w := doJSON(t, router, "GET", "/api/books/OL1W", nil, headers)
		require.Equal(t, http.StatusOK, w.Code)

		view := decode[BookDetailView](t, w)
		assert.Equal(t, "Dune", view.Title)
		assert.Equal(t, "OL1W", view.WorkID)
		assert.Equal(t, "Frank Herbert", view.AuthorsDisplay, "authors come from the search result")
		assert.Equal(t, "Arrakis & spice", view.Description)
		assert.Equal(t, "https://covers.test/id/42-L.jpg", view.CoverURL)
		assert.Equal(t, []string{"0441013597"}, view.ISBNs)
	})

	t.Run("without a session the record stands alone", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/books/OL1W", nil, withSession("stranger"))
		require.Equal(t, http.StatusOK, w.Code)

		view := decode[BookDetailView](t, w)
		assert.Equal(t, openlibrary.UnknownAuthor, view.AuthorsDisplay)
	})

	t.Run("unknown work is 404", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/books/OL999W", nil, headers)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Code)
	})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.records, 3)
	assert.Equal(t, "reader", recorder.records[0].sessionID)
	assert.Equal(t, "OL1W", recorder.records[0].workKey)
	assert.NoError(t, recorder.records[0].err)
	assert.ErrorIs(t, recorder.records[2].err, openlibrary.ErrNotFound)
}

func TestBooksController_GetDetailUpstreamFailure(t *testing.T) {
	searcher := &fakeSearcher{detailErr: &openlibrary.NetworkError{
		Op: "fetch book details", StatusCode: 500, Status: "500 Internal Server Error",
	}}
	router := setupBooksRouter(searcher, nil)

	w := doJSON(t, router, "GET", "/api/books/OL1W", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream_error", decode[ErrorResponse](t, w).Code)
}

func TestBooksController_GetSummary(t *testing.T) {
	searcher := &fakeSearcher{total: 3}
	router := setupBooksRouter(searcher, nil)
	headers := withSession("reader")

	w := doJSON(t, router, "GET", "/api/books/OL2W/summary", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, headers)

	w = doJSON(t, router, "GET", "/api/books/OL2W/summary", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	card := decode[ResultCard](t, w)
	assert.Equal(t, "/works/OL2W", card.Key)
	assert.Equal(t, "dune #2", card.Title)
	assert.Equal(t, "https://covers.test/id/1001-M.jpg", card.CoverURL)

	_, detailCalls := searcher.calls()
	assert.Zero(t, detailCalls)
}

func TestBooksController_GetCover(t *testing.T) {
	searcher := &fakeSearcher{
		total: 3,
		details: map[string]*entities.BookDetail{
			"OL77W": {SearchResult: entities.SearchResult{Key: "/works/OL77W"}, Covers: []int{77}},
			"OL88W": {SearchResult: entities.SearchResult{Key: "/works/OL88W"}},
		},
	}
	router := setupBooksRouter(searcher, nil)
	headers := withSession("reader")
	doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, headers)

	tests := []struct {
		name         string
		path         string
		wantCode     int
		wantLocation string
	}{
		{"from session result", "/api/books/OL1W/cover", http.StatusFound, "https://covers.test/id/1000-M.jpg"},
		{"size is case-insensitive", "/api/books/OL1W/cover?size=l", http.StatusFound, "https://covers.test/id/1000-L.jpg"},
		{"from detail record", "/api/books/OL77W/cover?size=S", http.StatusFound, "https://covers.test/id/77-S.jpg"},
		{"work without cover", "/api/books/OL88W/cover", http.StatusNotFound, ""},
		{"unknown work", "/api/books/OL99W/cover", http.StatusNotFound, ""},
		{"bad size", "/api/books/OL1W/cover?size=XL", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, "GET", tt.path, nil, headers)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
		})
	}
}

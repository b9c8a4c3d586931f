package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/tasks"
	"github.com/mrlokans/bookfinder/internal/web"
)

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (*gin.Engine, *fakeSearcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	searcher := &fakeSearcher{total: 57}
	cfg := RouterConfig{
		Books:     searcher,
		Registry:  newTestRegistry(searcher),
		CoversURL: "https://covers.test",
		Version:   "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg), searcher
}

func TestRouter_HealthAndPing(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, "GET", "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	w = doJSON(t, router, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequestID(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, "GET", "/ping", nil, nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = doJSON(t, router, "GET", "/ping", nil, map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, "GET", "/ping", nil, nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://covers.test")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, nil)

	w := doJSON(t, router, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookfinder_http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/search"`)
}

func TestRouter_OptionalRoutes(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "GET", "/api/lookups", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "GET", "/api/tasks/types", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "GET", "/api/csrf", nil, nil).Code)

	router, _ = newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Lookups = &fakeLookupLog{}
		cfg.TaskQueue = &fakeTaskQueue{}
		cfg.TaskDefaults = tasks.Defaults{LookupRetentionDays: 30, SessionIdleMinutes: 30}
	})
	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/api/lookups", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/api/tasks/types", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, "GET", "/api/tasks/status/abc", nil, nil).Code)
	assert.Equal(t, http.StatusAccepted, doJSON(t, router, "POST", "/api/tasks/prune_search_sessions/run", nil, nil).Code)
}

func TestRouter_CookieSessions(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.SessionManager = web.NewSessionManager(config.Session{Lifetime: time.Hour})
	})

	// A browser without a cookie has no search yet.
	w := doJSON(t, router, "GET", "/api/search", nil, nil)
	assert.Equal(t, "idle", string(decode[SearchResponse](t, w).State))

	w = doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == web.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "search assigns a browser session")

	withCookie := map[string]string{"Cookie": cookie.Name + "=" + cookie.Value}

	w = doJSON(t, router, "POST", "/api/search/more", nil, withCookie)
	resp := decode[SearchResponse](t, w)
	assert.Equal(t, "dune", resp.Query)
	assert.Len(t, resp.Results, 40)

	// Another browser sees nothing.
	w = doJSON(t, router, "GET", "/api/search", nil, nil)
	assert.Empty(t, decode[SearchResponse](t, w).Results)

	// The summary endpoint finds results of the cookie's session.
	w = doJSON(t, router, "GET", "/api/books/OL21W/summary", nil, withCookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CSRF(t *testing.T) {
	router, searcher := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.CSRFSecret = []byte("test-secret-key-32-bytes-long!!!")
	})

	w := doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	calls, _ := searcher.calls()
	assert.Zero(t, calls)

	tokenResp := httptest.NewRecorder()
	router.ServeHTTP(tokenResp, httptest.NewRequest("GET", "/api/csrf", nil))
	require.Equal(t, http.StatusOK, tokenResp.Code)
	token := decode[map[string]string](t, tokenResp)["csrf_token"]
	require.NotEmpty(t, token)

	var cookies []string
	for _, c := range tokenResp.Result().Cookies() {
		cookies = append(cookies, c.Name+"="+c.Value)
	}

	w = doJSON(t, router, "POST", "/api/search", SearchRequest{Query: "dune"}, map[string]string{
		web.CSRFTokenHeader: token,
		"Cookie":            strings.Join(cookies, "; "),
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

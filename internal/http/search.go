package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/search"
)

// SearchController exposes a per-browser search session.
type SearchController struct {
	registry *search.Registry
	sessions sessionResolver
	covers   CoverURLBuilder
}

func NewSearchController(registry *search.Registry, sessions sessionResolver, covers CoverURLBuilder) *SearchController {
	return &SearchController{registry: registry, sessions: sessions, covers: covers}
}

// SearchRequest is the body of POST /api/search and POST /api/search/more.
type SearchRequest struct {
	Query string `json:"query" form:"query"`
}

// GetState handles GET /api/search
// Returns the caller's current search state without touching the upstream.
func (sc *SearchController) GetState(c *gin.Context) {
	snap := search.Snapshot{State: search.StateIdle}
	if id, ok := sc.sessions.resolve(c, false); ok {
		if session, found := sc.registry.Lookup(id); found {
			snap = session.Snapshot()
		}
	}
	c.JSON(http.StatusOK, newSearchResponse(snap, sc.covers))
}

// StartSearch handles POST /api/search
// Replaces the session's query and returns the first page. A blank query
// resets the session.
func (sc *SearchController) StartSearch(c *gin.Context) {
	var req SearchRequest
	if !bindSearchRequest(c, &req) {
		return
	}

	id, _ := sc.sessions.resolve(c, true)
	session := sc.registry.Get(id)

	snap := session.StartSearch(detach(c), req.Query)
	c.JSON(http.StatusOK, newSearchResponse(snap, sc.covers))
}

// LoadMore handles POST /api/search/more
// Appends the next page of the active query. Without a query in the body the
// active query is assumed.
func (sc *SearchController) LoadMore(c *gin.Context) {
	var req SearchRequest
	if !bindSearchRequest(c, &req) {
		return
	}

	id, _ := sc.sessions.resolve(c, true)
	session := sc.registry.Get(id)

	query := req.Query
	if query == "" {
		query = session.Snapshot().Query
	}

	snap := session.LoadMore(detach(c), query)
	c.JSON(http.StatusOK, newSearchResponse(snap, sc.covers))
}

func bindSearchRequest(c *gin.Context, req *SearchRequest) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBind(req); err != nil {
		respondBadRequest(c, "invalid request body")
		return false
	}
	return true
}

// detach keeps request-scoped values (request id) but not cancellation: a
// lookup that has started always runs to completion and lands in the session.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

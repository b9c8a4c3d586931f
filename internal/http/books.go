package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
	"github.com/mrlokans/bookfinder/internal/search"
)

// BookSource fetches work records.
type BookSource interface {
	CoverURLBuilder
	GetDetail(ctx context.Context, identifier string) (*entities.BookDetail, error)
}

// DetailRecorder is told about every detail lookup.
type DetailRecorder interface {
	LogDetail(sessionID, workKey string, duration time.Duration, err error)
}

// BooksController serves work details and covers.
type BooksController struct {
	books    BookSource
	registry *search.Registry
	sessions sessionResolver
	recorder DetailRecorder // optional
}

func NewBooksController(books BookSource, registry *search.Registry, sessions sessionResolver, recorder DetailRecorder) *BooksController {
	return &BooksController{
		books:    books,
		registry: registry,
		sessions: sessions,
		recorder: recorder,
	}
}

// GetDetail handles GET /api/books/:id
// Fetches the full record of a work. Fields the record lacks are filled from
// the matching search result already loaded in the caller's session.
func (bc *BooksController) GetDetail(c *gin.Context) {
	id := c.Param("id")
	sessionID, _ := bc.sessions.resolve(c, false)

	start := time.Now()
	detail, err := bc.books.GetDetail(detach(c), id)
	if bc.recorder != nil {
		bc.recorder.LogDetail(sessionID, id, time.Since(start), err)
	}
	if err != nil {
		respondUpstreamError(c, err, "book")
		return
	}

	var summary *entities.SearchResult
	if r, ok := bc.findSummary(c, id); ok {
		summary = &r
	}

	c.JSON(http.StatusOK, newBookDetailView(detail, summary, bc.books))
}

// GetSummary handles GET /api/books/:id/summary
// Returns the search result for a work from the caller's session, so a detail
// view can render before the full record arrives.
func (bc *BooksController) GetSummary(c *gin.Context) {
	r, ok := bc.findSummary(c, c.Param("id"))
	if !ok {
		respondNotFound(c, "book summary")
		return
	}
	c.JSON(http.StatusOK, newResultCard(r, bc.books))
}

// GetCover handles GET /api/books/:id/cover?size=S|M|L
// Redirects to the cover image of a work.
func (bc *BooksController) GetCover(c *gin.Context) {
	size := openlibrary.CoverMedium
	if raw := c.Query("size"); raw != "" {
		parsed, ok := openlibrary.ParseCoverSize(raw)
		if !ok {
			respondBadRequest(c, "size must be one of S, M, L")
			return
		}
		size = parsed
	}

	id := c.Param("id")
	coverID := 0
	if r, ok := bc.findSummary(c, id); ok {
		coverID = r.CoverID
	}
	if coverID <= 0 {
		detail, err := bc.books.GetDetail(detach(c), id)
		if err != nil {
			respondUpstreamError(c, err, "book")
			return
		}
		coverID = detail.PrimaryCoverID()
	}

	url := bc.books.CoverImageURL(coverID, size)
	if url == "" {
		respondNotFound(c, "cover")
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (bc *BooksController) findSummary(c *gin.Context, id string) (entities.SearchResult, bool) {
	sessionID, ok := bc.sessions.resolve(c, false)
	if !ok {
		return entities.SearchResult{}, false
	}
	session, ok := bc.registry.Lookup(sessionID)
	if !ok {
		return entities.SearchResult{}, false
	}
	return session.FindResult(id)
}

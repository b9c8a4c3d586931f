package http

import (
	"strings"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
	"github.com/mrlokans/bookfinder/internal/search"
)

// CoverURLBuilder turns a cover id into an image URL.
type CoverURLBuilder interface {
	CoverImageURL(coverID int, size openlibrary.CoverSize) string
}

// ResultCard is a search result as shown in a result list.
type ResultCard struct {
	entities.SearchResult
	WorkID         string `json:"work_id"`
	AuthorsDisplay string `json:"authors_display"`
	CoverURL       string `json:"cover_url,omitempty"`
}

// SearchResponse is the search session state as returned by the API.
type SearchResponse struct {
	Query        string       `json:"query"`
	State        search.State `json:"state"`
	Results      []ResultCard `json:"results"`
	Total        int          `json:"total"`
	HasMore      bool         `json:"has_more"`
	IsLoading    bool         `json:"is_loading"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// BookDetailView is a work's detail page.
type BookDetailView struct {
	*entities.BookDetail
	WorkID         string   `json:"work_id"`
	AuthorsDisplay string   `json:"authors_display"`
	CoverURL       string   `json:"cover_url,omitempty"`
	ISBNs          []string `json:"isbns,omitempty"`
}

func newResultCard(r entities.SearchResult, covers CoverURLBuilder) ResultCard {
	return ResultCard{
		SearchResult:   r,
		WorkID:         workID(r.Key),
		AuthorsDisplay: openlibrary.FormatAuthorList(r.AuthorName),
		CoverURL:       covers.CoverImageURL(r.CoverID, openlibrary.CoverMedium),
	}
}

func newSearchResponse(snap search.Snapshot, covers CoverURLBuilder) SearchResponse {
	cards := make([]ResultCard, len(snap.Results))
	for i, r := range snap.Results {
		cards[i] = newResultCard(r, covers)
	}
	return SearchResponse{
		Query:        snap.Query,
		State:        snap.State,
		Results:      cards,
		Total:        snap.Total,
		HasMore:      snap.HasMore,
		IsLoading:    snap.IsLoading,
		ErrorMessage: snap.ErrorMessage,
	}
}

// newBookDetailView fills detail from summary where it has gaps, sanitizes
// the description and formats the display fields.
func newBookDetailView(detail *entities.BookDetail, summary *entities.SearchResult, covers CoverURLBuilder) BookDetailView {
	detail.MergeSummary(summary)
	detail.Description = openlibrary.CleanDescription(detail.Description)

	return BookDetailView{
		BookDetail:     detail,
		WorkID:         workID(detail.Key),
		AuthorsDisplay: openlibrary.FormatAuthorList(detail.AuthorName),
		CoverURL:       covers.CoverImageURL(detail.PrimaryCoverID(), openlibrary.CoverLarge),
		ISBNs:          detail.AllISBNs(),
	}
}

func workID(key string) string {
	return strings.Trim(strings.TrimPrefix(strings.TrimSpace(key), "/works/"), "/")
}

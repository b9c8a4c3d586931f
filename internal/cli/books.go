package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/openlibrary"
	"github.com/mrlokans/bookfinder/internal/search"
)

// BookSource is the bibliographic API as the commands use it.
type BookSource interface {
	search.Searcher
	GetDetail(ctx context.Context, identifier string) (*entities.BookDetail, error)
	CoverImageURL(coverID int, size openlibrary.CoverSize) string
}

func newBookSource() BookSource {
	cfg := config.NewConfig()
	return openlibrary.NewClient(openlibrary.Config{
		BaseURL:   cfg.OpenLibrary.BaseURL,
		CoversURL: cfg.OpenLibrary.CoversURL,
		UserAgent: cfg.OpenLibrary.UserAgent,
		Timeout:   cfg.OpenLibrary.Timeout,
	})
}

// printResults lists results numbered from first.
func printResults(w io.Writer, results []entities.SearchResult, first int) {
	for i, r := range results {
		year := ""
		if r.FirstPublishYear > 0 {
			year = fmt.Sprintf(" (%d)", r.FirstPublishYear)
		}
		fmt.Fprintf(w, "%4d. %s%s\n      %s\n", first+i, r.Title, year, openlibrary.FormatAuthorList(r.AuthorName))
	}
}

func printStatus(w io.Writer, snap search.Snapshot) {
	switch snap.State {
	case search.StateIdle:
		fmt.Fprintln(w, "No search yet.")
	case search.StateErrored:
		fmt.Fprintf(w, "Error: %s\n", snap.ErrorMessage)
		if len(snap.Results) > 0 {
			fmt.Fprintf(w, "Showing %d of %d results for %q.\n", len(snap.Results), snap.Total, snap.Query)
		}
	default:
		if snap.Total == 0 {
			fmt.Fprintf(w, "No results for %q.\n", snap.Query)
			return
		}
		fmt.Fprintf(w, "Showing %d of %d results for %q.", len(snap.Results), snap.Total, snap.Query)
		if snap.HasMore {
			fmt.Fprint(w, " Type '/more' for the next page.")
		}
		fmt.Fprintln(w)
	}
}

// printDetail renders a work, filling gaps from summary when given.
func printDetail(w io.Writer, detail *entities.BookDetail, summary *entities.SearchResult, covers BookSource) {
	detail.MergeSummary(summary)

	fmt.Fprintln(w, detail.Title)
	if detail.Subtitle != "" {
		fmt.Fprintln(w, detail.Subtitle)
	}
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(detail.Title))))
	fmt.Fprintf(w, "By: %s\n", openlibrary.FormatAuthorList(detail.AuthorName))
	if detail.FirstPublishYear > 0 {
		fmt.Fprintf(w, "First published: %d\n", detail.FirstPublishYear)
	}
	if isbns := detail.AllISBNs(); len(isbns) > 0 {
		fmt.Fprintf(w, "ISBN: %s\n", strings.Join(isbns, ", "))
	}
	if len(detail.Subjects) > 0 {
		subjects := detail.Subjects
		if len(subjects) > 8 {
			subjects = subjects[:8]
		}
		fmt.Fprintf(w, "Subjects: %s\n", strings.Join(subjects, ", "))
	}
	if url := covers.CoverImageURL(detail.PrimaryCoverID(), openlibrary.CoverLarge); url != "" {
		fmt.Fprintf(w, "Cover: %s\n", url)
	}
	if desc := openlibrary.CleanDescription(detail.Description); desc != "" {
		fmt.Fprintf(w, "\n%s\n", desc)
	}
}

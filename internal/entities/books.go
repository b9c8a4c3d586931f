package entities

// SearchResult is one work as returned by the upstream search endpoint.
// Only Key and Title are guaranteed; zero values mean the field was absent.
type SearchResult struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name,omitempty"`
	FirstPublishYear    int      `json:"first_publish_year,omitempty"`
	CoverID             int      `json:"cover_i,omitempty"`
	ISBN                []string `json:"isbn,omitempty"`
	Subject             []string `json:"subject,omitempty"`
	Publisher           []string `json:"publisher,omitempty"`
	NumberOfPagesMedian int      `json:"number_of_pages_median,omitempty"`
}

// SearchResultPage is one bounded slice of a result set.
type SearchResultPage struct {
	Docs     []SearchResult `json:"docs"`
	NumFound int            `json:"numFound"`
	Start    int            `json:"start"`
}

// BookDetail is the full record of a work, fetched by identifier.
// Description is always a plain string, whatever shape the upstream used.
type BookDetail struct {
	SearchResult

	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	ISBN10      []string `json:"isbn_10,omitempty"`
	ISBN13      []string `json:"isbn_13,omitempty"`
	Publishers  []string `json:"publishers,omitempty"`
	PublishDate []string `json:"publish_date,omitempty"`
	Covers      []int    `json:"covers,omitempty"`
}

// PrimaryCoverID returns the first cover of the work, falling back to the
// search-result cover id. Zero means no cover.
func (d *BookDetail) PrimaryCoverID() int {
	for _, id := range d.Covers {
		if id > 0 {
			return id
		}
	}
	return d.CoverID
}

// AllISBNs returns the search-result ISBNs followed by ISBN-10 and ISBN-13
// lists, without duplicates.
func (d *BookDetail) AllISBNs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{d.ISBN, d.ISBN10, d.ISBN13} {
		for _, isbn := range list {
			if _, ok := seen[isbn]; ok || isbn == "" {
				continue
			}
			seen[isbn] = struct{}{}
			out = append(out, isbn)
		}
	}
	return out
}

// MergeSummary fills fields the detail record lacks from a summary that was
// already on screen (typically the search result the user clicked).
func (d *BookDetail) MergeSummary(summary *SearchResult) {
	if summary == nil {
		return
	}
	if d.Key == "" {
		d.Key = summary.Key
	}
	if d.Title == "" {
		d.Title = summary.Title
	}
	if len(d.AuthorName) == 0 {
		d.AuthorName = summary.AuthorName
	}
	if d.FirstPublishYear == 0 {
		d.FirstPublishYear = summary.FirstPublishYear
	}
	if d.CoverID == 0 {
		d.CoverID = summary.CoverID
	}
	if len(d.ISBN) == 0 {
		d.ISBN = summary.ISBN
	}
	if len(d.Subject) == 0 {
		d.Subject = summary.Subject
	}
	if len(d.Publisher) == 0 {
		d.Publisher = summary.Publisher
	}
	if d.NumberOfPagesMedian == 0 {
		d.NumberOfPagesMedian = summary.NumberOfPagesMedian
	}
}

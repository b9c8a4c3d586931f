package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/logger"
	"github.com/mrlokans/bookfinder/internal/metrics"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org/b"
	DefaultUserAgent = "Bookfinder/1.0 (https://github.com/mrlokans/bookfinder)"
	DefaultTimeout   = 10 * time.Second

	// SearchFields is the projection requested from the search endpoint.
	SearchFields = "key,title,author_name,first_publish_year,cover_i,isbn,subject,publisher,number_of_pages_median"

	worksPrefix   = "/works/"
	authorsPrefix = "/authors/"
)

// Config controls where and how the client talks to the upstream.
// Zero fields take the package defaults.
type Config struct {
	BaseURL   string
	CoversURL string
	UserAgent string
	Timeout   time.Duration
}

// Client fetches search pages and work records from the OpenLibrary API.
// It holds no per-query state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	coversURL  string
	userAgent  string
}

// NewClient creates a new OpenLibrary API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = DefaultCoversURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		coversURL: strings.TrimRight(cfg.CoversURL, "/"),
		userAgent: cfg.UserAgent,
	}
}

// Search fetches one page of results for query. The returned page's Start is
// the requested offset.
func (c *Client) Search(ctx context.Context, query string, pageSize, offset int) (*entities.SearchResultPage, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("fields", SearchFields)
	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	var page entities.SearchResultPage
	if err := c.getJSON(ctx, "search", "search", searchURL, &page); err != nil {
		return nil, err
	}

	if page.Docs == nil {
		page.Docs = []entities.SearchResult{}
	}
	page.Start = offset

	return &page, nil
}

// GetDetail fetches the full record of a work. The identifier may be a bare
// id ("OL45883W") or a key ("/works/OL45883W"). Author references are
// resolved concurrently; any author that cannot be fetched is reported as
// UnknownAuthor rather than failing the call.
func (c *Client) GetDetail(ctx context.Context, identifier string) (*entities.BookDetail, error) {
	id := normalizeWorkID(identifier)
	if id == "" {
		return nil, fmt.Errorf("no book specified: %w", ErrNotFound)
	}

	workURL := fmt.Sprintf("%s%s%s.json", c.baseURL, worksPrefix, url.PathEscape(id))

	var rec workRecord
	if err := c.getJSON(ctx, "work", "fetch book details", workURL, &rec); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("work %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	detail := c.convertWork(&rec, id)
	if len(rec.Authors) > 0 {
		detail.AuthorName = c.resolveAuthors(ctx, rec.Authors)
	}

	return detail, nil
}

// CoverImageURL builds a cover URL against the configured covers host.
func (c *Client) CoverImageURL(coverID int, size CoverSize) string {
	return coverImageURL(c.coversURL, coverID, size)
}

// AuthorURL returns the JSON endpoint of an author, given either a bare id or
// an "/authors/..." key.
func (c *Client) AuthorURL(authorKey string) string {
	key := strings.TrimPrefix(strings.TrimSpace(authorKey), authorsPrefix)
	return fmt.Sprintf("%s%s%s.json", c.baseURL, authorsPrefix, url.PathEscape(key))
}

func (c *Client) resolveAuthors(ctx context.Context, refs []workAuthor) []string {
	names := make([]string, len(refs))

	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			names[i] = c.resolveAuthor(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	return names
}

// resolveAuthor never fails: every error degrades to UnknownAuthor.
func (c *Client) resolveAuthor(ctx context.Context, ref workAuthor) string {
	if ref.Name != "" {
		return ref.Name
	}

	key := ref.key()
	if key == "" {
		metrics.AuthorFallbacksTotal.Inc()
		return UnknownAuthor
	}

	name, err := c.fetchAuthorName(ctx, key)
	if err != nil || name == "" {
		metrics.AuthorFallbacksTotal.Inc()
		logger.For(ctx).WithField("author_key", key).WithError(err).Warn("Failed to fetch author details")
		return UnknownAuthor
	}
	return name
}

func (c *Client) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	var author struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "author", "fetch author", c.AuthorURL(authorKey), &author); err != nil {
		return "", err
	}
	return author.Name, nil
}

// getJSON performs a GET and decodes a JSON body into out. endpoint labels
// metrics; op names the operation in error messages.
func (c *Client) getJSON(ctx context.Context, endpoint, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) convertWork(rec *workRecord, id string) *entities.BookDetail {
	key := rec.Key
	if key == "" {
		key = worksPrefix + id
	}

	detail := &entities.BookDetail{
		SearchResult: entities.SearchResult{
			Key:              key,
			Title:            rec.Title,
			FirstPublishYear: extractYear(rec.FirstPublishDate),
		},
		Subtitle:    rec.Subtitle,
		Description: UnwrapDescription(rec.Description),
		Subjects:    rec.Subjects,
		ISBN10:      rec.ISBN10,
		ISBN13:      rec.ISBN13,
		Publishers:  rec.Publishers,
		PublishDate: rec.PublishDate,
		Covers:      rec.Covers,
	}
	detail.CoverID = detail.PrimaryCoverID()

	return detail
}

func normalizeWorkID(identifier string) string {
	id := strings.TrimSpace(identifier)
	id = strings.TrimPrefix(id, worksPrefix)
	return strings.Trim(id, "/")
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func isStatus(err error, code int) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.StatusCode == code
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if year, err := strconv.Atoi(dateStr[i : i+4]); err == nil && year > 1000 && year < 3000 {
			return year
		}
	}

	return 0
}

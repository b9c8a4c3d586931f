package openlibrary

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// UnknownAuthor is shown wherever an author name is missing or could not be resolved.
const UnknownAuthor = "Unknown Author"

// CoverSize selects one of the renditions served by the covers endpoint.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// ParseCoverSize accepts S, M or L in any case.
func ParseCoverSize(s string) (CoverSize, bool) {
	switch CoverSize(strings.ToUpper(strings.TrimSpace(s))) {
	case CoverSmall:
		return CoverSmall, true
	case CoverMedium:
		return CoverMedium, true
	case CoverLarge:
		return CoverLarge, true
	}
	return "", false
}

// CoverImageURL builds the cover URL on the public covers host.
// An absent cover (id <= 0) yields an empty string.
func CoverImageURL(coverID int, size CoverSize) string {
	return coverImageURL(DefaultCoversURL, coverID, size)
}

func coverImageURL(base string, coverID int, size CoverSize) string {
	if coverID <= 0 {
		return ""
	}
	if _, ok := ParseCoverSize(string(size)); !ok {
		size = CoverMedium
	}
	return fmt.Sprintf("%s/id/%d-%s.jpg", strings.TrimRight(base, "/"), coverID, size)
}

// FormatAuthorList renders an author list for a card or header line:
// "A", "A & B", or "A & 2 others".
func FormatAuthorList(names []string) string {
	switch len(names) {
	case 0:
		return UnknownAuthor
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	default:
		return fmt.Sprintf("%s & %d others", names[0], len(names)-1)
	}
}

// UnwrapDescription normalizes a description that the upstream sends either
// as a plain string or as a {"type": ..., "value": ...} object.
func UnwrapDescription(description any) string {
	switch v := description.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	case map[string]string:
		return v["value"]
	}
	return ""
}

var (
	descriptionPolicy = bluemonday.StrictPolicy()

	// markupTag matches the formatting tags catalog descriptions actually
	// carry. A bare "<" in prose ("x<y", "<3") is not a tag.
	markupTag = regexp.MustCompile(`(?i)</?(?:a|b|i|u|p|br|hr|em|strong|small|sup|sub|span|div|blockquote|pre|code|ul|ol|li|h[1-6]|img|table|tr|td|th)(?:\s[^<>]*)?/?>`)
)

// CleanDescription unwraps a description and strips any markup from it,
// leaving plain text suitable for display. Text without markup is returned
// as is.
func CleanDescription(description any) string {
	text := strings.TrimSpace(UnwrapDescription(description))
	if text == "" {
		return ""
	}

	tags := markupTag.FindAllStringIndex(text, -1)
	if len(tags) == 0 {
		return text
	}

	// Escape stray angle brackets between tags so the sanitizer keeps them
	// as text instead of reading them as the start of an element.
	var b strings.Builder
	last := 0
	for _, loc := range tags {
		b.WriteString(escapeBrackets(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(escapeBrackets(text[last:]))

	return strings.TrimSpace(html.UnescapeString(descriptionPolicy.Sanitize(b.String())))
}

var bracketEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

func escapeBrackets(s string) string {
	return bracketEscaper.Replace(s)
}

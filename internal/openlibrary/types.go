package openlibrary

import (
	"encoding/json"
	"fmt"
)

// OpenLibrary API response types (internal)

type workRecord struct {
	Key              string       `json:"key"`
	Title            string       `json:"title"`
	Subtitle         string       `json:"subtitle"`
	Description      any          `json:"description"` // Can be string or {type, value}
	Subjects         []string     `json:"subjects"`
	Covers           []int        `json:"covers"`
	Authors          []workAuthor `json:"authors"`
	FirstPublishDate string       `json:"first_publish_date"`
	ISBN10           []string     `json:"isbn_10"`
	ISBN13           []string     `json:"isbn_13"`
	Publishers       []string     `json:"publishers"`
	PublishDate      stringList   `json:"publish_date"`
}

// workAuthor covers the shapes an author entry takes across records:
// {"author": {"key": ...}} on works, {"key": ...} on editions, or an inline name.
type workAuthor struct {
	Author *keyRef `json:"author"`
	Key    string  `json:"key"`
	Name   string  `json:"name"`
}

func (a workAuthor) key() string {
	if a.Author != nil && a.Author.Key != "" {
		return a.Author.Key
	}
	return a.Key
}

type keyRef struct {
	Key string `json:"key"`
}

// stringList decodes either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = stringList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = many
	return nil
}

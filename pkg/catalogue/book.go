package catalogue

import (
	"strings"
)

// Book is one entry of the reading archive.
type Book struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Published     string `json:"published"`
	FirstSentence string `json:"first_sentence"`
}

// Validate checks the fields a client must provide.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(b.Author) == "" {
		return &ValidationError{Field: "author", Message: "author is required"}
	}
	return nil
}

// Filter selects books by exact field match. Zero fields are ignored; all set
// fields must match.
type Filter struct {
	ID        int64
	Published string
	Author    string
}

// Empty reports whether no field is set.
func (f Filter) Empty() bool {
	return f.ID == 0 && f.Published == "" && f.Author == ""
}

// Match reports whether b satisfies every set field of f.
func (f Filter) Match(b Book) bool {
	if f.ID != 0 && b.ID != f.ID {
		return false
	}
	if f.Published != "" && b.Published != f.Published {
		return false
	}
	if f.Author != "" && b.Author != f.Author {
		return false
	}
	return true
}

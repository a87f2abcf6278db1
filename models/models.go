package models

import (
	"errors"
	"strings"
	"time"
)

// ErrBriefingNotFound is returned when a saved briefing does not exist
var ErrBriefingNotFound = errors.New("briefing not found")

// Kind labels where a document came from. It doubles as the retrieval filter
// of the vector index.
type Kind string

const (
	KindNews    Kind = "news"
	KindBlog    Kind = "blog"
	KindPaper   Kind = "paper"
	KindUnknown Kind = "unknown"
)

// ParseKind maps loose user input ("news", "blogs", "papers", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "news", "article", "articles":
		return KindNews, nil
	case "blog", "blogs":
		return KindBlog, nil
	case "paper", "papers":
		return KindPaper, nil
	}
	return KindUnknown, errors.New("unknown kind: " + s)
}

// Document is the transient record that flows through a crawl pipeline.
type Document struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	Kind        Kind      `json:"kind"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	FullText    string    `json:"full_text"`
	Keyword     string    `json:"keyword,omitempty"`
}

// Item is a summarized document as it is saved and indexed.
type Item struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      Kind       `json:"source,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Summary     string     `json:"summary"`
}

// Briefing is one saved result set.
type Briefing struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Country   string    `json:"country,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// BriefingSummary is one row of a briefing listing.
type BriefingSummary struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Country   string    `json:"country,omitempty"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary reduces a briefing to its listing row.
func (b Briefing) Summary() BriefingSummary {
	return BriefingSummary{ID: b.ID, Prompt: b.Prompt, Country: b.Country, Items: len(b.Items), CreatedAt: b.CreatedAt}
}

// ItemFromDocument builds the saved form of a summarized document.
func ItemFromDocument(doc Document, summary string) Item {
	it := Item{
		Title:     doc.Title,
		URL:       doc.URL,
		Source:    doc.Kind,
		Publisher: doc.Source,
		Summary:   summary,
	}
	if !doc.PublishedAt.IsZero() {
		t := doc.PublishedAt
		it.PublishedAt = &t
	}
	return it
}

package record

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryApproval      Category = "approval"
	CategoryShortage      Category = "shortage"
	CategoryWarningLetter Category = "warning_letter"
	CategoryNews          Category = "news"
	CategoryGovernment    Category = "government"
	CategoryLabel         Category = "label"
	CategoryOther         Category = "other"
)

var categories = map[Category]bool{
	CategoryApproval:      true,
	CategoryShortage:      true,
	CategoryWarningLetter: true,
	CategoryNews:          true,
	CategoryGovernment:    true,
	CategoryLabel:         true,
	CategoryOther:         true,
}

// ParseCategory maps a config or scraped category string onto the closed set.
// Anything unrecognized becomes CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if c == "warning_letters" {
		c = CategoryWarningLetter
	}
	if categories[c] {
		return c
	}
	return CategoryOther
}

// Record is one discovered item. Source and Title are always set once a
// Record leaves the Normalizer; treat it as a value and copy on change.
type Record struct {
	Source      string     `json:"source" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    Category   `json:"category" validate:"required"`
	RawExcerpt  string     `json:"raw_excerpt,omitempty"`

	MatchedTerms []string `json:"matched_terms,omitempty"`
	Score        float64  `json:"score,omitempty"`
}

// WithRelevance returns a copy of r annotated with matcher output.
func (r Record) WithRelevance(score float64, terms []string) Record {
	r.Score = score
	r.MatchedTerms = append([]string(nil), terms...)
	return r
}

// Text is the haystack used by keyword filters and the relevance matcher.
func (r Record) Text() string {
	if r.RawExcerpt == "" {
		return r.Title
	}
	return r.Title + " " + r.RawExcerpt
}

// RawItem is a loosely structured scraped item. Field names differ per
// source; the Normalizer is the only place that reads them.
type RawItem map[string]string

// First returns the first non-blank value among keys.
func (ri RawItem) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(ri[k]); v != "" {
			return v
		}
	}
	return ""
}

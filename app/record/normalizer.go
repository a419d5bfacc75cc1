package record

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
)

const maxExcerptRunes = 500

var (
	titleFields   = []string{"title", "headline", "name", "drug_name", "subject"}
	linkFields    = []string{"url", "link", "href", "guid"}
	dateFields    = []string{"published", "pubDate", "date", "posted", "issued", "updated"}
	excerptFields = []string{"raw_excerpt", "summary", "description", "excerpt", "content", "status"}
)

type Normalizer struct {
	validate *validator.Validate
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Run turns raw into a Record for source. Items without a usable title
// fail with *NormalizationError.
func (n *Normalizer) Run(source string, category Category, raw RawItem) (Record, error) {
	rec := Record{
		Source:   strings.TrimSpace(source),
		Title:    cleanText(raw.First(titleFields...)),
		URL:      strings.TrimSpace(raw.First(linkFields...)),
		Category: category,
	}

	if rec.Title == "" {
		return Record{}, &NormalizationError{Source: source, Reason: "no title"}
	}

	if rec.Category == "" {
		rec.Category = ParseCategory(raw["category"])
	}

	if s := raw.First(dateFields...); s != "" {
		if t, err := dateparse.ParseAny(s); err == nil {
			utc := t.UTC()
			rec.PublishedAt = &utc
		} else {
			slog.Debug("Unparsable date ignored", "source", source, "value", s)
		}
	}

	rec.RawExcerpt = truncateRunes(cleanText(raw.First(excerptFields...)), maxExcerptRunes)

	if err := n.validate.Struct(rec); err != nil {
		return Record{}, &NormalizationError{Source: source, Reason: validationReason(err), Err: err}
	}

	return rec, nil
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid record"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// cleanText strips markup and entities and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

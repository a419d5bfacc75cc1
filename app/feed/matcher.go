package feed

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lysyi3m/glp1-survey/app/record"
)

// Terms this short must match a whole word; longer ones only need to start
// one, so "recalls" still counts as "recall".
const shortTermRunes = 4

type pattern struct {
	term   string
	weight float64
	whole  bool
}

// Matcher scores text against the terms vocabulary. Every term found adds
// its category weight once.
type Matcher struct {
	patterns []pattern
}

func NewMatcher(terms *Terms) *Matcher {
	m := &Matcher{}

	add := func(kind string, values ...string) {
		weight, ok := terms.Weights[kind]
		if !ok {
			weight = 1
		}
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			m.patterns = append(m.patterns, pattern{
				term:   v,
				weight: weight,
				whole:  utf8.RuneCountInString(v) <= shortTermRunes,
			})
		}
	}

	for _, key := range sortedKeys(terms.Indications) {
		add("indication", terms.Indications[key].Aliases...)
	}
	for _, key := range sortedKeys(terms.DrugClasses) {
		add("drug_class", terms.DrugClasses[key].Aliases...)
	}
	for _, key := range sortedKeys(terms.Drugs) {
		add("drug_name", terms.Drugs[key].Aliases...)
		add("brand_name", terms.Drugs[key].Brands...)
	}
	for _, key := range sortedKeys(terms.Companies) {
		add("company", terms.Companies[key].Aliases...)
	}
	add("regulatory", terms.Regulatory...)

	return m
}

func (m *Matcher) Score(text string) (float64, []string) {
	if text == "" {
		return 0, nil
	}

	lower := strings.ToLower(text)
	var score float64
	var matched []string
	for _, p := range m.patterns {
		if slices.Contains(matched, p.term) || !p.foundIn(lower) {
			continue
		}
		score += p.weight
		matched = append(matched, p.term)
	}

	return score, matched
}

// foundIn reports whether the term occurs in text at a word start.
func (p pattern) foundIn(text string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], p.term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(p.term)
		if isWordBoundary(text, start, end, p.whole) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func isWordBoundary(text string, start, end int, whole bool) bool {
	if before, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && isWordRune(before) {
		return false
	}
	if !whole || end == len(text) {
		return true
	}
	after, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(after)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Run annotates records with their score. When required is set, records
// scoring zero are dropped; the drop count is returned.
func (m *Matcher) Run(records []record.Record, required bool) ([]record.Record, int) {
	kept := make([]record.Record, 0, len(records))
	for _, r := range records {
		score, matched := m.Score(r.Text())
		if required && score == 0 {
			continue
		}
		kept = append(kept, r.WithRelevance(score, matched))
	}
	return kept, len(records) - len(kept)
}

func sortedKeys(m map[string]TermGroup) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

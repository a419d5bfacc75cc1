// Package fingerprint derives the identity key used to match records across
// runs. Two records that differ only in whitespace, casing, trailing
// punctuation or URL query/fragment map to the same key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/glp1-survey/app/record"
)

type Key string

// field separator; cannot appear in normalized titles or URLs
const sep = "\x1f"

// Of computes the key for r. Keys are scoped per source.
func Of(r record.Record) Key {
	parts := []string{r.Source, Title(r.Title)}
	if u := URL(r.URL); u != "" {
		parts = append(parts, u)
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, sep)))
	return Key(hex.EncodeToString(hash[:]))
}

// Title folds case, collapses whitespace and trims surrounding punctuation.
func Title(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// URL drops query, fragment and trailing slashes. Blank input yields "".
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return strings.TrimRight(raw, "/")
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")

	return strings.TrimRight(u.String(), "/")
}

// Dedupe keeps the first record seen for each key, in input order, and
// reports how many were dropped.
func Dedupe(records []record.Record) ([]record.Record, int) {
	seen := make(map[Key]struct{}, len(records))
	kept := make([]record.Record, 0, len(records))

	for _, r := range records {
		k := Of(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}

	return kept, len(records) - len(kept)
}

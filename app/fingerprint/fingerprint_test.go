package fingerprint

import (
	"testing"

	"github.com/lysyi3m/glp1-survey/app/record"
)

func TestOf_StableAcrossTextualDrift(t *testing.T) {
	a := record.Record{Source: "fda", Title: "FDA Approves Semaglutide.", URL: "https://fda.gov/x?utm=1"}
	b := record.Record{Source: "fda", Title: "fda approves semaglutide", URL: "https://fda.gov/x"}

	if Of(a) != Of(b) {
		t.Errorf("Expected equal fingerprints, got %s and %s", Of(a), Of(b))
	}
}

func TestOf_Variations(t *testing.T) {
	base := record.Record{Source: "fda", Title: "FDA Approves Drug X", URL: "https://www.fda.gov/news/drug-x"}
	want := Of(base)

	variants := []record.Record{
		{Source: "fda", Title: "  FDA   approves drug x  ", URL: "https://www.fda.gov/news/drug-x"},
		{Source: "fda", Title: "FDA Approves Drug X!", URL: "https://www.fda.gov/news/drug-x/"},
		{Source: "fda", Title: "\"FDA Approves Drug X\"", URL: "https://WWW.FDA.GOV/news/drug-x#section"},
		{Source: "fda", Title: "FDA Approves Drug X", URL: "https://www.fda.gov/news/drug-x?utm_source=rss&utm_medium=feed"},
		{Source: "fda", Title: "ＦＤＡ Approves Drug X", URL: "https://www.fda.gov/news/drug-x"},
	}

	for i, v := range variants {
		if got := Of(v); got != want {
			t.Errorf("Variant %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestOf_DistinctRecords(t *testing.T) {
	a := record.Record{Source: "fda", Title: "FDA Approves Drug X", URL: "https://fda.gov/a"}

	others := []record.Record{
		{Source: "fda", Title: "FDA Approves Drug Y", URL: "https://fda.gov/a"},
		{Source: "fda", Title: "FDA Approves Drug X", URL: "https://fda.gov/b"},
		{Source: "ema", Title: "FDA Approves Drug X", URL: "https://fda.gov/a"},
		{Source: "fda", Title: "FDA Approves Drug X"},
	}

	for i, o := range others {
		if Of(o) == Of(a) {
			t.Errorf("Record %d should not collide with base record", i)
		}
	}
}

func TestOf_NoURL(t *testing.T) {
	a := record.Record{Source: "shortage", Title: "Semaglutide Injection"}
	b := record.Record{Source: "shortage", Title: "semaglutide injection.", URL: "   "}

	if Of(a) != Of(b) {
		t.Error("Blank URL should be treated as absent")
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"FDA Approves Semaglutide.": "fda approves semaglutide",
		"  Hello\t\nWorld  ":        "hello world",
		"...Warning: Letter!!":      "warning: letter",
		"(Update)":                  "update",
		"":                          "",
	}

	for in, want := range tests {
		if got := Title(in); got != want {
			t.Errorf("Title(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestURL(t *testing.T) {
	tests := map[string]string{
		"https://fda.gov/x?utm=1":         "https://fda.gov/x",
		"https://fda.gov/x/":              "https://fda.gov/x",
		"https://FDA.gov/x#top":           "https://fda.gov/x",
		"https://fda.gov/":                "https://fda.gov",
		"/relative/path/?q=1":             "/relative/path",
		"":                                "",
		"   ":                             "",
		"https://fda.gov/a%2Fb/?x=1#frag": "https://fda.gov/a%2Fb",
	}

	for in, want := range tests {
		if got := URL(in); got != want {
			t.Errorf("URL(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDedupe_KeepsFirst(t *testing.T) {
	records := []record.Record{
		{Source: "fda", Title: "Item A", URL: "https://fda.gov/a", RawExcerpt: "first"},
		{Source: "fda", Title: "Item B", URL: "https://fda.gov/b"},
		{Source: "fda", Title: "item a.", URL: "https://fda.gov/a?ref=home", RawExcerpt: "second"},
	}

	kept, dropped := Dedupe(records)

	if len(kept) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(kept))
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", dropped)
	}
	if kept[0].RawExcerpt != "first" {
		t.Errorf("Expected first occurrence to be kept, got excerpt '%s'", kept[0].RawExcerpt)
	}
	if kept[1].Title != "Item B" {
		t.Errorf("Expected input order preserved, got '%s'", kept[1].Title)
	}
}

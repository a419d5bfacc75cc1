package report

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/record"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

func TestGenerator_Run(t *testing.T) {
	published := time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)
	added := snapshot.NewEntry(record.Record{
		Source:       "fda_press",
		Title:        "FDA approves Wegovy & new dosing",
		URL:          "https://www.fda.gov/news/wegovy",
		Category:     record.CategoryNews,
		PublishedAt:  &published,
		MatchedTerms: []string{"wegovy", "approves"},
	})
	resolved := snapshot.NewEntry(record.Record{
		Source:   "shortage",
		Title:    "Tirzepatide Injection",
		URL:      "https://www.accessdata.fda.gov/scripts/drugshortages/tirzepatide",
		Category: record.CategoryShortage,
	})

	r := &diff.Report{
		GeneratedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Sources: []diff.SourceDiff{
			{Source: "fda_press", Status: diff.StatusOK, Added: []snapshot.Entry{added}},
			{Source: "shortage", Status: diff.StatusEmptyConfirmed, Shortage: true, Removed: []snapshot.Entry{resolved}},
			{Source: "warning_letters", Status: diff.StatusOK, Removed: []snapshot.Entry{added}},
		},
	}

	generator := NewGenerator("http://localhost:8080/feeds/changes", "test")
	rss, err := generator.Run(r, map[string]string{"fda_press": "FDA Press Releases"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should contain XML declaration")
	}
	if !strings.Contains(rss, `<atom:link href="http://localhost:8080/feeds/changes" rel="self"`) {
		t.Error("RSS should contain the self link")
	}
	if !strings.Contains(rss, "<title>FDA approves Wegovy &amp; new dosing</title>") {
		t.Error("Item title should be escaped")
	}
	if !strings.Contains(rss, `<guid isPermaLink="false">`+string(added.Fingerprint)+`</guid>`) {
		t.Error("Added record should use its fingerprint as GUID")
	}
	if !strings.Contains(rss, "<title>Shortage resolved: Tirzepatide Injection</title>") {
		t.Error("Resolved shortage should be listed")
	}
	if !strings.Contains(rss, "<category>FDA Press Releases</category>") {
		t.Error("Item should carry the source title as category")
	}
	if !strings.Contains(rss, "<description>No description available</description>") {
		t.Error("Items without excerpt should get a placeholder description")
	}
	if strings.Count(rss, "<item>") != 2 {
		t.Errorf("Expected 2 items, got %d", strings.Count(rss, "<item>"))
	}
	if !strings.Contains(rss, "<generator>GLP1-Survey/test</generator>") {
		t.Error("RSS should name the generator")
	}
}

func TestGenerator_Run_NoReport(t *testing.T) {
	if _, err := NewGenerator("", "test").Run(nil, nil); err == nil {
		t.Error("Expected error without a report")
	}
}

func TestGenerator_WriteElement_Empty(t *testing.T) {
	r := &diff.Report{GeneratedAt: time.Now()}

	rss, err := NewGenerator("", "test").Run(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rss, "<link>") {
		t.Error("Empty elements should be omitted")
	}
	if strings.Contains(rss, "atom:link") {
		t.Error("Self link should be omitted when empty")
	}
}

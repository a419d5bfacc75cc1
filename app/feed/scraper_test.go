package feed

import (
	"testing"
)

const listingHTML = `<html><body>
<div class="views-row">
  <h3><a href="/drugs/news/semaglutide-update">Semaglutide label update</a></h3>
  <time datetime="2025-05-01T00:00:00Z">May 1, 2025</time>
  <p class="summary">New boxed warning text.</p>
</div>
<div class="views-row">
  <h3>Tirzepatide approval</h3>
  <a class="more" href="https://other.example.com/tirzepatide">Read more</a>
  <time>June 3, 2025</time>
</div>
</body></html>`

func TestScraper_Run(t *testing.T) {
	scraper := NewScraper()

	sel := ConfigSelectors{
		Item:    ".views-row",
		Title:   "h3",
		Link:    "a.more",
		Date:    "time",
		Excerpt: ".summary",
	}

	items, err := scraper.Run([]byte(listingHTML), "https://www.fda.gov/drugs/news", sel)
	if err != nil {
		t.Fatalf("Failed to scrape: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	if items[0]["title"] != "Semaglutide label update" {
		t.Errorf("Unexpected title: %s", items[0]["title"])
	}
	if items[0]["href"] != "https://www.fda.gov/drugs/news/semaglutide-update" {
		t.Errorf("Expected resolved link, got %s", items[0]["href"])
	}
	if items[0]["date"] != "2025-05-01T00:00:00Z" {
		t.Errorf("Expected datetime attribute, got %s", items[0]["date"])
	}
	if items[0]["excerpt"] != "New boxed warning text." {
		t.Errorf("Unexpected excerpt: %s", items[0]["excerpt"])
	}

	if items[1]["href"] != "https://other.example.com/tirzepatide" {
		t.Errorf("Expected fallback link selector, got %s", items[1]["href"])
	}
	if items[1]["date"] != "June 3, 2025" {
		t.Errorf("Expected text date, got %s", items[1]["date"])
	}
}

func TestScraper_Run_NoMatches(t *testing.T) {
	items, err := NewScraper().Run([]byte("<html><body><p>nothing</p></body></html>"), "https://x", ConfigSelectors{Item: "article", Title: "h2", Link: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("Expected 0 items, got %d", len(items))
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/a/b", "https://www.fda.gov/a/b"},
		{"c", "https://www.fda.gov/drugs/c"},
		{"https://other.example.com/x", "https://other.example.com/x"},
		{"  ", ""},
	}

	base := mustParseURL(t, "https://www.fda.gov/drugs/news")
	for _, tt := range tests {
		if got := resolveURL(base, tt.href); got != tt.want {
			t.Errorf("resolveURL(%q): expected %s, got %s", tt.href, tt.want, got)
		}
	}
}

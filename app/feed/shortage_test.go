package feed

import (
	"net/url"
	"testing"
)

const shortageHTML = `<html><body>
<table>
  <tr><th>Generic Name</th><th>Status</th></tr>
  <tr><td><a href="dsp_ActiveIngredientDetails.cfm?AI=Semaglutide">Semaglutide Injection</a></td><td>Currently in Shortage</td></tr>
  <tr><td><a href="dsp_ActiveIngredientDetails.cfm?AI=Tirzepatide">Tirzepatide Injection</a></td><td>Resolved</td></tr>
  <tr><td><a href="dsp_ActiveIngredientDetails.cfm?AI=Amoxicillin">Amoxicillin Oral Powder</a></td><td>Currently in
      Shortage</td></tr>
  <tr><td>Liraglutide Injection</td><td>Currently in Shortage</td></tr>
</table>
</body></html>`

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestShortageScraper_Run(t *testing.T) {
	scraper := NewShortageScraper()

	cfg := ConfigShortage{
		Drugs:       []string{"semaglutide", "tirzepatide", "liraglutide"},
		Brands:      []string{"Semaglutide"},
		StatusMatch: DefaultStatusMatch,
	}

	items, err := scraper.Run([]byte(shortageHTML), "https://www.accessdata.fda.gov/scripts/drugshortages/default.cfm", cfg)
	if err != nil {
		t.Fatalf("Failed to scrape shortages: %v", err)
	}

	// resolved and unlinked rows are skipped; unmonitored drugs are ignored
	if len(items) != 1 {
		t.Fatalf("Expected 1 shortage, got %d: %v", len(items), items)
	}

	item := items[0]
	if item["drug_name"] != "Semaglutide Injection" {
		t.Errorf("Unexpected drug name: %s", item["drug_name"])
	}
	if item["status"] != "Currently in Shortage" {
		t.Errorf("Unexpected status: %s", item["status"])
	}
	if item["url"] != "https://www.accessdata.fda.gov/scripts/drugshortages/dsp_ActiveIngredientDetails.cfm?AI=Semaglutide" {
		t.Errorf("Unexpected url: %s", item["url"])
	}
	if item["category"] != "shortage" {
		t.Errorf("Expected category shortage, got %s", item["category"])
	}
}

func TestShortageScraper_Run_NoneInShortage(t *testing.T) {
	cfg := ConfigShortage{Drugs: []string{"tirzepatide"}, StatusMatch: DefaultStatusMatch}

	items, err := NewShortageScraper().Run([]byte(shortageHTML), "https://x/", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no shortages, got %v", items)
	}
}

func TestShortageScraper_Run_MissingTable(t *testing.T) {
	cfg := ConfigShortage{Drugs: []string{"semaglutide"}, StatusMatch: DefaultStatusMatch}

	if _, err := NewShortageScraper().Run([]byte("<html><body>Maintenance</body></html>"), "https://x/", cfg); err == nil {
		t.Error("Expected error when the shortage table is missing")
	}
}

func TestCompactName(t *testing.T) {
	if compactName("GLP-1 Agonist Pen") != "glp1agonistpen" {
		t.Errorf("Unexpected compact name: %s", compactName("GLP-1 Agonist Pen"))
	}
}

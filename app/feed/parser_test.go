package feed

import (
	"testing"
)

func TestParser_Run_RSS(t *testing.T) {
	parser := NewParser()

	rssData := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>FDA Press Releases</title>
    <link>https://www.fda.gov</link>
    <description>Press announcements</description>
    <item>
      <title>FDA Approves New Indication for Semaglutide</title>
      <link>https://www.fda.gov/news/semaglutide?utm_source=rss</link>
      <description>&lt;p&gt;Cardiovascular risk reduction&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 14:00:00 GMT</pubDate>
      <guid>https://www.fda.gov/news/semaglutide</guid>
      <category>Drugs</category>
    </item>
    <item>
      <title>Warning letter issued</title>
      <guid isPermaLink="true">https://www.fda.gov/letters/42</guid>
    </item>
  </channel>
</rss>`

	items, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Failed to parse RSS: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first["title"] != "FDA Approves New Indication for Semaglutide" {
		t.Errorf("Unexpected title: %s", first["title"])
	}
	if first["link"] != "https://www.fda.gov/news/semaglutide?utm_source=rss" {
		t.Errorf("Unexpected link: %s", first["link"])
	}
	if first["published"] != "2025-06-02T14:00:00Z" {
		t.Errorf("Expected RFC3339 published date, got '%s'", first["published"])
	}
	if first["tags"] != "Drugs" {
		t.Errorf("Expected tags 'Drugs', got '%s'", first["tags"])
	}

	// Test GUID fallback for link
	if items[1]["link"] != "https://www.fda.gov/letters/42" {
		t.Errorf("Expected link from GUID, got '%s'", items[1]["link"])
	}
}

func TestParser_Run_Atom(t *testing.T) {
	parser := NewParser()

	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Diabetes News</title>
  <entry>
    <title>Tirzepatide trial results</title>
    <link href="https://news.example.com/tirzepatide"/>
    <id>urn:uuid:1</id>
    <updated>2025-08-10T08:00:00Z</updated>
    <summary>Phase 3 results published.</summary>
  </entry>
</feed>`

	items, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Failed to parse Atom: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0]["link"] != "https://news.example.com/tirzepatide" {
		t.Errorf("Unexpected link: %s", items[0]["link"])
	}
	if items[0]["description"] != "Phase 3 results published." {
		t.Errorf("Unexpected description: %s", items[0]["description"])
	}
	if items[0].First("published", "updated") == "" {
		t.Error("Expected a date for the Atom entry")
	}
}

func TestParser_Run_Invalid(t *testing.T) {
	parser := NewParser()

	if _, err := parser.Run([]byte("<html><body>not a feed</body></html>")); err == nil {
		t.Error("Expected error for non-feed document")
	}
}

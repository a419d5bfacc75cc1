package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const collectorRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>One</title><link>https://x/1</link></item>
<item><title>Two</title><link>https://x/2</link></item>
<item><title>Three</title><link>https://x/3</link></item>
</channel></rss>`

func newTestCollector(now time.Time) *Collector {
	c := NewCollector(newTestFetcher(nil))
	c.now = func() time.Time { return now }
	return c
}

func TestCollector_Collect_RSS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(collectorRSS))
	}))
	defer server.Close()

	cfg := &Config{Name: "press", URL: server.URL, Strategy: StrategyRSS, Settings: ConfigSettings{MaxItems: 2, Timeout: 5}}

	items, err := newTestCollector(time.Now()).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected items truncated to 2, got %d", len(items))
	}
	if items[0]["title"] != "One" {
		t.Errorf("Expected feed order preserved, got %s", items[0]["title"])
	}
}

func TestCollector_Collect_YearPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/approvals-2026" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<ul><li><a href="/d/1">Novel approval</a></li></ul>`))
	}))
	defer server.Close()

	cfg := &Config{
		Name:      "novel",
		URL:       server.URL + "/approvals-{year}",
		Strategy:  StrategyHTML,
		Selectors: ConfigSelectors{Item: "li", Title: "a", Link: "a"},
		Settings:  ConfigSettings{Years: 2, Timeout: 5},
	}

	items, err := newTestCollector(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected partial success, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0]["href"] != server.URL+"/d/1" {
		t.Errorf("Unexpected href: %s", items[0]["href"])
	}
}

func TestCollector_Collect_AllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &Config{Name: "down", URL: server.URL, Strategy: StrategyRSS, Settings: ConfigSettings{Timeout: 5}}

	if _, err := newTestCollector(time.Now()).Collect(context.Background(), cfg); err == nil {
		t.Error("Expected error when every URL fails")
	}
}

func TestCollector_Collect_OpenFDANotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND"}}`))
	}))
	defer server.Close()

	cfg := &Config{
		Name:     "openfda",
		URL:      server.URL,
		Strategy: StrategyOpenFDA,
		OpenFDA:  ConfigOpenFDA{Search: "openfda.generic_name:x", Limit: 5},
		Settings: ConfigSettings{Timeout: 5},
	}

	items, err := newTestCollector(time.Now()).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected empty success, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestCollector_Collect_ExtractExcerpt(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<ul><li><a href="/article">Semaglutide warning letter</a></li></ul>`))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articleHTML))
	})

	cfg := &Config{
		Name:      "letters",
		URL:       server.URL + "/list",
		Strategy:  StrategyHTML,
		Selectors: ConfigSelectors{Item: "li", Title: "a", Link: "a"},
		Settings:  ConfigSettings{Timeout: 5, ExtractExcerpt: true},
	}

	items, err := newTestCollector(time.Now()).Collect(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0]["excerpt"] == "" {
		t.Error("Expected excerpt to be extracted from the linked page")
	}
}

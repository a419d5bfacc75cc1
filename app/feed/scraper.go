package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/glp1-survey/app/record"
)

// Scraper extracts list items from an HTML page using CSS selectors.
type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

func (s *Scraper) Run(data []byte, pageURL string, sel ConfigSelectors) ([]record.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)

	var items []record.RawItem
	doc.Find(sel.Item).Each(func(_ int, node *goquery.Selection) {
		raw := record.RawItem{}

		titleNode := node.Find(sel.Title).First()
		raw["title"] = strings.TrimSpace(titleNode.Text())

		linkNode := titleNode.Find("a").First()
		if linkNode.Length() == 0 {
			linkNode = node.Find(sel.Link).First()
		}
		if href, ok := linkNode.Attr("href"); ok {
			raw["href"] = resolveURL(base, href)
			if raw["title"] == "" {
				raw["title"] = strings.TrimSpace(linkNode.Text())
			}
		}

		if sel.Date != "" {
			dateNode := node.Find(sel.Date).First()
			if dt, ok := dateNode.Attr("datetime"); ok {
				raw["date"] = dt
			} else {
				raw["date"] = strings.TrimSpace(dateNode.Text())
			}
		}

		if sel.Excerpt != "" {
			raw["excerpt"] = strings.TrimSpace(node.Find(sel.Excerpt).First().Text())
		}

		items = append(items, raw)
	})

	return items, nil
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/glp1-survey/app/record"
)

// ShortageScraper reads the FDA drug shortage table and keeps the monitored
// drugs whose status matches. A successful read with no matches is a valid,
// empty result.
type ShortageScraper struct{}

func NewShortageScraper() *ShortageScraper {
	return &ShortageScraper{}
}

type shortageRow struct {
	name   string
	status string
	link   string
}

func (s *ShortageScraper) Run(data []byte, pageURL string, cfg ConfigShortage) ([]record.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		// an HTML page without the table is a changed layout, not "no shortages"
		return nil, fmt.Errorf("shortage table not found")
	}

	base, _ := url.Parse(pageURL)

	var rows []shortageRow
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		nameCell := cells.Eq(0)
		link := nameCell.Find("a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		rows = append(rows, shortageRow{
			name:   strings.TrimSpace(link.Text()),
			status: strings.Join(strings.Fields(cells.Eq(1).Text()), " "),
			link:   resolveURL(base, href),
		})
	})

	statusMatch := strings.ToLower(cfg.StatusMatch)
	monitored := append(append([]string{}, cfg.Drugs...), cfg.Brands...)

	var items []record.RawItem
	seen := make(map[string]bool)
	for _, term := range monitored {
		row, ok := findShortageRow(rows, term)
		if !ok || seen[row.name] {
			continue
		}
		if !strings.Contains(strings.ToLower(row.status), statusMatch) {
			continue
		}
		seen[row.name] = true
		items = append(items, record.RawItem{
			"drug_name": row.name,
			"url":       row.link,
			"status":    row.status,
			"category":  string(record.CategoryShortage),
		})
	}

	return items, nil
}

func findShortageRow(rows []shortageRow, term string) (shortageRow, bool) {
	needle := compactName(term)
	if needle == "" {
		return shortageRow{}, false
	}
	for _, row := range rows {
		if strings.Contains(compactName(row.name), needle) {
			return row, true
		}
	}
	return shortageRow{}, false
}

func compactName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lysyi3m/glp1-survey/app/record"
)

// Collector fetches one source and returns its raw items, choosing the
// parser by the source's strategy.
type Collector struct {
	fetcher          *Fetcher
	parser           *Parser
	scraper          *Scraper
	shortageScraper  *ShortageScraper
	openFDA          *OpenFDA
	contentExtractor *ContentExtractor
	now              func() time.Time
}

func NewCollector(fetcher *Fetcher) *Collector {
	return &Collector{
		fetcher:          fetcher,
		parser:           NewParser(),
		scraper:          NewScraper(),
		shortageScraper:  NewShortageScraper(),
		openFDA:          NewOpenFDA(),
		contentExtractor: NewContentExtractor(),
		now:              time.Now,
	}
}

func (c *Collector) Collect(ctx context.Context, sourceConfig *Config) ([]record.RawItem, error) {
	urls := sourceConfig.URLs(c.now())

	var items []record.RawItem
	var errs []error
	for _, u := range urls {
		got, err := c.collectURL(ctx, sourceConfig, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Source URL failed", "source", sourceConfig.Name, "url", u, "error", err)
			errs = append(errs, err)
			continue
		}
		items = append(items, got...)
	}

	// partial success across {year} pages still counts as a fetch
	if len(errs) == len(urls) {
		return nil, errors.Join(errs...)
	}

	if limit := sourceConfig.Settings.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	if sourceConfig.Settings.ExtractExcerpt {
		c.fillExcerpts(ctx, sourceConfig, items)
	}

	return items, nil
}

func (c *Collector) collectURL(ctx context.Context, sourceConfig *Config, u string) ([]record.RawItem, error) {
	timeout := sourceConfig.TimeoutDuration()

	switch sourceConfig.Strategy {
	case StrategyOpenFDA:
		query := map[string]string{
			"search": sourceConfig.OpenFDA.Search,
			"limit":  strconv.Itoa(sourceConfig.OpenFDA.Limit),
		}
		data, err := c.fetcher.Get(ctx, u, query, timeout)
		if err != nil {
			// openFDA answers 404 when a search has no matches
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return []record.RawItem{}, nil
			}
			return nil, err
		}
		return c.openFDA.Run(data)
	}

	data, err := c.fetcher.Get(ctx, u, nil, timeout)
	if err != nil {
		return nil, err
	}

	switch sourceConfig.Strategy {
	case StrategyRSS:
		return c.parser.Run(data)
	case StrategyHTML:
		return c.scraper.Run(data, u, sourceConfig.Selectors)
	case StrategyShortage:
		return c.shortageScraper.Run(data, u, sourceConfig.Shortage)
	default:
		return nil, fmt.Errorf("unknown strategy: %s", sourceConfig.Strategy)
	}
}

// fillExcerpts fetches linked pages for items that have no excerpt.
// Failures leave the item unchanged.
func (c *Collector) fillExcerpts(ctx context.Context, sourceConfig *Config, items []record.RawItem) {
	for _, item := range items {
		if item.First("excerpt", "summary", "description") != "" {
			continue
		}
		link := item.First("href", "link", "url")
		if link == "" {
			continue
		}

		data, err := c.fetcher.Get(ctx, link, nil, sourceConfig.TimeoutDuration())
		if err != nil {
			slog.Debug("Excerpt page fetch failed", "source", sourceConfig.Name, "url", link, "error", err)
			continue
		}

		excerpt, err := c.contentExtractor.Run(data, link)
		if err != nil {
			slog.Debug("Excerpt extraction failed", "source", sourceConfig.Name, "url", link, "error", err)
			continue
		}
		item["excerpt"] = excerpt
	}
}

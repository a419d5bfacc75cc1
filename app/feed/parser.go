package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/glp1-survey/app/record"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS or Atom document into raw items.
func (p *Parser) Run(data []byte) ([]record.RawItem, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]record.RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.rawItem(item))
	}

	return items, nil
}

func (p *Parser) rawItem(item *gofeed.Item) record.RawItem {
	raw := record.RawItem{
		"title":       item.Title,
		"link":        cmp.Or(item.Link, linkFromGUID(item.GUID)),
		"description": item.Description,
		"content":     item.Content,
	}

	switch {
	case item.PublishedParsed != nil:
		raw["published"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		raw["updated"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		raw["date"] = cmp.Or(item.Published, item.Updated)
	}

	if len(item.Categories) > 0 {
		raw["tags"] = strings.Join(item.Categories, ", ")
	}

	return raw
}

// GUIDs are often permalinks; use one when the item has no link.
func linkFromGUID(guid string) string {
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}

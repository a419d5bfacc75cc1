package report

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

// Generator renders the changes of a report as an RSS 2.0 feed: added
// records of every source, plus resolved shortages.
type Generator struct {
	selfLink string
	version  string
}

func NewGenerator(selfLink, version string) *Generator {
	return &Generator{selfLink: selfLink, version: version}
}

func (g *Generator) Run(r *diff.Report, titles map[string]string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no report to generate a feed from")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "GLP-1 Regulatory Survey: changes", 4)
	g.writeElement(&buf, "link", g.selfLink, 4)
	g.writeElement(&buf, "description", "Records added since the previous survey run", 4)

	if g.selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(g.selfLink)))
	}

	g.writeElement(&buf, "lastBuildDate", r.GeneratedAt.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("GLP1-Survey/%s", g.version), 4)

	for _, sd := range r.Sources {
		sourceTitle := cmp.Or(titles[sd.Source], sd.Source)
		for _, e := range sd.Added {
			g.writeItem(&buf, e, string(e.Fingerprint), e.Title, sourceTitle, r.GeneratedAt)
		}
		if sd.Shortage {
			for _, e := range sd.Removed {
				g.writeItem(&buf, e, "resolved:"+string(e.Fingerprint), "Shortage resolved: "+e.Title, sourceTitle, r.GeneratedAt)
			}
		}
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, e snapshot.Entry, guid, title, sourceTitle string, fallback time.Time) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(guid))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", title, 6)
	g.writeElement(buf, "link", e.URL, 6)
	g.writeElement(buf, "description", cmp.Or(e.RawExcerpt, "No description available"), 6)

	published := fallback
	if e.PublishedAt != nil {
		published = *e.PublishedAt
	}
	g.writeElement(buf, "pubDate", published.In(time.Local).Format(time.RFC1123Z), 6)

	g.writeElement(buf, "category", sourceTitle, 6)
	g.writeElement(buf, "category", string(e.Category), 6)
	if len(e.MatchedTerms) > 0 {
		g.writeElement(buf, "category", strings.Join(e.MatchedTerms, ", "), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

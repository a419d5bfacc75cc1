// Package report renders diff reports, search results and run history as
// text, Markdown or JSON.
package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/lysyi3m/glp1-survey/app/database"
	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

const (
	titleWidth = 90
	timeLayout = "2006-01-02 15:04 MST"
	dateLayout = "2006-01-02"
)

// Input is everything a rendered report shows. Titles maps source names
// to display names; Errors holds the fetch error of each stale source.
type Input struct {
	Title   string
	Report  *diff.Report
	Titles  map[string]string
	Errors  map[string]string
	Message string
}

func (in Input) displayName(source string) string {
	return cmp.Or(in.Titles[source], source)
}

type Renderer struct {
	format Format
}

func NewRenderer(format Format) *Renderer {
	return &Renderer{format: format}
}

func (r *Renderer) Format() Format {
	return r.format
}

func (r *Renderer) Render(w io.Writer, in Input) error {
	if in.Report == nil {
		return fmt.Errorf("no report to render")
	}

	switch r.format {
	case FormatJSON:
		return writeJSON(w, newDocument(in))
	case FormatMarkdown:
		return r.renderMarkdown(w, in)
	default:
		return r.renderText(w, in)
	}
}

func (r *Renderer) renderText(w io.Writer, in Input) error {
	var b strings.Builder
	rep := in.Report

	b.WriteString(cmp.Or(in.Title, "GLP-1 Regulatory Survey") + "\n")
	b.WriteString("Generated: " + formatTime(rep.GeneratedAt) + "\n")
	if rep.PreviousTakenAt != nil {
		b.WriteString("Compared with: " + formatTime(*rep.PreviousTakenAt) + "\n")
	} else {
		b.WriteString("Compared with: nothing (first run)\n")
	}
	if in.Message != "" {
		b.WriteString("\n" + in.Message + "\n")
	}
	b.WriteString("\n")

	t := summaryTable(in)
	t.SetStyle(table.StyleLight)
	b.WriteString(t.Render() + "\n")

	for _, s := range rep.Sources {
		fmt.Fprintf(&b, "\n== %s [%s] ==\n", in.displayName(s.Source), s.Status)

		switch s.Status {
		case diff.StatusStale:
			b.WriteString("  Fetch failed")
			if msg := in.Errors[s.Source]; msg != "" {
				b.WriteString(": " + msg)
			}
			fmt.Fprintf(&b, "\n  Carrying %d record(s) from the last successful fetch\n", len(s.Carried))
			writeTextEntries(&b, "~", s.Carried)
			continue
		case diff.StatusEmptyConfirmed:
			b.WriteString("  Confirmed: no current entries\n")
		}

		writeTextSection(&b, "Added", "+", s.Added)
		writeTextSection(&b, "Removed", "-", s.Removed)
		writeTextSection(&b, "Unchanged", "=", s.Unchanged)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextSection(b *strings.Builder, label, marker string, entries []snapshot.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s (%d)\n", label, len(entries))
	writeTextEntries(b, marker, entries)
}

func writeTextEntries(b *strings.Builder, marker string, entries []snapshot.Entry) {
	for _, e := range entries {
		fmt.Fprintf(b, "    %s %-10s  %s\n", marker, formatDate(e.PublishedAt), runewidth.Truncate(e.Title, titleWidth, "…"))
		if e.URL != "" {
			fmt.Fprintf(b, "      %s\n", e.URL)
		}
	}
}

func (r *Renderer) renderMarkdown(w io.Writer, in Input) error {
	var b strings.Builder
	rep := in.Report

	b.WriteString("# " + cmp.Or(in.Title, "GLP-1 Regulatory Survey") + "\n\n")
	b.WriteString("Generated " + formatTime(rep.GeneratedAt))
	if rep.PreviousTakenAt != nil {
		b.WriteString(", compared with " + formatTime(*rep.PreviousTakenAt))
	} else {
		b.WriteString(", first run")
	}
	b.WriteString("\n\n")
	if in.Message != "" {
		b.WriteString("> " + in.Message + "\n\n")
	}

	b.WriteString(summaryTable(in).RenderMarkdown() + "\n")

	for _, s := range rep.Sources {
		fmt.Fprintf(&b, "\n## %s (`%s`)\n", in.displayName(s.Source), s.Status)

		switch s.Status {
		case diff.StatusStale:
			b.WriteString("\nFetch failed")
			if msg := in.Errors[s.Source]; msg != "" {
				b.WriteString(": " + msg)
			}
			b.WriteString(". Showing the last known records.\n")
			writeMarkdownSection(&b, "Carried", s.Carried)
			continue
		case diff.StatusEmptyConfirmed:
			b.WriteString("\nConfirmed: no current entries.\n")
		}

		writeMarkdownSection(&b, "Added", s.Added)
		writeMarkdownSection(&b, "Removed", s.Removed)
		writeMarkdownSection(&b, "Unchanged", s.Unchanged)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownSection(b *strings.Builder, label string, entries []snapshot.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", label)
	for _, e := range entries {
		b.WriteString("- " + markdownLink(e.Title, e.URL))
		if e.PublishedAt != nil {
			b.WriteString(" (" + formatDate(e.PublishedAt) + ")")
		}
		b.WriteString("\n")
	}
}

func markdownLink(title, url string) string {
	title = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(title)
	if url == "" {
		return title
	}
	return "[" + title + "](" + url + ")"
}

func summaryTable(in Input) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Source", "Status", "Added", "Removed", "Unchanged", "Carried"})
	for _, s := range in.Report.Sources {
		t.AppendRow(table.Row{in.displayName(s.Source), s.Status, len(s.Added), len(s.Removed), len(s.Unchanged), len(s.Carried)})
	}
	totals := in.Report.Totals()
	t.AppendFooter(table.Row{"Total", strconv.Itoa(totals.Stale) + " stale", totals.Added, totals.Removed, totals.Unchanged, ""})
	return t
}

// RenderRecords renders a flat record list, as returned by a search.
func (r *Renderer) RenderRecords(w io.Writer, title string, entries []snapshot.Entry) error {
	if r.format == FormatJSON {
		if entries == nil {
			entries = []snapshot.Entry{}
		}
		return writeJSON(w, entries)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Published", "Source", "Title", "URL"})
	for _, e := range entries {
		t.AppendRow(table.Row{formatDate(e.PublishedAt), e.Source, runewidth.Truncate(e.Title, titleWidth, "…"), e.URL})
	}

	var out string
	if r.format == FormatMarkdown {
		out = "# " + title + "\n\n" + t.RenderMarkdown() + "\n"
	} else {
		t.SetStyle(table.StyleLight)
		out = title + "\n" + t.Render() + "\n"
	}
	if len(entries) == 0 {
		out += "No matching records.\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

// RenderRuns renders survey run history, newest first.
func (r *Renderer) RenderRuns(w io.Writer, runs []database.RunSummary) error {
	if r.format == FormatJSON {
		if runs == nil {
			runs = []database.RunSummary{}
		}
		return writeJSON(w, runs)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Status", "Reachable", "Message"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			formatTime(run.StartedAt),
			run.Duration().Round(time.Millisecond).String(),
			run.Status,
			fmt.Sprintf("%d/%d", run.Reachable, run.TotalSources),
			run.Message,
		})
	}

	var out string
	if r.format == FormatMarkdown {
		out = t.RenderMarkdown() + "\n"
	} else {
		t.SetStyle(table.StyleLight)
		out = t.Render() + "\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format(timeLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(time.Local).Format(dateLayout)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

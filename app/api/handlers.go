package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/glp1-survey/app/database"
	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/report"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
	"github.com/lysyi3m/glp1-survey/app/survey"
)

const defaultRunsLimit = 20

func NewHandler(configCache *feed.ConfigCache, service SurveyService, version string) *Handler {
	return &Handler{
		service:     service,
		configCache: configCache,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"status":                "ok",
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"version":               h.version,
		"loaded_configurations": h.configCache.GetConfigCount(),
		"enabled_sources":       len(h.configCache.GetEnabledConfigs()),
	}

	if runs, err := h.service.Runs(c.Request.Context(), 1); err == nil && len(runs) > 0 {
		health["last_run"] = runs[0]
	}

	c.JSON(http.StatusOK, health)
}

// GetChangesFeed serves the last report's changes as RSS.
func (h *Handler) GetChangesFeed(c *gin.Context) {
	last, err := h.service.LastDiff(c.Request.Context())
	if errors.Is(err, database.ErrNoReport) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No survey has been run yet"})
		return
	}
	if err != nil {
		slog.Error("Failed to load last report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load last report"})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	selfLink := fmt.Sprintf("%s://%s/feeds/changes", scheme, c.Request.Host)

	rss, err := report.NewGenerator(selfLink, h.version).Run(last, h.service.Titles())
	if err != nil {
		slog.Error("Failed to generate changes feed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate feed"})
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("Cache-Control", "public, max-age=300")
	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetOrderedConfigs()

	sources := make([]map[string]any, 0, len(configs))
	for _, sourceConfig := range configs {
		sources = append(sources, map[string]any{
			"name":      sourceConfig.Name,
			"title":     sourceConfig.DisplayName(),
			"url":       sourceConfig.URL,
			"strategy":  sourceConfig.Strategy,
			"category":  sourceConfig.RecordCategory(),
			"enabled":   sourceConfig.Settings.Enabled,
			"max_items": sourceConfig.Settings.MaxItems,
			"timeout":   sourceConfig.TimeoutDuration().String(),
			"filters":   len(sourceConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, map[string]any{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIGetLastDiff(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}

	last, err := h.service.LastDiff(c.Request.Context())
	if errors.Is(err, database.ErrNoReport) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No survey has been run yet"})
		return
	}
	if err != nil {
		slog.Error("Failed to load last report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load last report"})
		return
	}

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, last)
		return
	}
	h.render(c, http.StatusOK, format, func(r *report.Renderer, buf *bytes.Buffer) error {
		return r.Render(buf, report.Input{Title: "Last survey diff", Report: last, Titles: h.service.Titles()})
	})
}

func (h *Handler) APISearch(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}

	query := c.Query("q")
	drug := c.Query("drug")
	if query == "" && drug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide q and/or drug query parameters"})
		return
	}

	result, err := h.service.Search(c.Request.Context(), h.service.Filter(query, drug))
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No snapshot yet, run a survey first"})
		return
	}
	if err != nil {
		slog.Error("Search failed", "query", query, "drug", drug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed", "details": err.Error()})
		return
	}

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, gin.H{
			"query":    query,
			"drug":     drug,
			"taken_at": result.TakenAt,
			"total":    len(result.Records),
			"records":  result.Records,
		})
		return
	}
	h.render(c, http.StatusOK, format, func(r *report.Renderer, buf *bytes.Buffer) error {
		return r.RenderRecords(buf, "Search results", result.Records)
	})
}

func (h *Handler) APIShortage(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}

	sourceName := c.Param("source")
	result, err := h.service.Shortage(c.Request.Context(), sourceName, c.Query("drug"))
	if errors.Is(err, feed.ErrUnknownSource) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found", "details": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Shortage check failed", "source", sourceName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shortage check failed"})
		return
	}

	if format == report.FormatJSON {
		c.JSON(http.StatusOK, result)
		return
	}
	in := report.Input{
		Title:  "Shortage check",
		Report: result.Report,
		Titles: h.service.Titles(),
	}
	if result.Error != "" {
		in.Errors = map[string]string{result.Source: result.Error}
	}
	h.render(c, http.StatusOK, format, func(r *report.Renderer, buf *bytes.Buffer) error {
		return r.Render(buf, in)
	})
}

func (h *Handler) APIRunSurvey(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}

	result, err := h.service.Run(c.Request.Context())

	status := http.StatusOK
	message := ""
	var writeErr *snapshot.SnapshotWriteError
	switch {
	case err == nil:
	case errors.Is(err, survey.ErrNoSourcesReachable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	case errors.As(err, &writeErr):
		status = http.StatusInternalServerError
		message = err.Error()
	default:
		slog.Error("Survey failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Survey failed", "details": err.Error()})
		return
	}

	if format == report.FormatJSON {
		c.JSON(status, gin.H{
			"run_id":         result.RunID,
			"message":        message,
			"reachable":      result.Reachable,
			"snapshot_saved": result.SnapshotSaved,
			"statuses":       result.Statuses,
			"totals":         result.Report.Totals(),
			"report":         result.Report,
		})
		return
	}
	h.render(c, status, format, func(r *report.Renderer, buf *bytes.Buffer) error {
		return r.Render(buf, report.Input{
			Report:  result.Report,
			Titles:  h.service.Titles(),
			Errors:  result.Errors(),
			Message: message,
		})
	})
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.service.Runs(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	if runs == nil {
		runs = []database.RunSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// format reads the format query parameter; JSON unless asked otherwise.
func (h *Handler) format(c *gin.Context) (report.Format, bool) {
	raw := c.DefaultQuery("format", string(report.FormatJSON))
	format, err := report.ParseFormat(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return format, true
}

func (h *Handler) render(c *gin.Context, status int, format report.Format, fn func(*report.Renderer, *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(report.NewRenderer(format), &buf); err != nil {
		slog.Error("Rendering failed", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rendering failed"})
		return
	}
	c.Data(status, format.ContentType(), buf.Bytes())
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/glp1-survey/app/api"
	"github.com/lysyi3m/glp1-survey/app/cfg"
	"github.com/lysyi3m/glp1-survey/app/report"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
	"github.com/lysyi3m/glp1-survey/app/survey"
)

type surveyCommand struct {
	Output string `long:"output" short:"o" description:"Write the report to a file instead of stdout"`

	opts *cfg.Options
}

func (c *surveyCommand) Execute(_ []string) error {
	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := rt.service.Run(ctx)

	var writeErr *snapshot.SnapshotWriteError
	message := ""
	if errors.Is(runErr, survey.ErrNoSourcesReachable) || errors.As(runErr, &writeErr) {
		message = runErr.Error()
	} else if runErr != nil {
		return runErr
	}

	w, closeOutput, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer closeOutput()

	renderer := report.NewRenderer(report.Format(rt.cfg.Format))
	if err := renderer.Render(w, report.Input{
		Report:  result.Report,
		Titles:  rt.service.Titles(),
		Errors:  result.Errors(),
		Message: message,
	}); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if c.Output != "" {
		slog.Info("Report written", "path", c.Output)
	}
	return runErr
}

type searchCommand struct {
	Drug string `long:"drug" short:"d" description:"Only records naming this drug or one of its brands"`
	Args struct {
		Query string `positional-arg-name:"QUERY" description:"Free-text query"`
	} `positional-args:"yes"`

	opts *cfg.Options
}

func (c *searchCommand) Execute(_ []string) error {
	if c.Args.Query == "" && c.Drug == "" {
		return errors.New("provide a query and/or --drug")
	}

	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.service.Search(context.Background(), rt.service.Filter(c.Args.Query, c.Drug))
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return errors.New("no snapshot yet, run a survey first")
		}
		return err
	}

	title := fmt.Sprintf("Search results (snapshot %s)", result.TakenAt.In(time.Local).Format(time.RFC3339))
	return report.NewRenderer(report.Format(rt.cfg.Format)).RenderRecords(os.Stdout, title, result.Records)
}

type shortageCommand struct {
	Drug string `long:"drug" short:"d" description:"Only shortages naming this drug or one of its brands"`
	Args struct {
		Source string `positional-arg-name:"SOURCE" description:"Shortage source name (defaults to the configured shortage source)"`
	} `positional-args:"yes"`

	opts *cfg.Options
}

func (c *shortageCommand) Execute(_ []string) error {
	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := rt.service.Shortage(ctx, c.Args.Source, c.Drug)
	if err != nil {
		return err
	}

	in := report.Input{
		Title:  "Shortage check: " + result.Title,
		Report: result.Report,
		Titles: rt.service.Titles(),
	}
	if result.Error != "" {
		in.Errors = map[string]string{result.Source: result.Error}
	}
	return report.NewRenderer(report.Format(rt.cfg.Format)).Render(os.Stdout, in)
}

type lastDiffCommand struct {
	opts *cfg.Options
}

func (c *lastDiffCommand) Execute(_ []string) error {
	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	last, err := rt.service.LastDiff(context.Background())
	if err != nil {
		return err
	}

	return report.NewRenderer(report.Format(rt.cfg.Format)).Render(os.Stdout, report.Input{
		Title:  "Last survey diff",
		Report: last,
		Titles: rt.service.Titles(),
	})
}

type runsCommand struct {
	Limit int `long:"limit" short:"n" default:"20" description:"Number of runs to list"`

	opts *cfg.Options
}

func (c *runsCommand) Execute(_ []string) error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", c.Limit)
	}

	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	runs, err := rt.service.Runs(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	return report.NewRenderer(report.Format(rt.cfg.Format)).RenderRuns(os.Stdout, runs)
}

type serveCommand struct {
	opts *cfg.Options
}

func (c *serveCommand) Execute(_ []string) error {
	rt, err := newRuntime(c.opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	slog.Info("Starting GLP-1 survey server", "version", rt.cfg.Version)

	handler := api.NewHandler(rt.configs, rt.service, rt.cfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + rt.cfg.Port,
		Handler:      api.NewServer(handler, rt.cfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", rt.cfg.Port, "sources", len(rt.configs.GetEnabledConfigs()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Server shutdown complete")

	return serveErr
}

type versionCommand struct{}

func (c *versionCommand) Execute(_ []string) error {
	fmt.Println("glp1-survey " + cfg.GetVersion())
	return nil
}

// openOutput returns stdout for an empty path, or a created file.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close output file", "path", path, "error", err)
		}
	}, nil
}

package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	SnapshotFile = "snapshot.json"
	DBFile       = "survey.db"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func FromOptions(opts *Options) (*Cfg, error) {
	if opts.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", opts.WorkerCount)
	}
	if opts.RequestDelay < 0 {
		return nil, fmt.Errorf("request delay must not be negative, got %d", opts.RequestDelay)
	}
	if opts.CacheTTL < 0 {
		return nil, fmt.Errorf("cache TTL must not be negative, got %d", opts.CacheTTL)
	}

	cfg := &Cfg{
		SourcesDir:   opts.SourcesDir,
		TermsFile:    opts.TermsFile,
		DataDir:      opts.DataDir,
		SnapshotPath: filepath.Join(opts.DataDir, SnapshotFile),
		DBPath:       filepath.Join(opts.DataDir, DBFile),
		WorkerCount:  opts.WorkerCount,
		RequestDelay: time.Duration(opts.RequestDelay) * time.Millisecond,
		UserAgent:    opts.UserAgent,
		CacheTTL:     time.Duration(opts.CacheTTL) * time.Second,
		RedisURL:     opts.RedisURL,
		Format:       opts.Format,
		Port:         opts.Port,
		APIAccessKey: opts.APIAccessKey,
		Timezone:     opts.Timezone,
		Debug:        opts.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

// SetupLogging installs the default slog text logger on stderr.
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	slog.Debug("Timezone configured", "timezone", timezone)
	return nil
}

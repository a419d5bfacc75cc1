package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/glp1-survey/app/cache"
	"github.com/lysyi3m/glp1-survey/app/cfg"
	"github.com/lysyi3m/glp1-survey/app/database"
	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
	"github.com/lysyi3m/glp1-survey/app/survey"
	"github.com/lysyi3m/glp1-survey/app/tasks"
)

const (
	fetchRetries      = 2
	fetchRetryWait    = 2 * time.Second
	fetchRetryMaxWait = 10 * time.Second
)

// runtime holds the components every command shares.
type runtime struct {
	cfg     *cfg.Cfg
	configs *feed.ConfigCache
	service *survey.Service
	cache   cache.Cache
	db      *sql.DB
}

func newRuntime(opts *cfg.Options) (*runtime, error) {
	appConfig, err := cfg.FromOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging(appConfig.Debug)

	slog.Debug("Loading source configurations", "dir", appConfig.SourcesDir)
	configs := feed.NewConfigCache(appConfig.SourcesDir)
	if err := configs.Run(); err != nil {
		return nil, fmt.Errorf("failed to load source configurations: %w", err)
	}
	slog.Debug("Source configurations loaded", "count", configs.GetConfigCount())

	terms, err := feed.LoadTerms(appConfig.TermsFile)
	if err != nil {
		return nil, err
	}

	var responseCache cache.Cache
	if appConfig.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(appConfig.RedisURL)
		if err != nil {
			return nil, err
		}
		responseCache = redisCache
	} else {
		responseCache = cache.NewMemoryCache()
	}

	fetcher := feed.NewFetcher(feed.FetcherOptions{
		UserAgent:    appConfig.UserAgent,
		RequestDelay: appConfig.RequestDelay,
		Retries:      fetchRetries,
		RetryWait:    fetchRetryWait,
		RetryMaxWait: fetchRetryMaxWait,
		Cache:        responseCache,
		CacheTTL:     appConfig.CacheTTL,
	})

	db, err := database.Open(appConfig.DBPath)
	if err != nil {
		responseCache.Close()
		return nil, err
	}

	service := survey.NewService(survey.Deps{
		Configs:   configs,
		Collector: feed.NewCollector(fetcher),
		Pool:      tasks.NewPool(appConfig.WorkerCount),
		Terms:     terms,
		Store:     snapshot.NewStore(appConfig.SnapshotPath),
		Reports:   database.NewRunRepository(db),
	})

	return &runtime{
		cfg:     appConfig,
		configs: configs,
		service: service,
		cache:   responseCache,
		db:      db,
	}, nil
}

func (r *runtime) Close() {
	if err := r.cache.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
	if err := r.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

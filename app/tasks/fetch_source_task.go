package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/record"
)

// FetchSourceTask collects the raw items of one source.
type FetchSourceTask struct {
	SourceConfig *feed.Config
	Items        []record.RawItem

	info      Info
	collector Collector
}

func NewFetchSourceTask(sourceConfig *feed.Config, collector Collector) *FetchSourceTask {
	return &FetchSourceTask{
		SourceConfig: sourceConfig,
		info:         NewInfo(KindFetchSource, sourceConfig.Name, sourceConfig.Settings.Retries),
		collector:    collector,
	}
}

func (t *FetchSourceTask) Info() *Info {
	return &t.info
}

func (t *FetchSourceTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &feed.FetchError{Source: t.info.Source, Err: err}
	}

	items, err := t.collector.Collect(ctx, t.SourceConfig)
	if err != nil {
		return &feed.FetchError{Source: t.info.Source, Err: err}
	}

	t.Items = items

	slog.Info("Source fetched", t.info.logAttrs("elapsed", t.info.Elapsed(), "items", len(items))...)

	return nil
}

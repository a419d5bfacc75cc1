package tasks

import (
	"context"

	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/record"
)

// Collector fetches and parses one source into raw items.
// Implemented by feed.Collector; tests substitute fakes.
type Collector interface {
	Collect(ctx context.Context, sourceConfig *feed.Config) ([]record.RawItem, error)
}

var _ Collector = (*feed.Collector)(nil)

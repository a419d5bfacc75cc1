package api

import (
	"context"

	"github.com/lysyi3m/glp1-survey/app/database"
	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/report"
	"github.com/lysyi3m/glp1-survey/app/survey"
)

// SurveyService is the set of command operations the API exposes.
type SurveyService interface {
	Run(ctx context.Context) (*survey.Result, error)
	Filter(query, drug string) report.Filter
	Search(ctx context.Context, filter report.Filter) (*survey.SearchResult, error)
	Shortage(ctx context.Context, sourceName, drug string) (*survey.ShortageResult, error)
	LastDiff(ctx context.Context) (*diff.Report, error)
	Runs(ctx context.Context, limit int) ([]database.RunSummary, error)
	Titles() map[string]string
}

var _ SurveyService = (*survey.Service)(nil)

type Handler struct {
	service     SurveyService
	configCache *feed.ConfigCache
	version     string
}

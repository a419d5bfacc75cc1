package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/glp1-survey/app/record"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops records rejected by the source's include/exclude rules and
// returns the survivors with the number dropped.
func (f *Filterer) Run(records []record.Record, sourceConfig *Config) ([]record.Record, int) {
	if len(sourceConfig.Filters) == 0 {
		return records, 0
	}

	kept := make([]record.Record, 0, len(records))
	for _, r := range records {
		if isFiltered, filterReason := f.applyFilters(r, sourceConfig.Filters); isFiltered {
			slog.Debug("Record filtered", "source", sourceConfig.Name, "title", r.Title, "reason", filterReason)
			continue
		}
		kept = append(kept, r)
	}

	return kept, len(records) - len(kept)
}

func (f *Filterer) applyFilters(r record.Record, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(r, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(r record.Record, field string) string {
	switch field {
	case "title":
		return r.Title
	case "excerpt":
		return r.RawExcerpt
	case "url":
		return r.URL
	case "category":
		return string(r.Category)
	default:
		return ""
	}
}

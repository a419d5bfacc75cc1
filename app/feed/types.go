package feed

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/glp1-survey/app/record"
)

type Strategy string

const (
	StrategyRSS      Strategy = "rss"
	StrategyHTML     Strategy = "html"
	StrategyShortage Strategy = "shortage"
	StrategyOpenFDA  Strategy = "openfda"
)

// Configuration types

type Config struct {
	Name      string          `yaml:"-"` // Derived from filename (without .yml extension)
	Title     string          `yaml:"title"`
	URL       string          `yaml:"url"`
	Strategy  Strategy        `yaml:"strategy"`
	Category  string          `yaml:"category"`
	Settings  ConfigSettings  `yaml:"settings"`
	Selectors ConfigSelectors `yaml:"selectors"`
	Shortage  ConfigShortage  `yaml:"shortage"`
	OpenFDA   ConfigOpenFDA   `yaml:"openfda"`
	Filters   []ConfigFilter  `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool  `yaml:"enabled"`
	Order          int   `yaml:"order"`
	MaxItems       int   `yaml:"max_items"`
	Timeout        int   `yaml:"timeout"` // seconds
	Retries        int   `yaml:"retries"`
	MatchTerms     *bool `yaml:"match_terms"` // defaults to true for rss and html
	ExtractExcerpt bool  `yaml:"extract_excerpt"`
	Years          int   `yaml:"years"` // {year} expansion depth
}

type ConfigSelectors struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Date    string `yaml:"date"`
	Excerpt string `yaml:"excerpt"`
}

type ConfigShortage struct {
	Drugs       []string `yaml:"drugs"`
	Brands      []string `yaml:"brands"`
	StatusMatch string   `yaml:"status_match"`
}

type ConfigOpenFDA struct {
	Search string `yaml:"search"`
	Limit  int    `yaml:"limit"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func (c *Config) DisplayName() string {
	return cmp.Or(c.Title, c.Name)
}

func (c *Config) IsShortage() bool {
	return c.Strategy == StrategyShortage
}

// MatchesTerms reports whether records must hit the relevance terms to be kept.
func (c *Config) MatchesTerms() bool {
	if c.Settings.MatchTerms != nil {
		return *c.Settings.MatchTerms
	}
	return c.Strategy == StrategyRSS || c.Strategy == StrategyHTML
}

func (c *Config) RecordCategory() record.Category {
	return record.ParseCategory(c.Category)
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Settings.Timeout) * time.Second
}

// URLs expands a {year} placeholder into one URL per year, newest first.
func (c *Config) URLs(now time.Time) []string {
	if !strings.Contains(c.URL, "{year}") {
		return []string{c.URL}
	}

	years := max(c.Settings.Years, 1)
	urls := make([]string, 0, years)
	for i := range years {
		year := strconv.Itoa(now.Year() - i)
		urls = append(urls, strings.ReplaceAll(c.URL, "{year}", year))
	}
	return urls
}

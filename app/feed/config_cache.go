package feed

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxItems     = 50
	DefaultTimeout      = 30
	DefaultRetries      = 3
	DefaultStatusMatch  = "currently in shortage"
	DefaultOpenFDALimit = 10

	DefaultItemSelector  = "article, .news-item, .card"
	DefaultTitleSelector = "h2, h3, .title"
	DefaultLinkSelector  = "a"
	DefaultDateSelector  = "time, .date"
)

type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		sourceName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "source", sourceName, "strategy", config.Strategy, "enabled", config.Settings.Enabled)
	}

	return cc.validateSet()
}

func (cc *ConfigCache) LoadConfig(sourceName string) (*Config, error) {
	configFile := cc.getConfigFilePath(sourceName)
	sourceConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Name = sourceName

	if err := cc.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.Add(sourceConfig)

	return sourceConfig, nil
}

// Add registers a config directly, bypassing the file system.
func (cc *ConfigCache) Add(sourceConfig *Config) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[sourceConfig.Name] = sourceConfig
}

func (cc *ConfigCache) GetConfig(sourceName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	sourceConfig, ok := cc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownSource, sourceName)
	}
	return sourceConfig, nil
}

// GetOrderedConfigs returns every config sorted by settings.order, then name.
// This is the report order.
func (cc *ConfigCache) GetOrderedConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*Config, 0, len(cc.cache))
	for _, v := range cc.cache {
		configs = append(configs, v)
	}
	slices.SortFunc(configs, func(a, b *Config) int {
		return cmp.Or(cmp.Compare(a.Settings.Order, b.Settings.Order), cmp.Compare(a.Name, b.Name))
	})
	return configs
}

func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	all := cc.GetOrderedConfigs()
	enabled := make([]*Config, 0, len(all))
	for _, v := range all {
		if v.Settings.Enabled {
			enabled = append(enabled, v)
		}
	}
	return enabled
}

// GetShortageConfig returns the enabled shortage-strategy source, if any.
func (cc *ConfigCache) GetShortageConfig() (*Config, bool) {
	for _, v := range cc.GetEnabledConfigs() {
		if v.IsShortage() {
			return v, true
		}
	}
	return nil, false
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Keys absent from the file keep these; an explicit 0 overrides them.
	sourceConfig := Config{Settings: ConfigSettings{
		MaxItems: DefaultMaxItems,
		Timeout:  DefaultTimeout,
		Retries:  DefaultRetries,
	}}
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&sourceConfig)

	return &sourceConfig, nil
}

func applyDefaults(c *Config) {
	c.Strategy = Strategy(strings.ToLower(string(c.Strategy)))
	if c.Strategy == "" {
		c.Strategy = StrategyRSS
	}

	if c.Settings.MaxItems == 0 {
		c.Settings.MaxItems = DefaultMaxItems
	}
	if c.Settings.Years == 0 && strings.Contains(c.URL, "{year}") {
		c.Settings.Years = 1
	}

	switch c.Strategy {
	case StrategyHTML:
		c.Selectors.Item = cmp.Or(c.Selectors.Item, DefaultItemSelector)
		c.Selectors.Title = cmp.Or(c.Selectors.Title, DefaultTitleSelector)
		c.Selectors.Link = cmp.Or(c.Selectors.Link, DefaultLinkSelector)
		c.Selectors.Date = cmp.Or(c.Selectors.Date, DefaultDateSelector)
		c.Category = cmp.Or(c.Category, "news")
	case StrategyShortage:
		c.Shortage.StatusMatch = cmp.Or(c.Shortage.StatusMatch, DefaultStatusMatch)
		c.Category = cmp.Or(c.Category, "shortage")
	case StrategyOpenFDA:
		if c.OpenFDA.Limit == 0 {
			c.OpenFDA.Limit = DefaultOpenFDALimit
		}
		c.Category = cmp.Or(c.Category, "approval")
	default:
		c.Category = cmp.Or(c.Category, "news")
	}
}

func (cc *ConfigCache) validateConfig(sourceConfig *Config) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	requiredFields := map[string]string{
		"source name": sourceConfig.Name,
		"source URL":  sourceConfig.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"max items": sourceConfig.Settings.MaxItems,
		"timeout":   sourceConfig.Settings.Timeout,
		"retries":   sourceConfig.Settings.Retries,
		"years":     sourceConfig.Settings.Years,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	switch sourceConfig.Strategy {
	case StrategyRSS, StrategyHTML:
	case StrategyShortage:
		if len(sourceConfig.Shortage.Drugs) == 0 && len(sourceConfig.Shortage.Brands) == 0 {
			return fmt.Errorf("shortage source must list at least one drug or brand")
		}
	case StrategyOpenFDA:
		if sourceConfig.OpenFDA.Search == "" {
			return fmt.Errorf("openfda source requires a search expression")
		}
	default:
		return fmt.Errorf("unknown strategy: %s", sourceConfig.Strategy)
	}

	validFields := map[string]bool{
		"title":    true,
		"excerpt":  true,
		"url":      true,
		"category": true,
	}

	for i, filter := range sourceConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

// validateSet checks rules that span sources.
func (cc *ConfigCache) validateSet() error {
	var shortage []string
	for _, c := range cc.GetEnabledConfigs() {
		if c.IsShortage() {
			shortage = append(shortage, c.Name)
		}
	}
	if len(shortage) > 1 {
		return fmt.Errorf("only one enabled shortage source is allowed, found %s", strings.Join(shortage, ", "))
	}
	return nil
}

func (cc *ConfigCache) getConfigFilePath(sourceName string) string {
	return filepath.Join(cc.sourcesDir, sourceName+".yml")
}

package cfg

import (
	"time"
)

// Options are the command-line flags shared by every command. Each flag can
// also come from the environment or a .env file.
type Options struct {
	SourcesDir   string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	TermsFile    string `long:"terms-file" env:"TERMS_FILE" default:"./terms.yml" description:"Relevance terms file (built-in terms when missing)"`
	DataDir      string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the snapshot file and run history database"`
	Format       string `long:"format" env:"FORMAT" default:"text" choice:"text" choice:"markdown" choice:"json" description:"Output format"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of sources fetched concurrently"`
	RequestDelay int    `long:"request-delay" env:"REQUEST_DELAY" default:"1000" description:"Minimum delay between outgoing requests in milliseconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"GLP1-Survey/1.0" description:"User agent string for HTTP requests"`
	CacheTTL     int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Response cache lifetime in seconds (0 disables caching)"`
	RedisURL     string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for the response cache (in-memory cache when empty)"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Timezone     string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Tokyo)"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type Cfg struct {
	// Storage
	SourcesDir   string
	TermsFile    string
	DataDir      string
	SnapshotPath string
	DBPath       string

	// Fetching
	WorkerCount  int
	RequestDelay time.Duration
	UserAgent    string
	CacheTTL     time.Duration
	RedisURL     string

	// Output and server
	Format       string
	Port         string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	APIKey            string // YouTube Data API v3 key
	APIKeyFallback    string // secondary key, used on quota errors
	HuggingFaceToken  string // HF Inference API token; empty = anonymous quota
	PreferredLanguage string // default transcript language code
	MaxComments       int    // cap on fetched top-level comments
	MaxRetries        int    // per-tier transcript fetch attempts

	OutputDir   string // per-job artifact directories live under here
	HistoryPath string // SQLite archive; empty = ~/.go_tube/history.db

	FetchTimeout         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch-page scraping uses HTTPClient only
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, analysis, webserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}

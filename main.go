// go_tube — YouTube video analysis service.
//
// Accepts a video URL, resolves the transcript with tiered fallbacks,
// classifies segment emotions and comment sentiment, extracts keywords and
// renders CSV/chart artifacts. Jobs run in the background behind a small
// HTTP API; completed runs are archived in SQLite.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/webserver"
)

var (
	version = "dev"
	port    = env.Str("PORT", "8892")
)

func main() {
	initEngine()

	slog.Info("starting go_tube",
		slog.String("version", version),
		slog.String("port", port),
	)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      webserver.NewServer().Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", slog.Any("error", err))
		}
	}
}

func initEngine() {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)
	c := engine.Config{
		APIKey:               env.Str("YOUTUBE_API_KEY", ""),
		APIKeyFallback:       env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		HuggingFaceToken:     env.Str("HF_TOKEN", ""),
		PreferredLanguage:    env.Str("PREFERRED_LANGUAGE", "en"),
		MaxComments:          env.Int("MAX_COMMENTS", 100),
		MaxRetries:           env.Int("TRANSCRIPT_MAX_RETRIES", 3),
		OutputDir:            env.Str("OUT_DIR", "data"),
		HistoryPath:          env.Str("HISTORY_PATH", ""),
		FetchTimeout:         fetchTimeout,
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if env.Str("BROWSER_CLIENT", "1") != "0" {
		bc, err := engine.NewBrowserClient()
		if err != nil {
			slog.Warn("browser client init failed, watch-page fetches use plain HTTP", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("browser client initialized")
		}
	}

	if c.APIKey == "" {
		slog.Warn("YOUTUBE_API_KEY not set: video details and comments disabled")
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		slog.Error("output dir unavailable", slog.String("dir", c.OutputDir), slog.Any("error", err))
		os.Exit(1)
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

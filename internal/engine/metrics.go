package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AnalyzeJobs         atomic.Int64
	TranscriptRequests  atomic.Int64
	TranscriptFallbacks atomic.Int64
	TranscriptFailures  atomic.Int64
	DataAPIRequests     atomic.Int64
	CommentPages        atomic.Int64
	ClassifyRequests    atomic.Int64
	ClassifyErrors      atomic.Int64
	KeywordRuns         atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"analyze_jobs":         metrics.AnalyzeJobs.Load(),
		"transcript_requests":  metrics.TranscriptRequests.Load(),
		"transcript_fallbacks": metrics.TranscriptFallbacks.Load(),
		"transcript_failures":  metrics.TranscriptFailures.Load(),
		"data_api_requests":    metrics.DataAPIRequests.Load(),
		"comment_pages":        metrics.CommentPages.Load(),
		"classify_requests":    metrics.ClassifyRequests.Load(),
		"classify_errors":      metrics.ClassifyErrors.Load(),
		"keyword_runs":         metrics.KeywordRuns.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"analyze_jobs",
		"transcript_requests", "transcript_fallbacks", "transcript_failures",
		"data_api_requests", "comment_pages",
		"classify_requests", "classify_errors",
		"keyword_runs",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the webserver package.
func IncrAnalyzeJobs() { metrics.AnalyzeJobs.Add(1) }

// Incrementors for the sources sub-package.
func IncrTranscriptRequests()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFallbacks() { metrics.TranscriptFallbacks.Add(1) }
func IncrTranscriptFailures()  { metrics.TranscriptFailures.Add(1) }
func IncrDataAPIRequests()     { metrics.DataAPIRequests.Add(1) }
func IncrCommentPages()        { metrics.CommentPages.Add(1) }

// Incrementors for the analysis sub-package.
func IncrClassifyRequests() { metrics.ClassifyRequests.Add(1) }
func IncrClassifyErrors()   { metrics.ClassifyErrors.Add(1) }
func IncrKeywordRuns()      { metrics.KeywordRuns.Add(1) }

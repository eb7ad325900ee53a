package webserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anatolykoptev/go_tube/internal/analysis"
	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
	"github.com/anatolykoptev/go_tube/internal/report"
	"github.com/anatolykoptev/go_tube/internal/store"
)

// ResultDoc is the complete output of one analysis run.
type ResultDoc struct {
	VideoID   string                      `json:"video_id"`
	Title     string                      `json:"title"`
	Channel   string                      `json:"channel,omitempty"`
	Language  string                      `json:"language"`
	Degraded  bool                        `json:"degraded"`
	Reason    string                      `json:"reason,omitempty"`
	Segments  []analysis.SegmentEmotion   `json:"segments"`
	Keywords  []analysis.Keyword          `json:"keywords"`
	Comments  []analysis.CommentSentiment `json:"comments"`
	Artifacts []string                    `json:"artifacts"`
}

// Pipeline runs the full analysis for one video: metadata, comments,
// transcript resolution, classification, keywords and report artifacts.
type Pipeline struct {
	resolver  *sources.Resolver
	emotion   *analysis.Classifier
	sentiment *analysis.Classifier
	outputDir string
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		resolver:  sources.NewResolver(sources.NewInnertubeProvider()),
		emotion:   analysis.NewEmotionClassifier(),
		sentiment: analysis.NewSentimentClassifier(),
		outputDir: engine.Cfg.OutputDir,
	}
}

// Run executes the pipeline. Only an unparseable URL is an error: upstream
// failures degrade to partial results so a submitted job always completes.
func (p *Pipeline) Run(ctx context.Context, videoURL, language string) (*ResultDoc, error) {
	videoID := sources.ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("no video id in %q", videoURL)
	}
	lang := engine.NormLang(language)

	cacheKey := engine.CacheKey("analysis", videoID, lang)
	if cached, ok := engine.CacheLoadJSON[*ResultDoc](ctx, cacheKey); ok {
		slog.Info("analysis served from cache", slog.String("video_id", videoID))
		return cached, nil
	}

	engine.IncrAnalyzeJobs()
	slog.Info("analysis started",
		slog.String("video_id", videoID), slog.String("language", lang))

	details, err := sources.FetchVideoDetails(ctx, videoID)
	if err != nil {
		slog.Warn("video details unavailable", slog.String("video_id", videoID), slog.Any("error", err))
		details = engine.VideoDetails{ID: videoID}
	}

	comments, err := sources.FetchComments(ctx, videoID, engine.Cfg.MaxComments)
	if err != nil {
		slog.Warn("comments unavailable", slog.String("video_id", videoID), slog.Any("error", err))
		comments = nil
	}

	resolved := p.resolver.Resolve(ctx, videoID, lang, engine.Cfg.MaxRetries)
	if resolved.Empty() {
		slog.Warn("transcript unavailable, analysis limited to comments",
			slog.String("video_id", videoID))
	}

	segments := analysis.AnalyzeTranscript(ctx, p.emotion, resolved.Segments)
	keywords := analysis.ExtractKeywords(resolved.Segments, 0)
	sentiments := analysis.AnalyzeComments(ctx, p.sentiment, comments)

	doc := &ResultDoc{
		VideoID:  videoID,
		Title:    details.Title,
		Channel:  details.Channel,
		Language: lang,
		Degraded: resolved.Degraded,
		Reason:   resolved.Reason,
		Segments: segments,
		Keywords: keywords,
		Comments: sentiments,
	}
	doc.Artifacts = p.writeArtifacts(videoID, details.Title, segments, keywords, sentiments, resolved.Segments)

	if _, err := store.RecordAnalysis(ctx, store.AnalysisRecord{
		VideoID:  videoID,
		Title:    details.Title,
		Channel:  details.Channel,
		Language: lang,
		Segments: len(segments),
		Comments: len(sentiments),
		Degraded: resolved.Degraded,
		Reason:   resolved.Reason,
	}); err != nil {
		slog.Warn("history record failed", slog.String("video_id", videoID), slog.Any("error", err))
	}

	engine.CacheStoreJSON(ctx, cacheKey, doc)
	slog.Info("analysis finished",
		slog.String("video_id", videoID),
		slog.Int("segments", len(segments)),
		slog.Int("comments", len(sentiments)),
		slog.Bool("degraded", resolved.Degraded))
	return doc, nil
}

// writeArtifacts renders the report files. Failures are logged and skipped:
// the JSON result stands on its own.
func (p *Pipeline) writeArtifacts(videoID, title string,
	segments []analysis.SegmentEmotion, keywords []analysis.Keyword,
	comments []analysis.CommentSentiment, raw []engine.TranscriptSegment) []string {

	if p.outputDir == "" {
		return []string{}
	}
	dir := filepath.Join(p.outputDir, videoID)
	// Re-running a video replaces its artifacts wholesale; stale files from a
	// previous run must not survive next to fresh ones.
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("stale artifact dir not removed", slog.String("dir", dir), slog.Any("error", err))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("artifact dir failed", slog.String("dir", dir), slog.Any("error", err))
		return []string{}
	}

	artifacts := []string{}
	add := func(path string, err error) {
		if err != nil {
			slog.Warn("artifact failed", slog.String("path", path), slog.Any("error", err))
			return
		}
		if rel, relErr := filepath.Rel(p.outputDir, path); relErr == nil {
			artifacts = append(artifacts, filepath.ToSlash(rel))
		}
	}

	add(report.WriteFullText(dir, raw))
	add(report.WriteTranscriptCSV(dir, videoID, segments))
	add(report.WriteKeywordsCSV(dir, keywords))
	add(report.WriteCommentsCSV(dir, comments))
	if len(segments) > 0 {
		add(report.WriteEmotionTimeline(dir, title, segments))
		add(report.WriteEmotionHeatmap(dir, title, segments))
	}
	if len(comments) > 0 {
		add(report.WriteSentimentBar(dir, title, comments))
	}
	return artifacts
}

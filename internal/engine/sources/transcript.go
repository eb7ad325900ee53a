package sources

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Transcript resolution.
// Exact-language transcripts are frequently absent; falling back to the
// listed tracks (possibly machine-translated) maximizes the chance of
// returning some usable transcript while preserving the caller's language
// preference whenever feasible.

// Sentinel conditions the provider must distinguish from transient failures.
var (
	// ErrNoTranscript: the video has no transcript in the requested language.
	// Permanent — retrying the same fetch cannot succeed.
	ErrNoTranscript = errors.New("no transcript in requested language")
	// ErrTranscriptsDisabled: the video has no transcript surface at all.
	ErrTranscriptsDisabled = errors.New("transcripts disabled for video")
)

// TranscriptSource is one available transcript track for a video, identified
// by language and generation method.
type TranscriptSource interface {
	Language() string
	Generated() bool
	Translatable() bool
	Fetch(ctx context.Context) ([]engine.TranscriptSegment, error)
	Translate(language string) (TranscriptSource, error)
}

// TranscriptProvider is the upstream transcript service: direct fetch by
// language (raising ErrNoTranscript when absent) and on-demand source
// enumeration (raising ErrTranscriptsDisabled when the video has none).
type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, videoID, language string) ([]engine.TranscriptSegment, error)
	ListTranscripts(ctx context.Context, videoID string) ([]TranscriptSource, error)
}

// DefaultMaxRetries is the per-tier fetch attempt budget.
const DefaultMaxRetries = 3

// Resolver produces a best-effort transcript for a video. Each call is
// independent; there is no shared mutable state, so one Resolver may serve
// concurrent resolutions for different videos.
type Resolver struct {
	provider TranscriptProvider
	backoff  time.Duration
	sleep    func(context.Context, time.Duration)
}

// NewResolver returns a resolver over the given provider with the standard
// flat backoff between attempts.
func NewResolver(p TranscriptProvider) *Resolver {
	return &Resolver{
		provider: p,
		backoff:  engine.TranscriptBackoff,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func emptyTranscript() engine.ResolvedTranscript {
	return engine.ResolvedTranscript{Segments: []engine.TranscriptSegment{}}
}

// Resolve fetches the transcript for videoID, preferring language, with up to
// maxRetries attempts per tier. It never returns an error: every failure
// state collapses to the empty canonical result, which callers treat the same
// as "no transcript available".
func (r *Resolver) Resolve(ctx context.Context, videoID, language string, maxRetries int) engine.ResolvedTranscript {
	engine.IncrTranscriptRequests()
	language = engine.NormLang(language)
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	// Ordered fallback strategies; the first that produces a transcript wins.
	tiers := []func(context.Context) (engine.ResolvedTranscript, bool){
		func(ctx context.Context) (engine.ResolvedTranscript, bool) {
			return r.resolveDirect(ctx, videoID, language, maxRetries)
		},
		func(ctx context.Context) (engine.ResolvedTranscript, bool) {
			return r.resolveFromListing(ctx, videoID, language, maxRetries)
		},
	}
	for _, tier := range tiers {
		if out, ok := tier(ctx); ok {
			return out
		}
	}

	engine.IncrTranscriptFailures()
	slog.Warn("transcript: all fetch methods failed, returning empty result",
		slog.String("video", videoID), slog.String("lang", language))
	return emptyTranscript()
}

// resolveDirect is tier 1: fetch in the requested language with retries.
// ErrNoTranscript abandons the tier immediately — it is permanent, and
// retrying would waste the fixed time budget on an unrecoverable case.
func (r *Resolver) resolveDirect(ctx context.Context, videoID, language string, maxRetries int) (engine.ResolvedTranscript, bool) {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return engine.ResolvedTranscript{}, false
		}
		slog.Info("transcript: direct fetch",
			slog.String("video", videoID), slog.String("lang", language),
			slog.Int("attempt", attempt), slog.Int("max", maxRetries))

		segs, err := r.provider.FetchTranscript(ctx, videoID, language)
		if err == nil {
			if len(segs) == 0 {
				// Empty counts as a failure against the same attempt budget.
				slog.Warn("transcript: empty result", slog.String("video", videoID))
				continue
			}
			return engine.ResolvedTranscript{Segments: segs}, true
		}
		if errors.Is(err, ErrNoTranscript) {
			slog.Warn("transcript: language unavailable, trying listed sources",
				slog.String("video", videoID), slog.String("lang", language))
			return engine.ResolvedTranscript{}, false
		}
		slog.Error("transcript: direct fetch failed",
			slog.Int("attempt", attempt), slog.Any("error", err))
		if attempt < maxRetries {
			r.sleep(ctx, r.backoff)
		}
	}
	return engine.ResolvedTranscript{}, false
}

// resolveFromListing is tier 2: enumerate sources, select one, translate if
// needed, and fetch with the same retry policy as tier 1.
func (r *Resolver) resolveFromListing(ctx context.Context, videoID, language string, maxRetries int) (engine.ResolvedTranscript, bool) {
	engine.IncrTranscriptFallbacks()

	srcs, err := r.provider.ListTranscripts(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTranscriptsDisabled) {
			slog.Warn("transcript: transcripts disabled", slog.String("video", videoID))
		} else {
			slog.Error("transcript: source enumeration failed",
				slog.String("video", videoID), slog.Any("error", err))
		}
		return engine.ResolvedTranscript{}, false
	}

	src, ok := selectSource(srcs, language)
	if !ok {
		slog.Warn("transcript: no sources available in any language",
			slog.String("video", videoID))
		return engine.ResolvedTranscript{}, false
	}

	origLang := src.Language()
	degraded := origLang != language
	reason := ""
	if degraded {
		reason = "fallback language " + origLang
		if src.Translatable() {
			slog.Info("transcript: translating",
				slog.String("from", origLang), slog.String("to", language))
			translated, terr := src.Translate(language)
			if terr != nil {
				// Degraded-language output beats no output.
				slog.Warn("transcript: translation failed, using original language",
					slog.String("from", origLang), slog.Any("error", terr))
				reason = "translation to " + language + " failed, serving " + origLang
			} else {
				src = translated
				reason = "machine-translated from " + origLang
			}
		}
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return engine.ResolvedTranscript{}, false
		}
		segs, err := src.Fetch(ctx)
		if err == nil {
			if len(segs) == 0 {
				slog.Warn("transcript: empty fallback result", slog.String("video", videoID))
				continue
			}
			slog.Info("transcript: fallback fetch succeeded",
				slog.String("video", videoID), slog.String("lang", src.Language()),
				slog.Int("segments", len(segs)))
			return engine.ResolvedTranscript{Segments: segs, Degraded: degraded, Reason: reason}, true
		}
		slog.Error("transcript: fallback fetch failed",
			slog.Int("attempt", attempt), slog.Any("error", err))
		if attempt < maxRetries {
			r.sleep(ctx, r.backoff)
		}
	}
	return engine.ResolvedTranscript{}, false
}

// selectSource picks the best available source: exact language match first,
// then the first auto-generated track, then anything.
func selectSource(srcs []TranscriptSource, language string) (TranscriptSource, bool) {
	for _, s := range srcs {
		if s.Language() == language {
			return s, true
		}
	}
	for _, s := range srcs {
		if s.Generated() {
			return s, true
		}
	}
	if len(srcs) > 0 {
		return srcs[0], true
	}
	return nil, false
}

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Caption-track enumeration.
// Primary:  scrape watch page ytInitialPlayerResponse → captionTracks (works from any IP)
// Fallback: ANDROID Innertube /player → captionTracks (works from non-blocked IPs)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// InnertubeProvider enumerates and fetches YouTube caption tracks.
// It implements TranscriptProvider; tracks are enumerated on demand, never cached.
type InnertubeProvider struct{}

// NewInnertubeProvider returns a provider backed by the public Innertube surface.
func NewInnertubeProvider() *InnertubeProvider {
	return &InnertubeProvider{}
}

// FetchTranscript fetches the transcript directly in the given language.
// Returns ErrNoTranscript when the video has no usable track in that language.
func (p *InnertubeProvider) FetchTranscript(ctx context.Context, videoID, language string) ([]engine.TranscriptSegment, error) {
	tracks, err := p.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	// Prefer a manual track over an auto-generated one in the same language.
	var match *captionTrack
	for i, t := range tracks {
		if t.LanguageCode != language {
			continue
		}
		if t.Kind != "asr" {
			match = &tracks[i]
			break
		}
		if match == nil {
			match = &tracks[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoTranscript, language)
	}
	return fetchTimedText(ctx, match.BaseURL)
}

// ListTranscripts enumerates all usable transcript sources for the video.
func (p *InnertubeProvider) ListTranscripts(ctx context.Context, videoID string) ([]TranscriptSource, error) {
	tracks, err := p.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	srcs := make([]TranscriptSource, 0, len(tracks))
	for _, t := range tracks {
		srcs = append(srcs, &innertubeSource{track: t})
	}
	return srcs, nil
}

// captionTracks returns usable caption tracks, trying the watch page first.
func (p *InnertubeProvider) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	tracks, err := captionTracksViaWatchPage(ctx, videoID)
	if err == nil {
		return tracks, nil
	}
	if errors.Is(err, ErrTranscriptsDisabled) {
		return nil, err
	}
	slog.Warn("youtube: watch page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))
	return captionTracksViaPlayer(ctx, videoID)
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// tracksFromPlayerResp validates a player response and filters unusable tracks.
func tracksFromPlayerResp(resp innertubePlayerResp) ([]captionTrack, error) {
	if resp.Captions == nil {
		reason := ""
		if resp.PlayabilityStatus != nil {
			reason = resp.PlayabilityStatus.Reason
		}
		if reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, reason)
		}
		return nil, ErrTranscriptsDisabled
	}
	all := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	usable := make([]captionTrack, 0, len(all))
	for _, t := range all {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	return usable, nil
}

// captionTracksViaWatchPage scrapes the YouTube watch page HTML and extracts
// caption tracks from ytInitialPlayerResponse.
func captionTracksViaWatchPage(ctx context.Context, videoID string) ([]captionTrack, error) {
	body, err := fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return tracksFromPlayerResp(playerResp)
}

// fetchWatchPage fetches the watch page, preferring the Chrome-fingerprint
// browser client when one is configured.
func fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	if bc := engine.Cfg.BrowserClient; bc != nil {
		body, status, err := bc.Get(watchURL)
		if err == nil && status == http.StatusOK {
			return body, nil
		}
		slog.Debug("youtube: browser watch fetch failed, falling back to plain client",
			slog.Int("status", status), slog.Any("err", err))
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}
	return body, nil
}

// captionTracksViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func captionTracksViaPlayer(ctx context.Context, videoID string) ([]captionTrack, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytPlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return tracksFromPlayerResp(playerResp)
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL
// into ordered transcript segments.
func fetchTimedText(ctx context.Context, baseURL string) ([]engine.TranscriptSegment, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// parseTimedText converts a timedtext XML document into transcript segments,
// dropping lines that are empty after markup stripping.
func parseTimedText(body []byte) ([]engine.TranscriptSegment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segs := make([]engine.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		segs = append(segs, engine.TranscriptSegment{Text: text, Start: line.Start, Duration: line.Dur})
	}
	return segs, nil
}

// innertubeSource is one selectable caption track.
type innertubeSource struct {
	track      captionTrack
	translated bool
}

func (s *innertubeSource) Language() string { return s.track.LanguageCode }
func (s *innertubeSource) Generated() bool  { return s.track.Kind == "asr" }

// Translatable reports whether the track accepts a tlang parameter.
// Already-translated tracks cannot be re-translated.
func (s *innertubeSource) Translatable() bool { return s.track.IsTranslatable && !s.translated }

func (s *innertubeSource) Fetch(ctx context.Context) ([]engine.TranscriptSegment, error) {
	return fetchTimedText(ctx, s.track.BaseURL)
}

func (s *innertubeSource) Translate(language string) (TranscriptSource, error) {
	if !s.Translatable() {
		return nil, fmt.Errorf("track %q (%s) is not translatable", s.track.label(), s.track.LanguageCode)
	}
	t := s.track
	t.BaseURL += "&tlang=" + url.QueryEscape(language)
	t.LanguageCode = language
	return &innertubeSource{track: t, translated: true}, nil
}

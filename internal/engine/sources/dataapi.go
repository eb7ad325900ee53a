package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// YouTube Data API v3 — video metadata and comment threads.

const ytDataAPIBase = "https://www.googleapis.com/youtube/v3"

// dataAPILimiter keeps comment pagination under the quota burn rate.
var dataAPILimiter = rate.NewLimiter(rate.Limit(5), 5)

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// ErrNoAPIKey is returned when no Data API key is configured.
var ErrNoAPIKey = errors.New("no YouTube Data API key configured")

// ExtractVideoID pulls the 11-char video ID from any YouTube URL format.
// Accepts a bare 11-char ID as-is.
func ExtractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	if len(rawURL) == 11 && !strings.ContainsAny(rawURL, "/?&=.") {
		return rawURL
	}
	return ""
}

// --- Data API response types ---

type ytVideoListResp struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytCommentThreadsResp struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay       string `json:"textDisplay"`
					AuthorDisplayName string `json:"authorDisplayName"`
					PublishedAt       string `json:"publishedAt"`
					LikeCount         int64  `json:"likeCount"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// apiKeys returns the configured keys in precedence order.
func apiKeys() []string {
	keys := make([]string, 0, 2)
	if engine.Cfg.APIKey != "" {
		keys = append(keys, engine.Cfg.APIKey)
	}
	if engine.Cfg.APIKeyFallback != "" {
		keys = append(keys, engine.Cfg.APIKeyFallback)
	}
	return keys
}

// dataAPIGet performs one Data API call, rotating to the fallback key on
// quota errors (403).
func dataAPIGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	keys := apiKeys()
	if len(keys) == 0 {
		return nil, ErrNoAPIKey
	}
	engine.IncrDataAPIRequests()

	var lastErr error
	for _, key := range keys {
		params.Set("key", key)
		apiURL := ytDataAPIBase + path + "?" + params.Encode()

		resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", engine.UserAgentBot)
			return engine.Cfg.HTTPClient.Do(req)
		})
		if err != nil {
			lastErr = fmt.Errorf("data API %s: %w", path, err)
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read data API %s: %w", path, readErr)
			continue
		}
		if resp.StatusCode == http.StatusForbidden {
			lastErr = fmt.Errorf("data API %s: quota exceeded: %s", path, engine.Truncate(string(body), 256))
			slog.Debug("youtube data API key rejected, trying fallback", slog.Any("err", lastErr))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("data API %s: HTTP %d: %s", path, resp.StatusCode, engine.Truncate(string(body), 256))
		}
		return body, nil
	}
	return nil, lastErr
}

// FetchVideoDetails retrieves title and channel name for a video.
func FetchVideoDetails(ctx context.Context, videoID string) (engine.VideoDetails, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", videoID)

	body, err := dataAPIGet(ctx, "/videos", params)
	if err != nil {
		return engine.VideoDetails{}, err
	}

	var result ytVideoListResp
	if err := json.Unmarshal(body, &result); err != nil {
		return engine.VideoDetails{}, fmt.Errorf("decode video details: %w", err)
	}
	if len(result.Items) == 0 {
		return engine.VideoDetails{}, fmt.Errorf("video %s not found", videoID)
	}
	return engine.VideoDetails{
		ID:      videoID,
		Title:   result.Items[0].Snippet.Title,
		Channel: result.Items[0].Snippet.ChannelTitle,
	}, nil
}

// FetchComments retrieves up to maxComments top-level comments, paginating
// through comment threads. Comment bodies come back as HTML and are converted
// to markdown-ish plain text.
func FetchComments(ctx context.Context, videoID string, maxComments int) ([]engine.Comment, error) {
	if maxComments <= 0 {
		maxComments = 100
	}

	comments := make([]engine.Comment, 0, maxComments)
	pageToken := ""
	for len(comments) < maxComments {
		if err := dataAPILimiter.Wait(ctx); err != nil {
			return comments, err
		}
		engine.IncrCommentPages()

		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("videoId", videoID)
		params.Set("maxResults", "100")
		params.Set("textFormat", "html")
		params.Set("order", "relevance")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := dataAPIGet(ctx, "/commentThreads", params)
		if err != nil {
			// Keep whatever pages succeeded.
			if len(comments) > 0 {
				slog.Warn("comments: pagination aborted", slog.Int("fetched", len(comments)), slog.Any("error", err))
				return comments, nil
			}
			return nil, err
		}

		var result ytCommentThreadsResp
		if err := json.Unmarshal(body, &result); err != nil {
			return comments, fmt.Errorf("decode comment threads: %w", err)
		}

		for _, item := range result.Items {
			top := item.Snippet.TopLevelComment.Snippet
			comments = append(comments, engine.Comment{
				Text:        commentText(top.TextDisplay),
				Author:      top.AuthorDisplayName,
				PublishedAt: top.PublishedAt,
				LikeCount:   top.LikeCount,
			})
			if len(comments) >= maxComments {
				break
			}
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return comments, nil
}

// commentText converts a comment's HTML body to readable text.
func commentText(htmlBody string) string {
	md, err := htmltomarkdown.ConvertString(htmlBody)
	if err != nil {
		return engine.CleanHTML(htmlBody)
	}
	return strings.TrimSpace(md)
}

// Package analysis runs sentiment/emotion classification and keyword
// extraction over fetched transcripts and comments. The models are opaque
// third-party capabilities: classify(text) → (label, confidence).
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

const (
	hfAPIBase      = "https://api-inference.huggingface.co/models/"
	sentimentModel = "cardiffnlp/twitter-roberta-base-sentiment"
	emotionModel   = "j-hartmann/emotion-english-distilroberta-base"

	// maxInputChars matches the models' input window.
	maxInputChars = 512

	// labelUnknown marks items whose classification failed.
	labelUnknown = "Unknown"
)

// sentimentLabels remaps the sentiment model's raw output.
var sentimentLabels = map[string]string{
	"LABEL_0": "Negative",
	"LABEL_1": "Neutral",
	"LABEL_2": "Positive",
}

// Classifier calls one hosted text-classification model.
type Classifier struct {
	baseURL string
	model   string
	labels  map[string]string // raw → display; nil = passthrough
	limiter *rate.Limiter
}

// NewSentimentClassifier classifies comment sentiment (Negative/Neutral/Positive).
func NewSentimentClassifier() *Classifier {
	return &Classifier{
		baseURL: hfAPIBase,
		model:   sentimentModel,
		labels:  sentimentLabels,
		limiter: rate.NewLimiter(rate.Limit(8), 1),
	}
}

// NewEmotionClassifier classifies transcript segment emotion (joy, anger, ...).
func NewEmotionClassifier() *Classifier {
	return &Classifier{
		baseURL: hfAPIBase,
		model:   emotionModel,
		limiter: rate.NewLimiter(rate.Limit(8), 1),
	}
}

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns the top label and its confidence for the given text.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	text = engine.Truncate(text, maxInputChars)
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}
	engine.IncrClassifyRequests()

	payload, err := json.Marshal(map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return "", 0, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.model, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if tok := engine.Cfg.HuggingFaceToken; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", 0, fmt.Errorf("inference %s: %w", c.model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("inference %s: HTTP %d: %s", c.model, resp.StatusCode, engine.Truncate(string(body), 256))
	}

	scores, err := decodeScores(body)
	if err != nil {
		return "", 0, fmt.Errorf("inference %s: %w", c.model, err)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	label := best.Label
	if c.labels != nil {
		if mapped, ok := c.labels[label]; ok {
			label = mapped
		}
	}
	return label, best.Score, nil
}

// decodeScores handles both response shapes the inference API produces:
// [[{label,score},...]] for single inputs and [{label,score},...].
func decodeScores(body []byte) ([]hfScore, error) {
	var nested [][]hfScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	var flat []hfScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	return nil, fmt.Errorf("unexpected classification response: %s", engine.Truncate(string(body), 256))
}

// SegmentEmotion is a transcript segment with its dominant emotion.
type SegmentEmotion struct {
	engine.TranscriptSegment
	Emotion string  `json:"emotion"`
	Score   float64 `json:"emotion_score"`
}

// CommentSentiment is a comment with its sentiment classification.
type CommentSentiment struct {
	engine.Comment
	Cleaned    string  `json:"cleaned_comment"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// AnalyzeTranscript classifies every segment's emotion. Per-item failures
// yield ("Unknown", 0) and never abort the batch.
func AnalyzeTranscript(ctx context.Context, c *Classifier, segs []engine.TranscriptSegment) []SegmentEmotion {
	out := make([]SegmentEmotion, len(segs))
	for i, seg := range segs {
		out[i] = SegmentEmotion{TranscriptSegment: seg, Emotion: labelUnknown}
		label, score, err := c.Classify(ctx, seg.Text)
		if err != nil {
			engine.IncrClassifyErrors()
			slog.Warn("emotion classification failed", slog.Int("segment", i), slog.Any("error", err))
			continue
		}
		out[i].Emotion = label
		out[i].Score = score
	}
	return out
}

// AnalyzeComments cleans and classifies every comment's sentiment.
func AnalyzeComments(ctx context.Context, c *Classifier, comments []engine.Comment) []CommentSentiment {
	out := make([]CommentSentiment, len(comments))
	for i, cm := range comments {
		cleaned := engine.CleanComment(cm.Text)
		out[i] = CommentSentiment{Comment: cm, Cleaned: cleaned, Sentiment: labelUnknown}
		if cleaned == "" {
			continue
		}
		label, score, err := c.Classify(ctx, cleaned)
		if err != nil {
			engine.IncrClassifyErrors()
			slog.Warn("sentiment classification failed", slog.Int("comment", i), slog.Any("error", err))
			continue
		}
		out[i].Sentiment = label
		out[i].Confidence = score
	}
	return out
}

package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func newTestClassifier(t *testing.T, handler http.HandlerFunc, labels map[string]string) *Classifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{HTTPClient: srv.Client()})
	c := NewSentimentClassifier()
	c.baseURL = srv.URL + "/"
	c.model = "test-model"
	c.labels = labels
	return c
}

func TestClassifyPicksTopScoreAndRemapsLabel(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`[[{"label":"LABEL_0","score":0.1},{"label":"LABEL_2","score":0.8},{"label":"LABEL_1","score":0.1}]]`))
	}, sentimentLabels)

	label, score, err := c.Classify(context.Background(), "great video")
	require.NoError(t, err)
	assert.Equal(t, "Positive", label)
	assert.InDelta(t, 0.8, score, 1e-9)
}

func TestClassifyFlatResponseShape(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"joy","score":0.95},{"label":"anger","score":0.05}]`))
	}, nil)

	label, score, err := c.Classify(context.Background(), "so happy")
	require.NoError(t, err)
	assert.Equal(t, "joy", label)
	assert.InDelta(t, 0.95, score, 1e-9)
}

func TestClassifyErrorStatus(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model too large"}`, http.StatusBadRequest)
	}, nil)

	_, _, err := c.Classify(context.Background(), "text")
	assert.Error(t, err)
}

func TestAnalyzeTranscriptDegradesPerSegment(t *testing.T) {
	var calls int
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[[{"label":"joy","score":0.9}]]`))
	}, nil)

	segs := []engine.TranscriptSegment{
		{Text: "hello", Start: 0, Duration: 2},
		{Text: "world", Start: 2, Duration: 2},
		{Text: "again", Start: 4, Duration: 2},
	}
	got := AnalyzeTranscript(context.Background(), c, segs)
	require.Len(t, got, 3)
	assert.Equal(t, "joy", got[0].Emotion)
	assert.Equal(t, "Unknown", got[1].Emotion)
	assert.Zero(t, got[1].Score)
	assert.Equal(t, "joy", got[2].Emotion)
	assert.Equal(t, "world", got[1].Text)
}

func TestAnalyzeCommentsCleansBeforeClassifying(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[{"label":"LABEL_1","score":0.7}]]`))
	}, sentimentLabels)

	comments := []engine.Comment{
		{Text: "nice 😀 https://spam.example"},
		{Text: "   "},
	}
	got := AnalyzeComments(context.Background(), c, comments)
	require.Len(t, got, 2)
	assert.Equal(t, "Neutral", got[0].Sentiment)
	assert.Contains(t, got[0].Cleaned, "grinning")
	assert.NotContains(t, got[0].Cleaned, "https")
	// Blank comments are never sent to the model.
	assert.Equal(t, "Unknown", got[1].Sentiment)
	assert.Empty(t, got[1].Cleaned)
}

func TestExtractKeywordsEmptyTranscript(t *testing.T) {
	got := ExtractKeywords(nil, 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractKeywordsRanks(t *testing.T) {
	segs := []engine.TranscriptSegment{
		{Text: "machine learning models need quality training data"},
		{Text: "quality training data beats clever machine learning models"},
	}
	got := ExtractKeywords(segs, 5)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 5)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestFullTextSkipsEmptySegments(t *testing.T) {
	segs := []engine.TranscriptSegment{
		{Text: "one"}, {Text: ""}, {Text: "two"},
	}
	assert.Equal(t, "one two", FullText(segs))
}

package report

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tube/internal/analysis"
	"github.com/anatolykoptev/go_tube/internal/engine"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSecondsToMMSS(t *testing.T) {
	assert.Equal(t, "00:00", secondsToMMSS(0))
	assert.Equal(t, "00:59", secondsToMMSS(59.8))
	assert.Equal(t, "01:05", secondsToMMSS(65))
	assert.Equal(t, "61:40", secondsToMMSS(3700))
}

func TestWriteTranscriptCSV(t *testing.T) {
	dir := t.TempDir()
	segs := []analysis.SegmentEmotion{
		{TranscriptSegment: engine.TranscriptSegment{Text: "hello there", Start: 0, Duration: 2}, Emotion: "joy", Score: 0.912},
		{TranscriptSegment: engine.TranscriptSegment{Text: "bad news", Start: 75.4, Duration: 3}, Emotion: "sadness", Score: 0.5},
	}
	path, err := WriteTranscriptCSV(dir, "dQw4w9WgXcQ", segs)
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "text", "emotion", "emotion_score", "start_seconds", "link"}, rows[0])
	assert.Equal(t, "00:00", rows[1][0])
	assert.Equal(t, "0.91", rows[1][3])
	assert.Equal(t, "01:15", rows[2][0])
	assert.Equal(t, "75.40", rows[2][4])
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=75s", rows[2][5])
}

func TestWriteCommentsCSV(t *testing.T) {
	dir := t.TempDir()
	comments := []analysis.CommentSentiment{
		{
			Comment:    engine.Comment{Author: "alice", PublishedAt: "2024-01-02T03:04:05Z", LikeCount: 7},
			Cleaned:    "loved it",
			Sentiment:  "Positive",
			Confidence: 0.987,
		},
	}
	path, err := WriteCommentsCSV(dir, comments)
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice", "2024-01-02T03:04:05Z", "7", "loved it", "Positive", "0.99"}, rows[1])
}

func TestWriteKeywordsCSV(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteKeywordsCSV(dir, []analysis.Keyword{{Keyword: "machine learning", Score: 4.25}})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"machine learning", "4.25"}, rows[1])
}

func TestWriteFullText(t *testing.T) {
	dir := t.TempDir()
	segs := []engine.TranscriptSegment{{Text: "one"}, {Text: "two"}}
	path, err := WriteFullText(dir, segs)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one two", string(data))
}

func TestChartsRenderHTML(t *testing.T) {
	dir := t.TempDir()
	segs := []analysis.SegmentEmotion{
		{TranscriptSegment: engine.TranscriptSegment{Text: "a", Start: 0}, Emotion: "joy", Score: 0.8},
		{TranscriptSegment: engine.TranscriptSegment{Text: "b", Start: 5}, Emotion: "anger", Score: 0.6},
	}
	comments := []analysis.CommentSentiment{
		{Sentiment: "Positive"}, {Sentiment: "Positive"}, {Sentiment: "Negative"},
	}

	for _, fn := range []func() (string, error){
		func() (string, error) { return WriteEmotionTimeline(dir, "vid", segs) },
		func() (string, error) { return WriteEmotionHeatmap(dir, "vid", segs) },
		func() (string, error) { return WriteSentimentBar(dir, "vid", comments) },
	} {
		path, err := fn()
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "echarts"), "chart HTML should embed echarts: %s", path)
	}
}

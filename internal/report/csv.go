// Package report writes analysis artifacts to disk: the raw transcript text,
// CSV tables and interactive HTML charts.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anatolykoptev/go_tube/internal/analysis"
	"github.com/anatolykoptev/go_tube/internal/engine"
)

// secondsToMMSS renders a segment offset as MM:SS for the CSV timestamp
// column. Hours spill into minutes, matching how watch links count time.
func secondsToMMSS(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// watchLink points at the video offset so a row can be jumped to directly.
func watchLink(videoID string, start float64) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, int(start))
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// WriteFullText dumps the concatenated transcript to a plain-text file.
func WriteFullText(dir string, segs []engine.TranscriptSegment) (string, error) {
	path := filepath.Join(dir, "full_text.txt")
	if err := os.WriteFile(path, []byte(analysis.FullText(segs)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteTranscriptCSV writes one row per segment with its emotion, timestamp
// and a clickable watch link.
func WriteTranscriptCSV(dir, videoID string, segs []analysis.SegmentEmotion) (string, error) {
	path := filepath.Join(dir, "transcript_emotion_keywords.csv")
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, []string{
			secondsToMMSS(s.Start),
			s.Text,
			s.Emotion,
			strconv.FormatFloat(round2(s.Score), 'f', 2, 64),
			strconv.FormatFloat(round2(s.Start), 'f', 2, 64),
			watchLink(videoID, s.Start),
		})
	}
	return path, writeCSV(path, []string{"timestamp", "text", "emotion", "emotion_score", "start_seconds", "link"}, rows)
}

// WriteCommentsCSV writes one row per classified comment.
func WriteCommentsCSV(dir string, comments []analysis.CommentSentiment) (string, error) {
	path := filepath.Join(dir, "comments_with_sentiment.csv")
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{
			c.Author,
			c.PublishedAt,
			strconv.FormatInt(c.LikeCount, 10),
			c.Cleaned,
			c.Sentiment,
			strconv.FormatFloat(round2(c.Confidence), 'f', 2, 64),
		})
	}
	return path, writeCSV(path, []string{"author", "published_at", "likes", "comment", "sentiment", "confidence"}, rows)
}

// WriteKeywordsCSV writes the ranked keyword table.
func WriteKeywordsCSV(dir string, keywords []analysis.Keyword) (string, error) {
	path := filepath.Join(dir, "top_keywords.csv")
	rows := make([][]string, 0, len(keywords))
	for _, k := range keywords {
		rows = append(rows, []string{
			k.Keyword,
			strconv.FormatFloat(round2(k.Score), 'f', 2, 64),
		})
	}
	return path, writeCSV(path, []string{"keyword", "score"}, rows)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

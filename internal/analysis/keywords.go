package analysis

import (
	"strings"

	rake "github.com/afjoseph/RAKE.Go"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// DefaultTopKeywords caps the keyword list when the caller passes no limit.
const DefaultTopKeywords = 15

// Keyword is one ranked phrase from the transcript.
type Keyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// FullText joins segment texts into one space-separated document.
func FullText(segs []engine.TranscriptSegment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

// ExtractKeywords ranks candidate phrases in the transcript and returns the
// top N by score. An empty transcript yields an empty, non-nil slice.
func ExtractKeywords(segs []engine.TranscriptSegment, topN int) []Keyword {
	engine.IncrKeywordRuns()
	if topN <= 0 {
		topN = DefaultTopKeywords
	}
	text := FullText(segs)
	if text == "" {
		return []Keyword{}
	}
	pairs := rake.RunRake(text)
	out := make([]Keyword, 0, topN)
	for _, p := range pairs {
		out = append(out, Keyword{Keyword: p.Key, Score: p.Value})
		if len(out) == topN {
			break
		}
	}
	return out
}

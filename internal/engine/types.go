package engine

// TranscriptSegment is one timed unit of transcript text.
// Immutable once fetched; segments arrive sorted by Start ascending
// (upstream guarantee, not recomputed here).
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// ResolvedTranscript is the resolver output: an ordered segment sequence,
// or empty if no source could be resolved. Degraded marks transcripts served
// in a language other than the requested one, or machine-translated ones;
// Reason says why. Callers may treat an empty result identically to
// "no transcript available" — it is never an error.
type ResolvedTranscript struct {
	Segments []TranscriptSegment `json:"segments"`
	Degraded bool                `json:"degraded,omitempty"`
	Reason   string              `json:"reason,omitempty"`
}

// Empty reports whether the transcript carries no segments.
func (t ResolvedTranscript) Empty() bool { return len(t.Segments) == 0 }

// VideoDetails is the Data API snippet metadata for a video.
type VideoDetails struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

// Comment is one top-level comment thread entry.
type Comment struct {
	Text        string `json:"comment"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	LikeCount   int64  `json:"like_count"`
}

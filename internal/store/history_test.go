package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// resetHistory resets the singleton so each test gets a fresh DB.
func resetHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	engine.Init(engine.Config{HistoryPath: path})
	historyDB = nil
	historyErr = nil
	historyOnce = sync.Once{}
	return path
}

func TestRecordAnalysis_Basic(t *testing.T) {
	resetHistory(t)
	ctx := context.Background()

	id, err := RecordAnalysis(ctx, AnalysisRecord{
		VideoID:  "dQw4w9WgXcQ",
		Title:    "Some Video",
		Channel:  "Some Channel",
		Language: "en",
		Segments: 42,
		Comments: 100,
	})
	if err != nil {
		t.Fatalf("RecordAnalysis error: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}
}

func TestRecordAnalysis_MissingVideoID(t *testing.T) {
	resetHistory(t)

	_, err := RecordAnalysis(context.Background(), AnalysisRecord{Title: "No ID"})
	if err == nil {
		t.Error("expected error when video_id is missing")
	}
}

func TestListAnalyses_Empty(t *testing.T) {
	resetHistory(t)

	result, err := ListAnalyses(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("ListAnalyses error: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("expected 0 total, got %d", result.Total)
	}
	if result.Analyses == nil {
		t.Error("analyses should not be nil")
	}
}

func TestListAnalyses_FilterByVideo(t *testing.T) {
	resetHistory(t)
	ctx := context.Background()

	for _, rec := range []AnalysisRecord{
		{VideoID: "aaaaaaaaaaa", Title: "A", Language: "en", Segments: 1},
		{VideoID: "bbbbbbbbbbb", Title: "B", Language: "de", Segments: 2, Degraded: true, Reason: "fallback language de"},
		{VideoID: "aaaaaaaaaaa", Title: "A again", Language: "en", Segments: 3},
	} {
		if _, err := RecordAnalysis(ctx, rec); err != nil {
			t.Fatalf("RecordAnalysis error: %v", err)
		}
	}

	all, err := ListAnalyses(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListAnalyses error: %v", err)
	}
	if all.Total != 3 {
		t.Errorf("total = %d, want 3", all.Total)
	}

	filtered, err := ListAnalyses(ctx, "aaaaaaaaaaa", 0)
	if err != nil {
		t.Fatalf("ListAnalyses filter error: %v", err)
	}
	if filtered.Total != 2 {
		t.Errorf("filtered total = %d, want 2", filtered.Total)
	}
	for _, r := range filtered.Analyses {
		if r.VideoID != "aaaaaaaaaaa" {
			t.Errorf("unexpected video_id %q in filtered list", r.VideoID)
		}
	}
}

func TestListAnalyses_DegradedRoundTrip(t *testing.T) {
	resetHistory(t)
	ctx := context.Background()

	_, err := RecordAnalysis(ctx, AnalysisRecord{
		VideoID:  "ccccccccccc",
		Title:    "C",
		Language: "en",
		Degraded: true,
		Reason:   "machine-translated from fr",
	})
	if err != nil {
		t.Fatalf("RecordAnalysis error: %v", err)
	}

	list, err := ListAnalyses(ctx, "ccccccccccc", 0)
	if err != nil {
		t.Fatalf("ListAnalyses error: %v", err)
	}
	if len(list.Analyses) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list.Analyses))
	}
	got := list.Analyses[0]
	if !got.Degraded {
		t.Error("degraded flag lost on round trip")
	}
	if got.Reason != "machine-translated from fr" {
		t.Errorf("reason = %q", got.Reason)
	}
	if got.CreatedAt == "" {
		t.Error("created_at should be set")
	}
}

func TestListAnalyses_LimitClamp(t *testing.T) {
	resetHistory(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		if _, err := RecordAnalysis(ctx, AnalysisRecord{
			VideoID: fmt.Sprintf("vid%08d000", i), Title: "V", Language: "en",
		}); err != nil {
			t.Fatalf("RecordAnalysis error: %v", err)
		}
	}

	// Over-limit requests clamp to 100, not the 50 default.
	big, err := ListAnalyses(ctx, "", 101)
	if err != nil {
		t.Fatalf("ListAnalyses error: %v", err)
	}
	if len(big.Analyses) != 100 {
		t.Errorf("limit=101 returned %d rows, want 100", len(big.Analyses))
	}
	if big.Total != 120 {
		t.Errorf("total = %d, want 120", big.Total)
	}

	// Zero still defaults to 50.
	def, err := ListAnalyses(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListAnalyses error: %v", err)
	}
	if len(def.Analyses) != 50 {
		t.Errorf("limit=0 returned %d rows, want 50", len(def.Analyses))
	}
}

func TestInitHistorySchema_Idempotent(t *testing.T) {
	path := resetHistory(t)
	ctx := context.Background()

	if _, err := RecordAnalysis(ctx, AnalysisRecord{VideoID: "aaaaaaaaaaa", Title: "A", Language: "en"}); err != nil {
		t.Fatalf("first record error: %v", err)
	}

	// Reset singleton but keep the same DB file.
	historyDB = nil
	historyErr = nil
	historyOnce = sync.Once{}
	engine.Init(engine.Config{HistoryPath: path})

	if _, err := RecordAnalysis(ctx, AnalysisRecord{VideoID: "bbbbbbbbbbb", Title: "B", Language: "en"}); err != nil {
		t.Fatalf("second record after re-open error: %v", err)
	}

	list, _ := ListAnalyses(ctx, "", 0)
	if list.Total != 2 {
		t.Errorf("expected 2 total after re-open, got %d", list.Total)
	}
}

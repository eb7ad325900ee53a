package sources

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple object", `{"a":1};var x`, `{"a":1}`},
		{"nested", `{"a":{"b":2}} trailing`, `{"a":{"b":2}}`},
		{"braces in string", `{"a":"}{"} rest`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"\"}"} rest`, `{"a":"\"}"}`},
		{"not an object", `[1,2]`, ""},
		{"unterminated", `{"a":1`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSON([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimedText(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.08" dur="3.12">hello &amp; welcome</text>
  <text start="3.2" dur="2.5"><b>bold</b> line</text>
  <text start="5.7" dur="1.0">   </text>
  <text start="6.7" dur="2.0">last one</text>
</transcript>`

	segs, err := parseTimedText([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3 (blank line dropped)", len(segs))
	}
	if segs[0].Text != "hello & welcome" || segs[0].Start != 0.08 || segs[0].Duration != 3.12 {
		t.Errorf("unexpected first segment: %+v", segs[0])
	}
	if segs[1].Text != "bold line" {
		t.Errorf("markup not stripped: %q", segs[1].Text)
	}
	// Upstream guarantee carried through: starts ascend.
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].Start {
			t.Errorf("segments out of order at %d: %v", i, segs)
		}
	}
}

func TestParseTimedTextInvalidXML(t *testing.T) {
	if _, err := parseTimedText([]byte("<transcript><text")); err == nil {
		t.Fatal("expected error for truncated XML")
	}
}

func TestTracksFromPlayerResp(t *testing.T) {
	t.Run("no captions section means disabled", func(t *testing.T) {
		_, err := tracksFromPlayerResp(innertubePlayerResp{})
		if !errors.Is(err, ErrTranscriptsDisabled) {
			t.Errorf("err = %v, want ErrTranscriptsDisabled", err)
		}
	})

	t.Run("playability reason attached", func(t *testing.T) {
		var resp innertubePlayerResp
		if err := json.Unmarshal([]byte(`{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"}}`), &resp); err != nil {
			t.Fatal(err)
		}
		_, err := tracksFromPlayerResp(resp)
		if !errors.Is(err, ErrTranscriptsDisabled) {
			t.Fatalf("err = %v, want ErrTranscriptsDisabled", err)
		}
		if !strings.Contains(err.Error(), "Video unavailable") {
			t.Errorf("reason missing from error: %v", err)
		}
	})

	t.Run("po-token tracks filtered", func(t *testing.T) {
		raw := `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
			{"baseUrl":"https://yt/tt?v=1&exp=xpe","languageCode":"en"},
			{"baseUrl":"https://yt/tt?v=1","languageCode":"fr","kind":"asr","isTranslatable":true}
		]}}}`
		var resp innertubePlayerResp
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			t.Fatal(err)
		}
		tracks, err := tracksFromPlayerResp(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].LanguageCode != "fr" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
	})
}

func TestInnertubeSourceTranslate(t *testing.T) {
	src := &innertubeSource{track: captionTrack{
		BaseURL:        "https://yt/tt?v=1&lang=fr",
		LanguageCode:   "fr",
		Kind:           "asr",
		IsTranslatable: true,
	}}

	translated, err := src.Translate("en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if translated.Language() != "en" {
		t.Errorf("language = %q, want en", translated.Language())
	}
	ts, ok := translated.(*innertubeSource)
	if !ok {
		t.Fatalf("unexpected source type %T", translated)
	}
	if !strings.Contains(ts.track.BaseURL, "&tlang=en") {
		t.Errorf("tlang param missing: %q", ts.track.BaseURL)
	}
	if translated.Translatable() {
		t.Error("a translated track must not be translatable again")
	}

	if _, err := translated.Translate("de"); err == nil {
		t.Error("expected error re-translating a translated track")
	}

	plain := &innertubeSource{track: captionTrack{LanguageCode: "fr"}}
	if _, err := plain.Translate("en"); err == nil {
		t.Error("expected error for non-translatable track")
	}
}

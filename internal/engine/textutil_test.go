package engine

import (
	"strings"
	"testing"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"tags stripped", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"entities decoded", "don&#39;t &amp; won&#39;t", "don't & won't"},
		{"line break tag", "first<br>second", "first second"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanHTML(tt.in); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanComment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url removed", "check https://example.com/x?y=1 out", "check out"},
		{"www url removed", "see www.example.com now", "see now"},
		{"special chars dropped", "great video <3 #1!", "great video 3 1!"},
		{"whitespace collapsed", "too   many\n\nspaces", "too many spaces"},
		{"punctuation kept", "Really? Yes, really!", "Really? Yes, really!"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanComment(tt.in); got != tt.want {
				t.Errorf("CleanComment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanCommentDemojize(t *testing.T) {
	got := CleanComment("so funny 😂")
	if !strings.HasPrefix(got, "so funny ") {
		t.Fatalf("expected prefix preserved, got %q", got)
	}
	if strings.Contains(got, "😂") {
		t.Errorf("emoji should be replaced with its slug, got %q", got)
	}
	if !strings.Contains(got, "_") && len(got) <= len("so funny") {
		t.Errorf("expected a slug word after demojize, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc" {
		t.Errorf("Truncate = %q, want %q", got, "abc")
	}
	if got := Truncate("ab", 3); got != "ab" {
		t.Errorf("Truncate = %q, want %q", got, "ab")
	}
}

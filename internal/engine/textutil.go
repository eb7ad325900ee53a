package engine

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"golang.org/x/net/html"
)

// User-Agent strings used across HTTP clients.
const (
	UserAgentBot    = "GoTube/1.0"
	UserAgentChrome = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var userAgents = []string{
	UserAgentChrome,
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

// RandomUserAgent returns a browser User-Agent for scrape requests.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))] //nolint:gosec // non-cryptographic use
}

// NormLang normalises a language code: empty string → configured default.
func NormLang(lang string) string {
	if lang == "" {
		if cfg.PreferredLanguage != "" {
			return cfg.PreferredLanguage
		}
		return "en"
	}
	return lang
}

// CleanHTML extracts plain text from an HTML fragment using a token walk,
// decoding entities along the way. Caption lines and comment bodies arrive
// with markup (<b>, <br>, &amp;#39;) that must not leak into classifier input.
func CleanHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	tok := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			text := strings.TrimSpace(tok.Token().Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
	}
	return sb.String()
}

// Truncate returns the first n bytes of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	urlRE        = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	nonBasicRE   = regexp.MustCompile(`[^A-Za-z0-9\s.,!?_:]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// CleanComment normalizes a comment for sentiment classification:
// emojis become word slugs, URLs are dropped, only basic punctuation and
// alphanumerics survive, whitespace is collapsed.
func CleanComment(s string) string {
	for _, e := range gomoji.FindAll(s) {
		slug := strings.ReplaceAll(e.Slug, "-", "_")
		s = strings.ReplaceAll(s, e.Character, " "+slug+" ")
	}
	s = urlRE.ReplaceAllString(s, "")
	s = nonBasicRE.ReplaceAllString(s, "")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

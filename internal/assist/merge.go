package assist

import (
	"os"
	"strings"

	"github.com/starford/zhishi/internal/models"
)

// SummaryMarker prefixes the summary blockquote added by an analysis.
const SummaryMarker = "> **AI Summary**:"

// legacySummaryMarker is the marker written by earlier releases.
const legacySummaryMarker = "> **AI 摘要**:"

// HasSummary reports whether content already carries a summary blockquote.
func HasSummary(content string) bool {
	return strings.Contains(content, SummaryMarker) || strings.Contains(content, legacySummaryMarker)
}

// MergeAnalysis applies an analysis to n: tags become the union of the
// existing and proposed tags in first-occurrence order, and the summary is
// prepended as a blockquote unless one is already present.
func MergeAnalysis(n *models.Note, a Analysis) {
	n.Tags = unionTags(n.Tags, a.Tags)
	summary := strings.TrimSpace(a.Summary)
	if summary != "" && !HasSummary(n.Content) {
		n.Content = SummaryMarker + " " + summary + "\n\n" + n.Content
	}
}

func unionTags(existing, proposed []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(proposed))
	out := make([]string, 0, len(existing)+len(proposed))
	for _, list := range [][]string{existing, proposed} {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// EnvKey is the environment variable consulted when settings carry no key.
const EnvKey = "ZHISHI_API_KEY"

// HasCredential reports whether an AI request may be attempted: the
// settings carry a key, the environment does, or the endpoint is local.
func HasCredential(s models.Settings) bool {
	if s.APIKey != "" || os.Getenv(EnvKey) != "" {
		return true
	}
	return IsLocalEndpoint(s.BaseURL)
}

// IsLocalEndpoint reports whether baseURL points at a local model server.
func IsLocalEndpoint(baseURL string) bool {
	return strings.Contains(baseURL, "localhost") || strings.Contains(baseURL, "127.0.0.1")
}

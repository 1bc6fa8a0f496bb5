package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

var skipTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// NormalizeText strips any markup from s and collapses whitespace, giving
// the plain text fed to the embedding model. Non-HTML input passes through
// with whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsRune(s, '<') {
		return collapseSpace(s)
	}
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	var b strings.Builder
	collectText(root, &b)
	return collapseSpace(b.String())
}

// EmbeddingText builds the canonical input for a posting's embedding:
// the cleaned title and description, nothing else.
func EmbeddingText(title, description string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{title, description} {
		if cleaned := NormalizeText(p); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, skip := skipTags[n.Data]; skip {
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

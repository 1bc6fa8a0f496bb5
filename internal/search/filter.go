package search

import "github.com/gobwas/glob"

// IsBlocked reports whether a URL matches any operator-maintained block
// pattern. Patterns use shell-glob syntax where * crosses path separators,
// e.g. "*.workdayjobs.com/*" or "https://example.com/expired/*". Invalid
// patterns are skipped rather than failing the whole check.
func IsBlocked(link string, patterns []string) bool {
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		if g.Match(link) {
			return true
		}
	}
	return false
}

package search

import "strings"

// BuildQuery assembles the boolean query for one target domain: every seed
// title quoted and OR-joined, generic careers landing pages excluded, and
// results restricted to the domain. Pure string construction, deterministic
// for the same inputs.
func BuildQuery(titles []string, domain string) string {
	var parts []string
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, `"`+t+`"`)
	}

	var b strings.Builder
	if len(parts) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(parts, " OR "))
		b.WriteString(") ")
	}
	b.WriteString(`-intitle:"jobs at" -intitle:"careers" site:`)
	b.WriteString(domain)
	return b.String()
}

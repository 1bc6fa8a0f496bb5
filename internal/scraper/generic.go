package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brewmarsh/nokari/internal/store"
)

const locationsLabel = "Job Locations"

// extractGeneric is the last-resort strategy for pages no other extractor
// recognizes: title from the first h1 (else the page title), locations from
// a "Job Locations" label scan, description from the largest semantic
// content container.
func extractGeneric(doc *goquery.Document) *DetailRecord {
	rec := &DetailRecord{}

	rec.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if rec.Title == "" {
		return nil
	}
	rec.Title = cleanGenericTitle(rec.Title)

	rec.Locations = scanLabeledLocations(doc)
	rec.Description = mainContentText(doc)
	return rec
}

// cleanGenericTitle drops common "<title> | <company>" style suffixes,
// keeping the first segment.
func cleanGenericTitle(title string) string {
	for _, sep := range []string{" | ", " - ", " : "} {
		if idx := strings.Index(title, sep); idx >= 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

// scanLabeledLocations finds "Job Locations" labels and reads the value
// either from the remainder of the label's own text or from the next
// sibling element, supporting both layouts ATS templates use.
func scanLabeledLocations(doc *goquery.Document) []store.Location {
	var out []store.Location
	seen := map[string]struct{}{}

	add := func(locStr string) {
		locStr = strings.TrimSpace(strings.TrimPrefix(locStr, ":"))
		if locStr == "" {
			return
		}
		if _, ok := seen[locStr]; ok {
			return
		}
		seen[locStr] = struct{}{}
		out = append(out, store.Location{Type: store.WorkTypeOnsite, LocationString: locStr})
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		// Only consider elements whose own (direct) text carries the label,
		// not every ancestor of the text node.
		if !hasDirectText(s, locationsLabel) {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == locationsLabel {
			if sibling := s.Next(); sibling.Length() > 0 {
				add(strings.TrimSpace(sibling.Text()))
			}
			return
		}
		if strings.HasPrefix(text, locationsLabel) {
			add(strings.TrimSpace(strings.TrimPrefix(text, locationsLabel)))
		}
	})
	return out
}

func hasDirectText(s *goquery.Selection, substr string) bool {
	for _, node := range s.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.Contains(c.Data, substr) {
				return true
			}
		}
	}
	return false
}

// mainContentText returns whitespace-collapsed text from the page's main
// content container, preferring main over article over body.
func mainContentText(doc *goquery.Document) string {
	for _, selector := range []string{"main", "article", "body"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			return text
		}
	}
	return ""
}

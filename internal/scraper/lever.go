package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brewmarsh/nokari/internal/store"
)

func isLeverHost(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "lever.co" || strings.HasSuffix(host, ".lever.co")
}

// extractLever applies Lever-specific DOM heuristics: company from the first
// URL path segment, title from the posting headline h2, and location plus
// workplace type from their class-tagged divs.
func extractLever(doc *goquery.Document, pageURL string) *DetailRecord {
	if !isLeverHost(pageURL) {
		return nil
	}

	rec := &DetailRecord{}

	if u, err := url.Parse(pageURL); err == nil {
		if segments := strings.Split(strings.Trim(u.Path, "/"), "/"); len(segments) > 0 && segments[0] != "" {
			rec.Company = cases.Title(language.Und).String(segments[0])
		}
	}

	rec.Title = strings.TrimSpace(doc.Find("h2").First().Text())
	if rec.Title == "" {
		return nil
	}

	locationStr := strings.TrimSpace(doc.Find("div.location").First().Text())
	workplaceStr := strings.TrimSpace(doc.Find("div.workplaceTypes").First().Text())

	if locationStr != "" || workplaceStr != "" {
		locString := locationStr
		if locString == "" {
			locString = workplaceStr
		}
		rec.Locations = []store.Location{{
			Type:           inferWorkType(workplaceStr, locationStr),
			LocationString: locString,
		}}
	}

	rec.Description = mainContentText(doc)
	return rec
}

// inferWorkType keys off the workplace-type text first and falls back to
// keywords in the location text. Onsite is the default.
func inferWorkType(workplaceStr, locationStr string) string {
	if workplaceStr != "" {
		lower := strings.ToLower(workplaceStr)
		if strings.Contains(lower, "hybrid") {
			return store.WorkTypeHybrid
		}
		if strings.Contains(lower, "remote") {
			return store.WorkTypeRemote
		}
		return store.WorkTypeOnsite
	}
	lower := strings.ToLower(locationStr)
	if strings.Contains(lower, "remote") {
		return store.WorkTypeRemote
	}
	if strings.Contains(lower, "hybrid") {
		return store.WorkTypeHybrid
	}
	return store.WorkTypeOnsite
}

package scraper

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brewmarsh/nokari/internal/store"
)

// extractStructured pulls a JobPosting out of the page's embedded JSON-LD
// blocks. Structured data is trusted outright: when a posting with a title
// is found the record is returned as-is, after light title cleanup.
func extractStructured(doc *goquery.Document) *DetailRecord {
	var record *DetailRecord
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var payload any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return true
		}
		if posting := findJobPosting(payload); posting != nil {
			if rec := recordFromJSONLD(posting); rec != nil {
				record = rec
				return false
			}
		}
		return true
	})
	return record
}

func findJobPosting(payload any) map[string]any {
	switch t := payload.(type) {
	case map[string]any:
		if isJobPostingType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				if found := findJobPosting(item); found != nil {
					return found
				}
			}
		}
	case []any:
		for _, item := range t {
			if found := findJobPosting(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func recordFromJSONLD(payload map[string]any) *DetailRecord {
	rec := &DetailRecord{
		Title:       stringField(payload["title"]),
		Company:     orgName(payload["hiringOrganization"]),
		Description: stringField(payload["description"]),
		Locations:   structuredLocations(payload["jobLocation"]),
	}
	if rec.Title == "" {
		return nil
	}

	rec.Title = cleanStructuredTitle(rec.Title)
	if lower := strings.ToLower(rec.Company); lower == "careers" || lower == "job" {
		rec.Company = ""
	}
	if t := parseISODate(stringField(payload["datePosted"])); t != nil {
		rec.PostingDate = t
	}
	return rec
}

// cleanStructuredTitle strips " | Company" / " - Company" suffixes some ATS
// pages append to the structured title.
func cleanStructuredTitle(title string) string {
	if idx := strings.Index(title, " | "); idx >= 0 {
		title = title[:idx]
	}
	if idx := strings.Index(title, " - "); idx >= 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if val, ok := t["@value"]; ok {
			if str, ok2 := val.(string); ok2 {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

func orgName(v any) string {
	if name := stringField(v); name != "" {
		return name
	}
	if org, ok := v.(map[string]any); ok {
		return stringField(org["name"])
	}
	return ""
}

// structuredLocations converts schema.org Place entries into typed location
// records. Structured addresses carry no workplace-type signal, so entries
// default to onsite.
func structuredLocations(v any) []store.Location {
	entries, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil
		}
		entries = []any{v}
	}

	var out []store.Location
	for _, entry := range entries {
		place, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		addr, ok := place["address"].(map[string]any)
		if !ok {
			continue
		}
		locStr := joinParts(
			strings.ReplaceAll(stringField(addr["streetAddress"]), "\n", ", "),
			stringField(addr["addressLocality"]),
			stringField(addr["addressRegion"]),
			countryName(addr["addressCountry"]),
		)
		if locStr == "" {
			continue
		}
		out = append(out, store.Location{Type: store.WorkTypeOnsite, LocationString: locStr})
	}
	return out
}

func countryName(v any) string {
	if c, ok := v.(map[string]any); ok {
		return stringField(c["name"])
	}
	return stringField(v)
}

func parseISODate(val string) *time.Time {
	if val == "" {
		return nil
	}
	layouts := []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05-0700", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, val); err == nil {
			return &t
		}
	}
	return nil
}

func joinParts(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(p))
	}
	return strings.Join(out, ", ")
}

package scraper

import (
	"strings"
	"time"

	"github.com/brewmarsh/nokari/internal/search"
	"github.com/brewmarsh/nokari/internal/store"
)

const applicationPrefix = "Job Application for "

// detail companies that are page furniture, not employer names
var junkCompanies = map[string]struct{}{
	"careers": {},
	"home":    {},
	"index":   {},
	"job":     {},
}

// MergeRecord combines a search result with an optional detail record into
// one canonical posting. Detail fields win field-by-field when non-empty;
// detail locations replace the keyword-inferred ones wholesale. The title
// is then run through the normalizer so embedded company names and work
// tags end up in their own fields.
func MergeRecord(result search.RawResult, detail *DetailRecord, domain string) store.JobPosting {
	job := store.JobPosting{
		Link:        result.Link,
		Title:       result.Title,
		Description: result.Snippet,
		Company:     snippetCompany(result, domain),
		Locations:   inferSnippetLocations(result),
		PostingDate: snippetPostingDate(result),
	}

	if detail != nil {
		if detail.Title != "" {
			job.Title = detail.Title
		}
		if detail.Description != "" {
			job.Description = detail.Description
		}
		if detail.Company != "" {
			if _, junk := junkCompanies[strings.ToLower(detail.Company)]; !junk {
				job.Company = detail.Company
			}
		}
		if len(detail.Locations) > 0 {
			job.Locations = detail.Locations
		}
		if detail.PostingDate != nil {
			job.PostingDate = detail.PostingDate
		}
	}

	if strings.HasPrefix(job.Title, applicationPrefix) {
		job.Title = strings.TrimSpace(strings.TrimPrefix(job.Title, applicationPrefix))
	}

	parsed := ParseTitle(job.Title)
	job.Title = parsed.CleanedTitle
	if parsed.Company != "" && job.Company == "" {
		job.Company = parsed.Company
	}
	job.Locations = AppendWorkTypes(job.Locations, parsed.WorkTypes)

	if len(job.Locations) == 0 {
		job.Locations = []store.Location{{Type: store.WorkTypeOnsite}}
	}
	return job
}

// snippetCompany uses the page's og:site_name when present, else the first
// label of the search domain. A company is never a bare URL.
func snippetCompany(result search.RawResult, domain string) string {
	company := strings.TrimSpace(result.Metatags["og:site_name"])
	if company == "" {
		company = strings.SplitN(domain, ".", 2)[0]
	}
	if strings.HasPrefix(company, "http://") || strings.HasPrefix(company, "https://") {
		return ""
	}
	return company
}

// inferSnippetLocations keyword-scans the title and snippet for work
// arrangements. The joblocation metatag, when present, becomes the location
// string for hybrid and onsite entries.
func inferSnippetLocations(result search.RawResult) []store.Location {
	fullText := strings.ToLower(result.Title + " " + result.Snippet)
	locationString := result.Metatags["joblocation"]

	var locations []store.Location
	if strings.Contains(fullText, "remote") {
		locations = append(locations, store.Location{Type: store.WorkTypeRemote})
	}
	if strings.Contains(fullText, "hybrid") {
		locations = append(locations, store.Location{Type: store.WorkTypeHybrid, LocationString: locationString})
	}
	if strings.Contains(fullText, "onsite") {
		locations = append(locations, store.Location{Type: store.WorkTypeOnsite, LocationString: locationString})
	}
	if len(locations) == 0 {
		locations = append(locations, store.Location{Type: store.WorkTypeOnsite, LocationString: locationString})
	}
	return locations
}

// snippetPostingDate reads a date from the page metatags. Absent rather
// than guessed when nothing parses.
func snippetPostingDate(result search.RawResult) *time.Time {
	val := result.Metatags["pubdate"]
	if val == "" {
		val = result.Metatags["date"]
	}
	if val == "" {
		val = result.Metatags["publishdate"]
	}
	if val == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil
	}
	return &t
}

// AppendWorkTypes adds parsed work-arrangement tags not already present.
func AppendWorkTypes(locations []store.Location, workTypes []string) []store.Location {
	existing := map[string]struct{}{}
	for _, loc := range locations {
		existing[loc.Type] = struct{}{}
	}
	for _, wt := range workTypes {
		if _, ok := existing[wt]; ok {
			continue
		}
		existing[wt] = struct{}{}
		locations = append(locations, store.Location{Type: wt})
	}
	return locations
}

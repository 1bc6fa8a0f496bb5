package scraper

import (
	"regexp"
	"strings"
)

// ParsedTitle is the outcome of splitting a raw title string into its parts.
// Company is empty when the split was ambiguous: when both or neither side
// of a separator looks like a job title, no extraction happens at all rather
// than a guess.
type ParsedTitle struct {
	CleanedTitle string
	Company      string
	WorkTypes    []string
}

var workTypeRe = regexp.MustCompile(`(?i)\b(remote|hybrid|on-?site)\b`)

// titleKeywords is the vocabulary used to decide which side of a separator
// is the job title.
var titleKeywords = []string{
	"engineer",
	"developer",
	"manager",
	"director",
	"analyst",
	"designer",
	"architect",
	"scientist",
	"consultant",
	"specialist",
	"coordinator",
	"administrator",
	"lead",
	"intern",
	"recruiter",
	"marketer",
	"accountant",
	"technician",
	"writer",
	"president",
	"officer",
	"head of",
}

// separators in priority order. " at " splits on its last occurrence and the
// right-hand side is trusted as the company; the rest split on the first
// occurrence and both sides are tested against the title vocabulary.
var companySeparators = []string{" at ", " | ", " - ", ","}

const separatorCutset = " ,-|:"

// ParseTitle picks apart a raw scraped title like
// "Senior Analyst at ACME Corp" or "Software Engineer - Remote" into a
// cleaned title, an optional company, and any work-arrangement tags.
func ParseTitle(raw string) ParsedTitle {
	working := raw

	var workTypes []string
	seen := map[string]struct{}{}
	for _, m := range workTypeRe.FindAllString(working, -1) {
		wt := strings.ToLower(strings.ReplaceAll(m, "-", ""))
		if _, ok := seen[wt]; ok {
			continue
		}
		seen[wt] = struct{}{}
		workTypes = append(workTypes, wt)
	}
	working = workTypeRe.ReplaceAllString(working, "")
	working = strings.Join(strings.Fields(working), " ")

	title := working
	company := ""

	for _, sep := range companySeparators {
		idx := strings.Index(working, sep)
		if sep == " at " {
			idx = strings.LastIndex(working, sep)
		}
		if idx < 0 {
			continue
		}

		left := strings.TrimSpace(working[:idx])
		right := strings.TrimSpace(working[idx+len(sep):])

		if sep == " at " {
			if left != "" && right != "" {
				title = left
				company = right
			}
			break
		}

		leftIsTitle := looksLikeJobTitle(left)
		rightIsTitle := looksLikeJobTitle(right)
		if leftIsTitle == rightIsTitle {
			// Ambiguous. Leave the split unresolved.
			break
		}
		if leftIsTitle {
			title = left
			company = right
		} else {
			title = right
			company = left
		}
		break
	}

	title = strings.Trim(title, separatorCutset)
	company = strings.Trim(company, separatorCutset)

	if title == "" {
		title = raw
	}

	return ParsedTitle{
		CleanedTitle: title,
		Company:      company,
		WorkTypes:    workTypes,
	}
}

func looksLikeJobTitle(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

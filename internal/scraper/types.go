package scraper

import (
	"time"

	"github.com/brewmarsh/nokari/internal/store"
)

// DetailRecord holds fields extracted from a posting's own page. Empty
// fields mean the page had no signal; the merger keeps the search-snippet
// value in that case.
type DetailRecord struct {
	Title       string
	Company     string
	Description string
	Locations   []store.Location
	PostingDate *time.Time
}

package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewmarsh/nokari/internal/store"
)

func TestExtractGenericFromH1(t *testing.T) {
	page := `<html><head><title>ignored</title></head><body>
	<h1>Staff Engineer | ACME</h1>
	<main>Distributed systems work across three teams.</main>
	</body></html>`

	rec := extractGeneric(docFromHTML(t, page))
	require.NotNil(t, rec)
	assert.Equal(t, "Staff Engineer", rec.Title)
	assert.Equal(t, "Distributed systems work across three teams.", rec.Description)
}

func TestExtractGenericTitleTagFallback(t *testing.T) {
	page := `<html><head><title>Product Designer - ACME : Careers</title></head><body>
	<p>content</p>
	</body></html>`

	rec := extractGeneric(docFromHTML(t, page))
	require.NotNil(t, rec)
	assert.Equal(t, "Product Designer", rec.Title)
}

func TestExtractGenericNoTitle(t *testing.T) {
	page := `<html><body><p>nothing here</p></body></html>`
	assert.Nil(t, extractGeneric(docFromHTML(t, page)))
}

func TestScanLabeledLocationsSibling(t *testing.T) {
	page := `<html><body><h1>Engineer</h1>
	<dl>
		<dt>Job Locations</dt>
		<dd>US-TX-Austin</dd>
	</dl>
	</body></html>`

	rec := extractGeneric(docFromHTML(t, page))
	require.NotNil(t, rec)
	require.Len(t, rec.Locations, 1)
	assert.Equal(t, store.Location{Type: store.WorkTypeOnsite, LocationString: "US-TX-Austin"}, rec.Locations[0])
}

func TestScanLabeledLocationsInline(t *testing.T) {
	page := `<html><body><h1>Engineer</h1>
	<span>Job Locations: US-CA-San Jose</span>
	</body></html>`

	rec := extractGeneric(docFromHTML(t, page))
	require.NotNil(t, rec)
	require.Len(t, rec.Locations, 1)
	assert.Equal(t, "US-CA-San Jose", rec.Locations[0].LocationString)
}

func TestScanLabeledLocationsDeduped(t *testing.T) {
	page := `<html><body><h1>Engineer</h1>
	<span>Job Locations: US-NY-New York</span>
	<span>Job Locations: US-NY-New York</span>
	</body></html>`

	rec := extractGeneric(docFromHTML(t, page))
	require.NotNil(t, rec)
	assert.Len(t, rec.Locations, 1)
}

func TestMainContentTextPreference(t *testing.T) {
	page := `<html><body>
	<article>article   text</article>
	<main>main
	text</main>
	</body></html>`

	assert.Equal(t, "main text", mainContentText(docFromHTML(t, page)))
}

package scraper

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/brewmarsh/nokari/internal/httpx"
	"github.com/brewmarsh/nokari/internal/observability"
)

// pageFetcher is what the detail service needs from the HTTP layer.
type pageFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// Service fetches a posting's own page and extracts structured fields using
// an ordered strategy chain: embedded JSON-LD first, then an iframe follow
// for embedded-ATS content, then platform heuristics, then a generic
// fallback. The first strategy that produces a record wins.
type Service struct {
	fetcher pageFetcher
}

func NewService(fetcher pageFetcher) *Service {
	return &Service{fetcher: fetcher}
}

// FetchDetails retrieves and parses one posting page. Transport failures
// are reported as errors so the caller can classify them (a 404 drives the
// re-scrape deletion policy); during discovery any error simply means
// "proceed with snippet data only".
func (s *Service) FetchDetails(ctx context.Context, pageURL string) (*DetailRecord, error) {
	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "detail_fetch")
		return nil, err
	}
	observability.IncPagesFetched("detail_fetch")

	if rec := extractStructured(doc); rec != nil {
		return rec, nil
	}

	doc, pageURL = s.followEmbeddedFrame(ctx, doc, pageURL)

	if rec := extractStructured(doc); rec != nil {
		return rec, nil
	}
	if rec := extractLever(doc, pageURL); rec != nil {
		return rec, nil
	}
	return extractGeneric(doc), nil
}

// iCIMS boards render the actual posting inside a content iframe.
var embeddedFrameIDs = []string{"icims_content_iframe", "noscript_icims_content_iframe"}

// followEmbeddedFrame swaps in the document behind a known ATS content
// frame so the remaining strategies run against the real posting markup.
// On any failure the outer page is kept.
func (s *Service) followEmbeddedFrame(ctx context.Context, doc *goquery.Document, pageURL string) (*goquery.Document, string) {
	var src string
	for _, id := range embeddedFrameIDs {
		if v, ok := doc.Find("iframe#" + id).First().Attr("src"); ok && v != "" {
			src = v
			break
		}
	}
	if src == "" {
		return doc, pageURL
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return doc, pageURL
	}
	ref, err := url.Parse(src)
	if err != nil {
		return doc, pageURL
	}
	frameURL := base.ResolveReference(ref).String()

	frameDoc, err := s.fetcher.FetchDocument(ctx, frameURL)
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "detail_fetch")
		slog.Warn("failed to follow content iframe", "url", frameURL, "error", err)
		return doc, pageURL
	}
	observability.IncPagesFetched("detail_fetch")
	return frameDoc, frameURL
}

// IsNotFound re-exports the transport-level 404 check so callers of the
// detail service do not need to import httpx.
func IsNotFound(err error) bool {
	return httpx.IsNotFound(err)
}

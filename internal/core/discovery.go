package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brewmarsh/nokari/internal/observability"
	"github.com/brewmarsh/nokari/internal/scraper"
	"github.com/brewmarsh/nokari/internal/search"
	"github.com/brewmarsh/nokari/internal/store"
)

// DiscoveryOptions narrows a discovery run. Zero value means the full
// curated run: every seed title across every domain.
type DiscoveryOptions struct {
	// Titles overrides the curated seed titles when non-empty.
	Titles []string
	// Days restricts results to postings indexed in the last N days.
	// Zero means no restriction.
	Days int
	// RequestedBy tags the audit entry ("scheduler", "api", "similar").
	RequestedBy string
}

// DiscoveryResult summarizes one run across all domains.
type DiscoveryResult struct {
	Domains int      `json:"domains"`
	Found   int      `json:"found"`
	Added   int      `json:"added"`
	Status  string   `json:"status"`
	Errors  []string `json:"errors,omitempty"`
}

// RunDiscovery executes one full pass: one provider query per domain, each
// result scraped for details, merged, and conditionally inserted. A failing
// domain never aborts the run; it is recorded and the remaining domains
// proceed. Every run appends exactly one history entry, including runs that
// find nothing.
func (s *Service) RunDiscovery(ctx context.Context, opts DiscoveryOptions) (*DiscoveryResult, error) {
	start := time.Now()

	titles := opts.Titles
	if len(titles) == 0 {
		curated, err := s.store.ListSeedTitles(ctx)
		if err != nil {
			return nil, fmt.Errorf("load seed titles: %w", err)
		}
		titles = curated
	}
	domains, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("load domains: %w", err)
	}
	patterns, err := s.store.ListBlockedPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocked patterns: %w", err)
	}

	days := opts.Days
	if days == 0 {
		days = s.scrapeDays
	}

	result := &DiscoveryResult{Domains: len(domains)}

	// No titles means no query can be built: the run cannot proceed at all.
	if len(titles) == 0 {
		result.Status = store.StatusFailure
		duration := time.Since(start).Seconds()
		entry := store.ScrapeHistory{
			Status:          result.Status,
			Details:         "No searchable job titles configured; nothing to scrape.",
			DurationSeconds: &duration,
			RequestedBy:     opts.RequestedBy,
		}
		if err := s.store.AppendScrapeHistory(ctx, entry); err != nil {
			observability.IncError(observability.ErrorStore, "discovery")
			slog.Error("discovery history append failed", "error", err)
		}
		slog.Error("discovery run aborted", "reason", "no seed titles")
		return result, nil
	}

	succeeded := 0
	for _, domain := range domains {
		found, added, err := s.discoverDomain(ctx, titles, domain, patterns, days)
		result.Found += found
		result.Added += added
		if err != nil {
			observability.IncError(observability.ClassifyScrapeError(err), "discovery")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", domain, err))
			slog.Error("discovery domain failed", "domain", domain, "error", err)
			continue
		}
		succeeded++
	}

	switch {
	case len(result.Errors) == 0:
		result.Status = store.StatusSuccess
	case succeeded > 0:
		result.Status = store.StatusPartialFailure
	default:
		result.Status = store.StatusFailure
	}

	duration := time.Since(start).Seconds()
	observability.ObserveScrapeDuration("discovery", duration)

	details := fmt.Sprintf("Scraped %d domain(s). Found: %d, Added: %d.", len(domains), result.Found, result.Added)
	if len(result.Errors) > 0 {
		details += " Errors: " + strings.Join(result.Errors, "; ")
	}
	entry := store.ScrapeHistory{
		Status:          result.Status,
		JobsFound:       result.Found,
		Details:         details,
		DurationSeconds: &duration,
		RequestedBy:     opts.RequestedBy,
	}
	if err := s.store.AppendScrapeHistory(ctx, entry); err != nil {
		observability.IncError(observability.ErrorStore, "discovery")
		slog.Error("discovery history append failed", "error", err)
	}

	slog.Info("discovery run complete",
		"status", result.Status,
		"domains", len(domains),
		"found", result.Found,
		"added", result.Added,
		"duration_seconds", duration,
	)
	return result, nil
}

// discoverDomain runs the provider query for one domain and ingests every
// unblocked result.
func (s *Service) discoverDomain(ctx context.Context, titles []string, domain string, patterns []string, days int) (found, added int, err error) {
	query := search.BuildQuery(titles, domain)
	observability.IncSearchesRun(domain)
	results, err := s.searcher.Search(ctx, query, days)
	if err != nil {
		return 0, 0, fmt.Errorf("search: %w", err)
	}

	for _, res := range results {
		if res.Link == "" || search.IsBlocked(res.Link, patterns) {
			continue
		}
		found++
		observability.IncJobsFound(domain)

		detail, derr := s.details.FetchDetails(ctx, res.Link)
		if derr != nil {
			// snippet-only ingest; search metadata still makes a
			// useful record
			slog.Warn("detail fetch failed", "link", res.Link, "error", derr)
			detail = nil
		}

		job := scraper.MergeRecord(res, detail, domain)
		created, cerr := s.store.CreateJobIfNew(ctx, job)
		if cerr != nil {
			observability.IncError(observability.ErrorStore, "discovery")
			slog.Error("job insert failed", "link", job.Link, "error", cerr)
			continue
		}
		if !created {
			continue
		}
		added++
		observability.IncJobsCreated(domain)
		s.embedJob(ctx, job)
	}
	return found, added, nil
}

// embedJob computes and stores a posting's embedding. Best effort: a
// missing embedding is recoverable by the backfill task.
func (s *Service) embedJob(ctx context.Context, job store.JobPosting) {
	text := scraper.EmbeddingText(job.Title, job.Description)
	if text == "" {
		return
	}
	observability.IncEmbeddingCall("discovery")
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		observability.IncError(observability.ErrorEmbedding, "discovery")
		slog.Warn("embedding failed", "link", job.Link, "error", err)
		return
	}
	if err := s.store.SetJobEmbedding(ctx, job.Link, vec); err != nil {
		observability.IncError(observability.ErrorStore, "discovery")
		slog.Warn("embedding store failed", "link", job.Link, "error", err)
	}
}

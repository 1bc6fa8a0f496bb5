package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brewmarsh/nokari/internal/observability"
	"github.com/brewmarsh/nokari/internal/scraper"
)

// BackfillEmbeddings embeds up to limit postings that have no vector yet.
// Returns how many were embedded.
func (s *Service) BackfillEmbeddings(ctx context.Context, limit int) (int, error) {
	jobs, err := s.store.ListJobsMissingEmbedding(ctx, limit)
	if err != nil {
		return 0, err
	}

	embedded := 0
	for _, job := range jobs {
		text := scraper.EmbeddingText(job.Title, job.Description)
		if text == "" {
			continue
		}
		observability.IncEmbeddingCall("backfill")
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			observability.IncError(observability.ErrorEmbedding, "backfill")
			slog.Warn("backfill embedding failed", "link", job.Link, "error", err)
			continue
		}
		if err := s.store.SetJobEmbedding(ctx, job.Link, vec); err != nil {
			observability.IncError(observability.ErrorStore, "backfill")
			slog.Warn("backfill embedding store failed", "link", job.Link, "error", err)
			continue
		}
		embedded++
	}

	slog.Info("embedding backfill complete", "candidates", len(jobs), "embedded", embedded)
	return embedded, nil
}

// BackfillTitles re-runs title parsing over every stored posting, moving
// embedded company names and work tags out of titles written before the
// parser learned to split them. Returns how many rows changed.
func (s *Service) BackfillTitles(ctx context.Context) (int, error) {
	jobs, err := s.store.ListAllJobs(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, job := range jobs {
		title := job.Title
		if strings.HasPrefix(title, "Job Application for ") {
			title = strings.TrimSpace(strings.TrimPrefix(title, "Job Application for "))
		}
		parsed := scraper.ParseTitle(title)

		company := job.Company
		if parsed.Company != "" && (company == "" || looksLikeURL(company)) {
			company = parsed.Company
		}
		locations := scraper.AppendWorkTypes(job.Locations, parsed.WorkTypes)

		if parsed.CleanedTitle == job.Title && company == job.Company && len(locations) == len(job.Locations) {
			continue
		}
		if err := s.store.UpdateJobParsed(ctx, job.Link, parsed.CleanedTitle, company, locations); err != nil {
			observability.IncError(observability.ErrorStore, "title_backfill")
			slog.Warn("title backfill update failed", "link", job.Link, "error", err)
			continue
		}
		updated++
	}

	slog.Info("title backfill complete", "scanned", len(jobs), "updated", updated)
	return updated, nil
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

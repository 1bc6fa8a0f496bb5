package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewmarsh/nokari/internal/observability"
	"github.com/brewmarsh/nokari/internal/scraper"
)

// RescrapeResult reports what happened to a posting on re-scrape.
type RescrapeResult struct {
	Link    string `json:"link"`
	Deleted bool   `json:"deleted"`
	Updated bool   `json:"updated"`
}

// RescrapeJob refreshes a stored posting from its source page. A page that
// has gone away (404) means the posting is dead and gets deleted. Any other
// fetch or extraction failure leaves the stored record untouched.
func (s *Service) RescrapeJob(ctx context.Context, link string) (*RescrapeResult, error) {
	job, err := s.store.GetJobByLink(ctx, link)
	if err != nil {
		return nil, err
	}

	detail, err := s.details.FetchDetails(ctx, link)
	if err != nil {
		if scraper.IsNotFound(err) {
			if derr := s.store.DeleteJobByLink(ctx, link); derr != nil {
				return nil, fmt.Errorf("delete dead posting: %w", derr)
			}
			slog.Info("posting deleted, source page gone", "link", link)
			return &RescrapeResult{Link: link, Deleted: true}, nil
		}
		return nil, fmt.Errorf("fetch details: %w", err)
	}

	title := job.Title
	if detail.Title != "" {
		parsed := scraper.ParseTitle(detail.Title)
		title = parsed.CleanedTitle
	}
	description := job.Description
	if detail.Description != "" {
		description = detail.Description
	}
	locations := job.Locations
	if len(detail.Locations) > 0 {
		locations = detail.Locations
	}

	if err := s.store.UpdateJobDetails(ctx, link, title, description, locations); err != nil {
		observability.IncError(observability.ErrorStore, "rescrape")
		return nil, fmt.Errorf("update posting: %w", err)
	}

	refreshed := *job
	refreshed.Title = title
	refreshed.Description = description
	s.embedJob(ctx, refreshed)

	slog.Info("posting rescraped", "link", link)
	return &RescrapeResult{Link: link, Updated: true}, nil
}

// Package core runs the discovery pipeline: querying the search provider
// for curated titles across curated domains, scraping detail pages,
// deduplicating by link, and embedding postings for similarity search.
package core

import (
	"context"
	"errors"

	"github.com/brewmarsh/nokari/internal/embed"
	"github.com/brewmarsh/nokari/internal/scraper"
	"github.com/brewmarsh/nokari/internal/search"
	"github.com/brewmarsh/nokari/internal/store"
)

// ErrNoEmbedding is returned when a similarity query targets a posting that
// has no embedding vector yet.
var ErrNoEmbedding = errors.New("core: job has no embedding")

// Storage is the slice of the persistence layer the pipeline needs.
type Storage interface {
	ListSeedTitles(ctx context.Context) ([]string, error)
	ListDomains(ctx context.Context) ([]string, error)
	ListBlockedPatterns(ctx context.Context) ([]string, error)
	CreateJobIfNew(ctx context.Context, job store.JobPosting) (bool, error)
	GetJobByLink(ctx context.Context, link string) (*store.JobPosting, error)
	ListEmbeddedJobs(ctx context.Context) ([]store.JobPosting, error)
	ListJobsMissingEmbedding(ctx context.Context, limit int) ([]store.JobPosting, error)
	ListAllJobs(ctx context.Context) ([]store.JobPosting, error)
	UpdateJobDetails(ctx context.Context, link, title, description string, locations []store.Location) error
	UpdateJobParsed(ctx context.Context, link, title, company string, locations []store.Location) error
	SetJobEmbedding(ctx context.Context, link string, embedding []float64) error
	DeleteJobByLink(ctx context.Context, link string) error
	AppendScrapeHistory(ctx context.Context, entry store.ScrapeHistory) error
}

// Searcher issues one provider query and returns raw results.
type Searcher interface {
	Search(ctx context.Context, query string, days int) ([]search.RawResult, error)
}

// DetailFetcher scrapes a posting page into a detail record.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, pageURL string) (*scraper.DetailRecord, error)
}

// TaskSubmitter enqueues background work. May be absent in tools that run
// the pipeline synchronously.
type TaskSubmitter interface {
	Submit(ctx context.Context, name string, args map[string]string) (string, error)
}

type Service struct {
	store    Storage
	searcher Searcher
	details  DetailFetcher
	embedder embed.Client
	queue    TaskSubmitter

	scrapeDays int
}

func NewService(st Storage, searcher Searcher, details DetailFetcher, embedder embed.Client, queue TaskSubmitter, scrapeDays int) *Service {
	return &Service{
		store:      st,
		searcher:   searcher,
		details:    details,
		embedder:   embedder,
		queue:      queue,
		scrapeDays: scrapeDays,
	}
}

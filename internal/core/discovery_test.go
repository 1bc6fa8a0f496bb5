package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewmarsh/nokari/internal/scraper"
	"github.com/brewmarsh/nokari/internal/search"
	"github.com/brewmarsh/nokari/internal/store"
)

type fakeStore struct {
	titles   []string
	domains  []string
	patterns []string

	jobs    map[string]*store.JobPosting
	history []store.ScrapeHistory
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]*store.JobPosting{}}
}

func (f *fakeStore) ListSeedTitles(context.Context) ([]string, error) { return f.titles, nil }
func (f *fakeStore) ListDomains(context.Context) ([]string, error)    { return f.domains, nil }
func (f *fakeStore) ListBlockedPatterns(context.Context) ([]string, error) {
	return f.patterns, nil
}

func (f *fakeStore) CreateJobIfNew(_ context.Context, job store.JobPosting) (bool, error) {
	if _, exists := f.jobs[job.Link]; exists {
		return false, nil
	}
	j := job
	f.jobs[job.Link] = &j
	return true, nil
}

func (f *fakeStore) GetJobByLink(_ context.Context, link string) (*store.JobPosting, error) {
	job, ok := f.jobs[link]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeStore) ListEmbeddedJobs(context.Context) ([]store.JobPosting, error) {
	var out []store.JobPosting
	for _, j := range f.jobs {
		if len(j.Embedding) > 0 {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListJobsMissingEmbedding(context.Context, int) ([]store.JobPosting, error) {
	var out []store.JobPosting
	for _, j := range f.jobs {
		if len(j.Embedding) == 0 {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllJobs(context.Context) ([]store.JobPosting, error) {
	var out []store.JobPosting
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeStore) UpdateJobDetails(_ context.Context, link, title, description string, locations []store.Location) error {
	job, ok := f.jobs[link]
	if !ok {
		return store.ErrNotFound
	}
	job.Title = title
	job.Description = description
	job.Locations = locations
	return nil
}

func (f *fakeStore) UpdateJobParsed(_ context.Context, link, title, company string, locations []store.Location) error {
	job, ok := f.jobs[link]
	if !ok {
		return store.ErrNotFound
	}
	job.Title = title
	job.Company = company
	job.Locations = locations
	return nil
}

func (f *fakeStore) SetJobEmbedding(_ context.Context, link string, embedding []float64) error {
	job, ok := f.jobs[link]
	if !ok {
		return store.ErrNotFound
	}
	job.Embedding = embedding
	return nil
}

func (f *fakeStore) DeleteJobByLink(_ context.Context, link string) error {
	if _, ok := f.jobs[link]; !ok {
		return store.ErrNotFound
	}
	delete(f.jobs, link)
	f.deleted = append(f.deleted, link)
	return nil
}

func (f *fakeStore) AppendScrapeHistory(_ context.Context, entry store.ScrapeHistory) error {
	f.history = append(f.history, entry)
	return nil
}

type fakeSearcher struct {
	// keyed by the site: clause so tests control per-domain behavior
	results map[string][]search.RawResult
	errs    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]search.RawResult, error) {
	f.queries = append(f.queries, query)
	for domain, err := range f.errs {
		if strings.Contains(query, "site:"+domain) {
			return nil, err
		}
	}
	for domain, res := range f.results {
		if strings.Contains(query, "site:"+domain) {
			return res, nil
		}
	}
	return nil, nil
}

type fakeDetails struct {
	records map[string]*scraper.DetailRecord
	errs    map[string]error
}

func (f *fakeDetails) FetchDetails(_ context.Context, pageURL string) (*scraper.DetailRecord, error) {
	if err, ok := f.errs[pageURL]; ok {
		return nil, err
	}
	if rec, ok := f.records[pageURL]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("no detail for %s", pageURL)
}

type fakeEmbedder struct {
	vec  []float64
	err  error
	seen []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.seen = append(f.seen, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeQueue struct {
	submitted []struct {
		Name string
		Args map[string]string
	}
	err error
}

func (f *fakeQueue) Submit(_ context.Context, name string, args map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, struct {
		Name string
		Args map[string]string
	}{name, args})
	return fmt.Sprintf("task-%d", len(f.submitted)), nil
}

func result(title, link, snippet string) search.RawResult {
	return search.RawResult{Title: title, Link: link, Snippet: snippet, Metatags: map[string]string{}}
}

func TestRunDiscoveryIngestsAndEmbeds(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Software Engineer"}
	st.domains = []string{"example.com"}

	searcher := &fakeSearcher{results: map[string][]search.RawResult{
		"example.com": {
			result("Software Engineer - Remote", "https://example.com/jobs/1", "great remote role"),
		},
	}}
	details := &fakeDetails{records: map[string]*scraper.DetailRecord{
		"https://example.com/jobs/1": {
			Title:       "Software Engineer",
			Company:     "ACME",
			Description: "Build backend services in Go.",
		},
	}}
	emb := &fakeEmbedder{vec: []float64{1, 0, 0}}

	svc := NewService(st, searcher, details, emb, nil, 0)
	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)

	assert.Equal(t, store.StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 1, res.Added)

	job, err := st.GetJobByLink(context.Background(), "https://example.com/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", job.Title)
	assert.Equal(t, "ACME", job.Company)
	assert.NotEmpty(t, job.Locations)
	assert.Equal(t, []float64{1, 0, 0}, job.Embedding)

	// only the title and description feed the embedding
	require.Len(t, emb.seen, 1)
	assert.Equal(t, "Software Engineer\nBuild backend services in Go.", emb.seen[0])
}

func TestRunDiscoveryIdempotent(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"example.com"}

	searcher := &fakeSearcher{results: map[string][]search.RawResult{
		"example.com": {result("Engineer", "https://example.com/jobs/1", "snippet")},
	}}
	details := &fakeDetails{}
	emb := &fakeEmbedder{vec: []float64{1}}
	svc := NewService(st, searcher, details, emb, nil, 0)

	first, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)

	second, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Found)
	assert.Equal(t, 0, second.Added)
	assert.Len(t, st.jobs, 1)
}

func TestRunDiscoveryDomainFailureIsContained(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"broken.com", "example.com"}

	searcher := &fakeSearcher{
		results: map[string][]search.RawResult{
			"example.com": {result("Engineer", "https://example.com/jobs/1", "snippet")},
		},
		errs: map[string]error{
			"broken.com": &search.ProviderError{Err: errors.New("status 500")},
		},
	}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)

	assert.Equal(t, store.StatusPartialFailure, res.Status)
	assert.Equal(t, 1, res.Added)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "broken.com")
}

func TestRunDiscoveryAllDomainsFailed(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"a.com", "b.com"}

	searcher := &fakeSearcher{errs: map[string]error{
		"a.com": search.ErrNotConfigured,
		"b.com": search.ErrNotConfigured,
	}}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailure, res.Status)
	assert.Equal(t, 0, res.Added)
}

func TestRunDiscoveryBlockedLinksSkipped(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"example.com"}
	st.patterns = []string{"*expired*"}

	searcher := &fakeSearcher{results: map[string][]search.RawResult{
		"example.com": {
			result("Engineer", "https://example.com/expired/1", "old"),
			result("Engineer", "https://example.com/jobs/2", "fresh"),
		},
	}}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Len(t, st.jobs, 1)
	assert.NotContains(t, st.jobs, "https://example.com/expired/1")
}

func TestRunDiscoveryDetailFailureKeepsSnippet(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"example.com"}

	searcher := &fakeSearcher{results: map[string][]search.RawResult{
		"example.com": {result("Platform Engineer", "https://example.com/jobs/1", "the snippet text")},
	}}
	details := &fakeDetails{errs: map[string]error{
		"https://example.com/jobs/1": errors.New("connection refused"),
	}}
	svc := NewService(st, searcher, details, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Added)

	job := st.jobs["https://example.com/jobs/1"]
	require.NotNil(t, job)
	assert.Equal(t, "the snippet text", job.Description)
	assert.NotEmpty(t, job.Locations)
}

func TestRunDiscoveryEmbeddingFailureStillPersists(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = []string{"example.com"}

	searcher := &fakeSearcher{results: map[string][]search.RawResult{
		"example.com": {result("Engineer", "https://example.com/jobs/1", "snippet")},
	}}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{err: errors.New("model down")}, nil, 0)

	res, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	job := st.jobs["https://example.com/jobs/1"]
	require.NotNil(t, job)
	assert.Empty(t, job.Embedding)
}

func TestRunDiscoveryAppendsHistoryEveryRun(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Engineer"}
	st.domains = nil // nothing to do, still audited

	svc := NewService(st, &fakeSearcher{}, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	_, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{RequestedBy: "api"})
	require.NoError(t, err)

	require.Len(t, st.history, 1)
	entry := st.history[0]
	assert.Equal(t, store.StatusSuccess, entry.Status)
	assert.Equal(t, 0, entry.JobsFound)
	assert.Equal(t, "api", entry.RequestedBy)
	assert.Contains(t, entry.Details, "Scraped 0 domain(s). Found: 0, Added: 0.")
	require.NotNil(t, entry.DurationSeconds)
}

func TestRunDiscoveryNoSeedTitlesFails(t *testing.T) {
	st := newFakeStore()
	st.titles = nil
	st.domains = []string{"boards.example.com"}

	searcher := &fakeSearcher{}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	result, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{RequestedBy: "scheduler"})
	require.NoError(t, err)

	assert.Equal(t, store.StatusFailure, result.Status)
	assert.Empty(t, searcher.queries)

	require.Len(t, st.history, 1)
	entry := st.history[0]
	assert.Equal(t, store.StatusFailure, entry.Status)
	assert.Equal(t, "scheduler", entry.RequestedBy)
	assert.Contains(t, entry.Details, "No searchable job titles configured")
	require.NotNil(t, entry.DurationSeconds)
}

func TestRunDiscoveryTitleOverride(t *testing.T) {
	st := newFakeStore()
	st.titles = []string{"Curated Title"}
	st.domains = []string{"example.com"}

	searcher := &fakeSearcher{}
	svc := NewService(st, searcher, &fakeDetails{}, &fakeEmbedder{vec: []float64{1}}, nil, 0)

	_, err := svc.RunDiscovery(context.Background(), DiscoveryOptions{Titles: []string{"Seeded Title"}})
	require.NoError(t, err)

	require.Len(t, searcher.queries, 1)
	assert.Contains(t, searcher.queries[0], `"Seeded Title"`)
	assert.NotContains(t, searcher.queries[0], "Curated Title")
}

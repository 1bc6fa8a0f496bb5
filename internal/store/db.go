package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a lookup by link matches no posting.
var ErrNotFound = errors.New("store: not found")

const (
	StatusSuccess        = "success"
	StatusPartialFailure = "partial_failure"
	StatusFailure        = "failure"
)

const (
	WorkTypeRemote = "remote"
	WorkTypeHybrid = "hybrid"
	WorkTypeOnsite = "onsite"
)

// Location is one typed work-arrangement entry on a posting.
type Location struct {
	Type           string `json:"type"`
	LocationString string `json:"location_string"`
}

// JobPosting is the canonical stored record. The link is its identity:
// immutable once created and unique across the table.
type JobPosting struct {
	ID               int64      `json:"id"`
	Link             string     `json:"link"`
	Title            string     `json:"title"`
	Company          string     `json:"company"`
	Description      string     `json:"description"`
	Locations        []Location `json:"locations"`
	PostingDate      *time.Time `json:"posting_date,omitempty"`
	Embedding        []float64  `json:"-"`
	ConfidenceScore  float64    `json:"confidence_score"`
	DetailsUpdatedAt *time.Time `json:"details_updated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ScrapeHistory is one append-only audit entry per discovery run.
type ScrapeHistory struct {
	ID              int64     `json:"id"`
	RunAt           time.Time `json:"run_at"`
	Status          string    `json:"status"`
	JobsFound       int       `json:"jobs_found"`
	Details         string    `json:"details"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	RequestedBy     string    `json:"requested_by,omitempty"`
}

type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RunMigrations(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func clampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func marshalLocations(locs []Location) ([]byte, error) {
	if locs == nil {
		locs = []Location{}
	}
	return json.Marshal(locs)
}

// CreateJobIfNew inserts a posting keyed by its link and reports whether a
// row was created. Concurrent writers racing on the same link are safe: the
// conditional insert no-ops instead of erroring, so creation happens at most
// once per distinct link.
func (s *Store) CreateJobIfNew(ctx context.Context, job JobPosting) (bool, error) {
	locs, err := marshalLocations(job.Locations)
	if err != nil {
		return false, fmt.Errorf("encode locations: %w", err)
	}

	var embedding interface{}
	if len(job.Embedding) > 0 {
		embedding = pq.Float64Array(job.Embedding)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO job_postings (link, title, company, description, locations, posting_date, embedding, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
ON CONFLICT (link) DO NOTHING
`, job.Link, job.Title, job.Company, job.Description, locs, job.PostingDate, embedding)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetJobByLink(ctx context.Context, link string) (*JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, link, title, company, description, locations, posting_date, embedding, confidence_score, details_updated_at, created_at, updated_at
FROM job_postings
WHERE link = $1
`, link)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*JobPosting, error) {
	var (
		j           JobPosting
		locs        []byte
		postingDate sql.NullTime
		embedding   pq.Float64Array
		detailsAt   sql.NullTime
	)
	if err := row.Scan(
		&j.ID,
		&j.Link,
		&j.Title,
		&j.Company,
		&j.Description,
		&locs,
		&postingDate,
		&embedding,
		&j.ConfidenceScore,
		&detailsAt,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(locs) > 0 {
		if err := json.Unmarshal(locs, &j.Locations); err != nil {
			return nil, fmt.Errorf("decode locations: %w", err)
		}
	}
	if postingDate.Valid {
		t := postingDate.Time
		j.PostingDate = &t
	}
	if detailsAt.Valid {
		t := detailsAt.Time
		j.DetailsUpdatedAt = &t
	}
	j.Embedding = []float64(embedding)
	return &j, nil
}

const jobColumns = `id, link, title, company, description, locations, posting_date, embedding, confidence_score, details_updated_at, created_at, updated_at`

func (s *Store) listJobsQuery(ctx context.Context, query string, args ...interface{}) ([]JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *Store) ListJobs(ctx context.Context, limit, offset int) ([]JobPosting, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}
	return s.listJobsQuery(ctx, `
SELECT `+jobColumns+`
FROM job_postings
ORDER BY COALESCE(posting_date, created_at::date) DESC, id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
}

// ListEmbeddedJobs returns every posting that carries an embedding vector.
func (s *Store) ListEmbeddedJobs(ctx context.Context) ([]JobPosting, error) {
	return s.listJobsQuery(ctx, `
SELECT `+jobColumns+`
FROM job_postings
WHERE embedding IS NOT NULL
`)
}

func (s *Store) ListJobsMissingEmbedding(ctx context.Context, limit int) ([]JobPosting, error) {
	limit = clampLimit(limit, 200, 2000)
	return s.listJobsQuery(ctx, `
SELECT `+jobColumns+`
FROM job_postings
WHERE embedding IS NULL
ORDER BY id
LIMIT $1
`, limit)
}

func (s *Store) ListAllJobs(ctx context.Context) ([]JobPosting, error) {
	return s.listJobsQuery(ctx, `
SELECT `+jobColumns+`
FROM job_postings
ORDER BY id
`)
}

// UpdateJobDetails refreshes the mutable fields after a successful re-scrape
// and stamps details_updated_at.
func (s *Store) UpdateJobDetails(ctx context.Context, link, title, description string, locations []Location) error {
	locs, err := marshalLocations(locations)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE job_postings
SET title = $2, description = $3, locations = $4, details_updated_at = NOW(), updated_at = NOW()
WHERE link = $1
`, link, title, description, locs)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateJobParsed applies re-parsed title data without touching the scrape
// timestamps. Used by the title backfill.
func (s *Store) UpdateJobParsed(ctx context.Context, link, title, company string, locations []Location) error {
	locs, err := marshalLocations(locations)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE job_postings
SET title = $2, company = $3, locations = $4, updated_at = NOW()
WHERE link = $1
`, link, title, company, locs)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetJobEmbedding(ctx context.Context, link string, embedding []float64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE job_postings
SET embedding = $2, updated_at = NOW()
WHERE link = $1
`, link, pq.Float64Array(embedding))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteJobByLink(ctx context.Context, link string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM job_postings WHERE link = $1`, link)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendScrapeHistory(ctx context.Context, entry ScrapeHistory) error {
	var requestedBy interface{}
	if entry.RequestedBy != "" {
		requestedBy = entry.RequestedBy
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scrape_history (run_at, status, jobs_found, details, duration_seconds, requested_by)
VALUES (NOW(), $1, $2, $3, $4, $5)
`, entry.Status, entry.JobsFound, entry.Details, entry.DurationSeconds, requestedBy)
	return err
}

func (s *Store) ListScrapeHistory(ctx context.Context, limit int) ([]ScrapeHistory, error) {
	limit = clampLimit(limit, 50, 500)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_at, status, jobs_found, details, duration_seconds, COALESCE(requested_by, '')
FROM scrape_history
ORDER BY run_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ScrapeHistory
	for rows.Next() {
		var (
			e        ScrapeHistory
			duration sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.RunAt, &e.Status, &e.JobsFound, &e.Details, &duration, &e.RequestedBy); err != nil {
			return nil, err
		}
		if duration.Valid {
			d := duration.Float64
			e.DurationSeconds = &d
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Curated inputs. Owned by admin tooling; the pipeline only reads them.

func (s *Store) ListSeedTitles(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT title FROM searchable_job_titles ORDER BY title`)
}

func (s *Store) ListDomains(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT domain FROM scrapable_domains ORDER BY domain`)
}

func (s *Store) ListBlockedPatterns(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT pattern FROM blocked_patterns ORDER BY pattern`)
}

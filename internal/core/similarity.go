package core

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/brewmarsh/nokari/internal/store"
)

const (
	defaultTopK     = 5
	defaultMinScore = 0.7
)

// SimilarJob pairs a posting with its cosine score against the target.
type SimilarJob struct {
	Job   store.JobPosting `json:"job"`
	Score float64          `json:"score"`
}

// FindSimilar ranks stored postings by cosine similarity to the posting at
// link. Only scores strictly above minScore qualify. As a side effect it
// enqueues a discovery run seeded with the target's title, so future
// queries have fresher candidates; the caller never waits on it.
func (s *Service) FindSimilar(ctx context.Context, link string, topK int, minScore float64) ([]SimilarJob, error) {
	target, err := s.store.GetJobByLink(ctx, link)
	if err != nil {
		return nil, err
	}
	if len(target.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if minScore <= 0 {
		minScore = defaultMinScore
	}

	s.seedDiscovery(ctx, target.Title)

	candidates, err := s.store.ListEmbeddedJobs(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]SimilarJob, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Link == target.Link {
			continue
		}
		score, ok := Cosine(target.Embedding, cand.Embedding)
		if !ok || score <= minScore {
			continue
		}
		matches = append(matches, SimilarJob{Job: cand, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Job.Link < matches[j].Job.Link
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// seedDiscovery queues a background discovery run for the given title.
func (s *Service) seedDiscovery(ctx context.Context, title string) {
	if s.queue == nil || title == "" {
		return
	}
	id, err := s.queue.Submit(ctx, TaskDiscoveryRun, map[string]string{
		"title":        title,
		"requested_by": "similar",
	})
	if err != nil {
		slog.Warn("similarity discovery seed failed", "title", title, "error", err)
		return
	}
	slog.Info("similarity discovery seeded", "title", title, "task_id", id)
}

// Cosine returns the cosine similarity of two vectors. The second return
// is false when the vectors differ in length or either has zero norm.
func Cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

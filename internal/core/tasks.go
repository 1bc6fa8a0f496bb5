package core

import (
	"context"
	"strconv"

	"github.com/brewmarsh/nokari/internal/tasks"
)

// Task names carried on the queue.
const (
	TaskDiscoveryRun       = "discovery.run"
	TaskJobRescrape        = "job.rescrape"
	TaskEmbeddingsBackfill = "embeddings.backfill"
	TaskTitlesBackfill     = "titles.backfill"
)

// RegisterTasks binds the pipeline operations to their queue task names.
func (s *Service) RegisterTasks(pool *tasks.WorkerPool) {
	pool.Register(TaskDiscoveryRun, func(ctx context.Context, task tasks.Task) error {
		opts := DiscoveryOptions{RequestedBy: task.Args["requested_by"]}
		if opts.RequestedBy == "" {
			opts.RequestedBy = "task"
		}
		if title := task.Args["title"]; title != "" {
			opts.Titles = []string{title}
		}
		if raw := task.Args["days"]; raw != "" {
			if days, err := strconv.Atoi(raw); err == nil && days > 0 {
				opts.Days = days
			}
		}
		_, err := s.RunDiscovery(ctx, opts)
		return err
	})

	pool.Register(TaskJobRescrape, func(ctx context.Context, task tasks.Task) error {
		_, err := s.RescrapeJob(ctx, task.Args["link"])
		return err
	})

	pool.Register(TaskEmbeddingsBackfill, func(ctx context.Context, task tasks.Task) error {
		limit := 0
		if raw := task.Args["limit"]; raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = n
			}
		}
		_, err := s.BackfillEmbeddings(ctx, limit)
		return err
	})

	pool.Register(TaskTitlesBackfill, func(ctx context.Context, task tasks.Task) error {
		_, err := s.BackfillTitles(ctx)
		return err
	})
}

package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a queued discovery run on a fixed interval.
type Scheduler struct {
	cron  *cron.Cron
	queue TaskSubmitter
	spec  string
}

func NewScheduler(queue TaskSubmitter, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		queue: queue,
		spec:  fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the cron entry and kicks off one run immediately so a
// fresh deployment does not wait a full interval for data.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.trigger(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)

	go s.trigger(ctx)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) trigger(ctx context.Context) {
	id, err := s.queue.Submit(ctx, TaskDiscoveryRun, map[string]string{"requested_by": "scheduler"})
	if err != nil {
		slog.Error("scheduled discovery submit failed", "error", err)
		return
	}
	slog.Info("scheduled discovery submitted", "task_id", id)
}

package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Handler executes one task. A returned error marks the task failed.
type Handler func(ctx context.Context, task Task) error

// WorkerPool pops tasks off the queue and dispatches them to registered
// handlers on a fixed number of goroutines.
type WorkerPool struct {
	queue    *Queue
	handlers map[string]Handler
	workers  int

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewWorkerPool(queue *Queue, workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		queue:    queue,
		handlers: map[string]Handler{},
		workers:  workers,
	}
}

// Register binds a handler to a task name. Must be called before Start.
func (p *WorkerPool) Register(name string, h Handler) {
	p.mu.Lock()
	p.handlers[name] = h
	p.mu.Unlock()
}

// Start launches the worker goroutines. They run until ctx is canceled.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			p.loop(ctx, worker)
		}(i)
	}
	slog.Info("task workers started", "count", p.workers)
}

// Wait blocks until all workers have exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) loop(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := p.queue.pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("task pop failed", "worker", worker, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		p.run(ctx, *task)
	}
}

func (p *WorkerPool) run(ctx context.Context, task Task) {
	p.mu.Lock()
	handler, ok := p.handlers[task.Name]
	p.mu.Unlock()

	st, err := p.queue.GetStatus(ctx, task.ID)
	if err != nil {
		st = Status{ID: task.ID, Name: task.Name, SubmittedAt: time.Now().UTC()}
	}

	if !ok {
		p.finish(ctx, st, ErrUnknownTask)
		slog.Error("task has no handler", "task", task.Name, "id", task.ID)
		return
	}

	st.State = StatusRunning
	if err := p.queue.setStatus(ctx, st); err != nil {
		slog.Error("task status update failed", "id", task.ID, "error", err)
	}

	slog.Info("task started", "task", task.Name, "id", task.ID)
	start := time.Now()
	runErr := handler(ctx, task)
	p.finish(ctx, st, runErr)
	if runErr != nil {
		slog.Error("task failed", "task", task.Name, "id", task.ID, "duration", time.Since(start), "error", runErr)
		return
	}
	slog.Info("task finished", "task", task.Name, "id", task.ID, "duration", time.Since(start))
}

func (p *WorkerPool) finish(ctx context.Context, st Status, runErr error) {
	now := time.Now().UTC()
	st.FinishedAt = &now
	if runErr != nil {
		st.State = StatusFailure
		st.Error = runErr.Error()
	} else {
		st.State = StatusSuccess
		st.Error = ""
	}
	if err := p.queue.setStatus(ctx, st); err != nil {
		slog.Error("task status update failed", "id", st.ID, "error", err)
	}
}

// Package tasks is a small redis-backed task queue. Submitting a task pushes
// it onto a list and returns an id; workers pop tasks and run registered
// handlers, recording per-task status under a keyspace with a TTL.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey     = "nokari:tasks"
	statusKeyFmt = "nokari:task:%s"
	statusTTL    = 24 * time.Hour
	popTimeout   = 5 * time.Second
)

const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ErrTaskNotFound is returned when a task id has no status record, either
// because it never existed or its record expired.
var ErrTaskNotFound = errors.New("tasks: task not found")

// ErrUnknownTask is returned when a submitted task names no registered handler.
var ErrUnknownTask = errors.New("tasks: unknown task name")

// Task is the unit of work carried on the queue.
type Task struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
}

// Status is the recorded state of a submitted task.
type Status struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	State       string     `json:"state"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Queue submits tasks and reads their status.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Submit enqueues a task and returns its id. The task starts in the
// pending state.
func (q *Queue) Submit(ctx context.Context, name string, args map[string]string) (string, error) {
	task := Task{
		ID:   uuid.NewString(),
		Name: name,
		Args: args,
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	if err := q.setStatus(ctx, Status{
		ID:          task.ID,
		Name:        name,
		State:       StatusPending,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}
	if err := q.rdb.LPush(ctx, queueKey, payload).Err(); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return task.ID, nil
}

// GetStatus looks up the recorded state of a task.
func (q *Queue) GetStatus(ctx context.Context, id string) (Status, error) {
	raw, err := q.rdb.Get(ctx, fmt.Sprintf(statusKeyFmt, id)).Result()
	if errors.Is(err, redis.Nil) {
		return Status{}, ErrTaskNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("get task status: %w", err)
	}
	var st Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return Status{}, fmt.Errorf("decode task status: %w", err)
	}
	return st, nil
}

func (q *Queue) setStatus(ctx context.Context, st Status) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal task status: %w", err)
	}
	if err := q.rdb.Set(ctx, fmt.Sprintf(statusKeyFmt, st.ID), payload, statusTTL).Err(); err != nil {
		return fmt.Errorf("store task status: %w", err)
	}
	return nil
}

// pop blocks up to popTimeout waiting for the next task. Returns nil with
// no error when the wait times out.
func (q *Queue) pop(ctx context.Context) (*Task, error) {
	res, err := q.rdb.BRPop(ctx, popTimeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply of %d elements", len(res))
	}
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

package tasks

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"paygate/internal/metrics"
)

const (
	TaskProcessCharge  = "charge.process"
	TaskProcessPayout  = "payout.process"
	TaskDeliverWebhook = "webhook.deliver"
	TaskSettlePending  = "settlement.run"
)

type Task struct {
	Name    string
	Args    map[string]string
	attempt int
}

type Handler func(ctx context.Context, args map[string]string) error

// Queue is an in-process task queue drained by a fixed worker pool. Each task
// runs to completion on a single worker; failed tasks are re-enqueued with
// backoff up to maxAttempts. Handlers must be idempotent, so a task observed
// twice has no extra effect beyond its attempt counters.
type Queue struct {
	tasks       chan Task
	workers     int
	maxAttempts int

	mu       sync.RWMutex
	handlers map[string]Handler

	wg     sync.WaitGroup
	closed chan struct{}
}

func NewQueue(workers, buffer, maxAttempts int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Queue{
		tasks:       make(chan Task, buffer),
		workers:     workers,
		maxAttempts: maxAttempts,
		handlers:    make(map[string]Handler),
		closed:      make(chan struct{}),
	}
}

func (q *Queue) Register(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Enqueue hands a task to the pool. It never blocks the caller's request path:
// when the buffer is full the task is dropped and counted, matching the
// contract that callers persist their obligations (outbox rows, pending
// statuses) before enqueueing.
func (q *Queue) Enqueue(name string, args map[string]string) {
	select {
	case q.tasks <- Task{Name: name, Args: args, attempt: 1}:
	default:
		log.Printf("tasks: queue full, dropping %s (will be picked up by reconciliation)", name)
		metrics.TasksTotal.WithLabelValues(name, "dropped").Inc()
	}
}

func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Close waits for in-flight tasks to finish. Pending buffered tasks are
// abandoned; their obligations stay visible in the database.
func (q *Queue) Close() {
	close(q.closed)
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closed:
			return
		case task := <-q.tasks:
			q.run(ctx, task)
		}
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	q.mu.RLock()
	handler, ok := q.handlers[task.Name]
	q.mu.RUnlock()
	if !ok {
		log.Printf("tasks: no handler registered for %s", task.Name)
		metrics.TasksTotal.WithLabelValues(task.Name, "unhandled").Inc()
		return
	}
	timer := prometheus.NewTimer(metrics.TaskDuration.WithLabelValues(task.Name))
	err := handler(ctx, task.Args)
	timer.ObserveDuration()
	if err == nil {
		metrics.TasksTotal.WithLabelValues(task.Name, "ok").Inc()
		return
	}
	log.Printf("tasks: %s attempt %d failed: %v", task.Name, task.attempt, err)
	if task.attempt >= q.maxAttempts {
		metrics.TasksTotal.WithLabelValues(task.Name, "exhausted").Inc()
		return
	}
	metrics.TasksTotal.WithLabelValues(task.Name, "retry").Inc()
	retry := task
	retry.attempt++
	backoff := time.Duration(task.attempt*task.attempt) * 250 * time.Millisecond
	time.AfterFunc(backoff, func() {
		select {
		case q.tasks <- retry:
		case <-q.closed:
		default:
			metrics.TasksTotal.WithLabelValues(task.Name, "dropped").Inc()
		}
	})
}

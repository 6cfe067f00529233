package room

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const reconcileTimeout = 5 * time.Second

type reconcileTask struct {
	name string
	fn   func(ctx context.Context) error
}

// reconciler mirrors committed in-memory mutations into the durable record
// store off the broadcast path. It is strictly best-effort: a failed or
// dropped write is logged and never blocks, rolls back, or surfaces to a
// connection.
type reconciler struct {
	recordRepo iRecordRepo
	queue      chan reconcileTask
	logger     *slog.Logger
	mu         sync.Mutex
	closed     bool
	done       chan struct{}
}

func newReconciler(recordRepo iRecordRepo, queueSize int, logger *slog.Logger) *reconciler {
	r := &reconciler{
		recordRepo: recordRepo,
		queue:      make(chan reconcileTask, queueSize),
		logger:     logger,
		done:       make(chan struct{}),
	}

	go r.run()

	return r
}

func (r *reconciler) run() {
	defer close(r.done)

	for task := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		if err := task.fn(ctx); err != nil {
			r.logger.ErrorContext(ctx, "persistence failure", "task", task.name, "error", err)
		}
		cancel()
	}
}

// enqueue never blocks: when the queue is full the delta is dropped with a
// log, trading write durability for broadcast latency.
func (r *reconciler) enqueue(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("persistence task after close", "task", name)
		return
	}

	select {
	case r.queue <- reconcileTask{name: name, fn: fn}:
	default:
		r.logger.Warn("persistence queue full, dropping task", "task", name)
	}
}

// close drains the queue and stops the worker.
func (r *reconciler) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

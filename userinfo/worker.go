package userinfo

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
)

// TurnProcessor consumes one queued history snapshot.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, userID string, history []core.Exchange) (*UserProfile, error)
}

// WorkerOptions configures the background worker.
type WorkerOptions struct {
	// Concurrency is the number of extraction goroutines. Defaults to 1,
	// which also keeps updates for one user strictly ordered.
	Concurrency int

	// Logger receives processing failures. Defaults to a no-op logger.
	Logger logging.Logger
}

// Worker decouples profile extraction from the turn path. Snapshots queue
// per user and coalesce: only the newest history for a user is kept, so a
// chatty user costs one pending extraction, not one per turn. Enqueue never
// blocks, whether the worker is running or not.
type Worker struct {
	processor   TurnProcessor
	concurrency int
	logger      *logging.ConversationLogger

	mu      sync.Mutex
	pending map[string][]core.Exchange
	wake    chan struct{}

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewWorker creates a stopped worker around processor.
func NewWorker(processor TurnProcessor, optFns ...func(o *WorkerOptions)) *Worker {
	opts := WorkerOptions{
		Concurrency: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Worker{
		processor:   processor,
		concurrency: opts.Concurrency,
		logger:      logging.NewConversationLogger(opts.Logger).WithComponent("userinfo.worker"),
		pending:     make(map[string][]core.Exchange),
		wake:        make(chan struct{}, 1),
	}
}

// Enqueue schedules a history snapshot for extraction, replacing any
// snapshot still pending for the same user. The slice is copied; the caller
// keeps ownership of what it passed.
func (w *Worker) Enqueue(userID string, history []core.Exchange) {
	snapshot := make([]core.Exchange, len(history))
	copy(snapshot, history)

	w.mu.Lock()
	w.pending[userID] = snapshot
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of users with a queued snapshot.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.pending)
}

// Start launches the extraction goroutines. They run until Stop is called
// or ctx is canceled. Starting a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.group, ctx = errgroup.WithContext(ctx)

	for i := 0; i < w.concurrency; i++ {
		w.group.Go(func() error {
			w.run(ctx)
			return nil
		})
	}
}

// Stop halts processing and waits for in-flight extractions to finish.
// Snapshots still pending are dropped.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}

	w.cancel()
	_ = w.group.Wait()
	w.cancel = nil
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		// Drain everything that is pending. Wake tokens can be dropped
		// while all goroutines are busy, so whoever is awake finishes
		// the backlog instead of trusting one token per snapshot.
		for {
			userID, history, ok := w.take()
			if !ok {
				break
			}

			if _, err := w.processor.ProcessTurn(ctx, userID, history); err != nil {
				w.logger.WithUser(userID).Warn("userinfo.extraction.failed", "error", err.Error())
			}

			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (w *Worker) take() (string, []core.Exchange, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for userID, history := range w.pending {
		delete(w.pending, userID)
		return userID, history, true
	}
	return "", nil, false
}

// Package jobs runs detached background work, one job per key at a time.
// Triggering layers get a Handle they can await or poll instead of a
// fire-and-forget goroutine whose failure vanishes into the log.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"telegram-intent-analyzer/backend/pkg/logger"
)

// Handle tracks one background job.
type Handle struct {
	key  string
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Key returns the job's dedup key.
func (h *Handle) Key() string {
	return h.key
}

// Done is closed when the job finishes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the job's terminal error. Valid once Done is closed; nil
// while the job is still running.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the job finishes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Runner serializes background jobs per key. Ingestion and analysis for one
// chat share a key, so two analyze requests for the same chat can never
// interleave their read-then-write sequences.
type Runner struct {
	log *logger.Logger

	mu       sync.Mutex
	inflight map[string]*Handle
}

func NewRunner(log *logger.Logger) *Runner {
	return &Runner{
		log:      log,
		inflight: make(map[string]*Handle),
	}
}

// Run starts fn in the background unless a job with the same key is already
// in flight, in which case the existing handle is returned. The second
// return value reports whether a new job was started.
func (r *Runner) Run(key string, fn func(ctx context.Context) error) (*Handle, bool) {
	r.mu.Lock()
	if h, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		return h, false
	}

	h := &Handle{key: key, done: make(chan struct{})}
	r.inflight[key] = h
	r.mu.Unlock()

	go func() {
		var err error
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job %s panicked: %v", key, rec)
			}

			r.mu.Lock()
			delete(r.inflight, key)
			r.mu.Unlock()

			if err != nil {
				r.log.LogError(err, "background job failed", "job", key)
			}
			h.finish(err)
		}()

		err = fn(context.Background())
	}()

	return h, true
}

// Running reports whether a job with the given key is in flight.
func (r *Runner) Running(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[key]
	return ok
}

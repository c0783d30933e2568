// Package eworker runs image operations off the interactive thread,
// one at a time. A second submission while a job is in flight is
// refused rather than queued: the caller is an interactive tool whose
// reference image would be stale by the time a queued job ran.
package eworker

import(
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

// ErrBusy means a job is already in flight.
var ErrBusy = errors.New("an operation is already running")

// A Job computes a new image. It should poll ctx at convenient points
// and may simply run to completion; cancellation only discards the
// result, it never corrupts state.
type Job func(ctx context.Context) (*eimage.Image, error)

// A Runner owns at most one in-flight job. The zero value is ready to
// use.
type Runner struct {
	mu     sync.Mutex
	busy   bool
	gen    uint64
	cancel context.CancelFunc
}

// Busy reports whether a job is in flight.
func (r *Runner)Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Go starts the named job, returning ErrBusy when one is already in
// flight. When the job finishes, apply is called with its result -
// unless the run was cancelled in the meantime, in which case the
// result is discarded and apply never runs. A panicking job is
// captured and reported as an error.
func (r *Runner)Go(ctx context.Context, name string, job Job, apply func(*eimage.Image, error)) error {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return ErrBusy
	}
	r.busy = true
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		defer cancel()
		start := time.Now()

		var img *eimage.Image
		var err error
		func() {
			defer func() {
				if p := recover(); p != nil {
					img, err = nil, fmt.Errorf("%s: panic: %v", name, p)
				}
			}()
			img, err = job(ctx)
		}()

		r.mu.Lock()
		live := r.gen == gen
		if live {
			// A cancelled run must not clear state owned by a newer job.
			r.busy = false
			r.cancel = nil
		}
		r.mu.Unlock()

		if !live {
			log.Printf("%s cancelled after %s, result discarded", name, time.Since(start))
			return
		}
		log.Printf("%s finished in %s", name, time.Since(start))
		apply(img, err)
	}()

	return nil
}

// Cancel asks the in-flight job to stop and marks its result stale.
// The job goroutine is left to finish on its own; its result will be
// discarded. No-op when idle.
func (r *Runner)Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.busy {
		return
	}
	r.gen++
	r.busy = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

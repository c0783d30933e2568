package eworker

import(
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

func TestSingleFlight(t *testing.T) {
	var r Runner
	release := make(chan struct{})
	done := make(chan struct{})

	err := r.Go(context.Background(), "slow", func(ctx context.Context) (*eimage.Image, error) {
		<-release
		return eimage.New(1, 1), nil
	}, func(img *eimage.Image, err error) {
		close(done)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Busy() {
		t.Errorf("runner should be busy")
	}

	err = r.Go(context.Background(), "second", func(ctx context.Context) (*eimage.Image, error) {
		return nil, nil
	}, func(*eimage.Image, error) {})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second submission: got %v, want ErrBusy", err)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("apply never ran")
	}
}

func TestApplyGetsResult(t *testing.T) {
	var r Runner
	done := make(chan struct{})
	var mu sync.Mutex
	var got *eimage.Image

	want := eimage.New(2, 3)
	r.Go(context.Background(), "job", func(ctx context.Context) (*eimage.Image, error) {
		return want, nil
	}, func(img *eimage.Image, err error) {
		mu.Lock()
		got = img
		mu.Unlock()
		close(done)
	})
	<-done
	mu.Lock()
	defer mu.Unlock()
	if got != want {
		t.Errorf("apply got %p, want %p", got, want)
	}
}

func TestCancelDiscardsResult(t *testing.T) {
	var r Runner
	started := make(chan struct{})
	finished := make(chan struct{})
	applied := false

	r.Go(context.Background(), "cancelled", func(ctx context.Context) (*eimage.Image, error) {
		close(started)
		<-ctx.Done()
		// The job is allowed to finish normally; the result must still
		// be discarded.
		defer close(finished)
		return eimage.New(1, 1), nil
	}, func(img *eimage.Image, err error) {
		applied = true
	})

	<-started
	r.Cancel()
	if r.Busy() {
		t.Errorf("Cancel should free the runner immediately")
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("job never finished")
	}
	time.Sleep(50 * time.Millisecond)
	if applied {
		t.Errorf("apply ran for a cancelled job")
	}
}

func TestPanicBecomesError(t *testing.T) {
	var r Runner
	done := make(chan struct{})
	var gotErr error

	r.Go(context.Background(), "boom", func(ctx context.Context) (*eimage.Image, error) {
		panic("kaboom")
	}, func(img *eimage.Image, err error) {
		gotErr = err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("apply never ran")
	}
	if gotErr == nil {
		t.Errorf("panic should surface as an error")
	}
}

func TestRunnerReusableAfterCancel(t *testing.T) {
	var r Runner
	block := make(chan struct{})
	r.Go(context.Background(), "first", func(ctx context.Context) (*eimage.Image, error) {
		<-block
		return nil, nil
	}, func(*eimage.Image, error) {})
	r.Cancel()

	done := make(chan struct{})
	err := r.Go(context.Background(), "second", func(ctx context.Context) (*eimage.Image, error) {
		return eimage.New(1, 1), nil
	}, func(img *eimage.Image, err error) { close(done) })
	if err != nil {
		t.Fatalf("runner not reusable after cancel: %v", err)
	}
	close(block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second job never applied")
	}
}

package application

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounce = 150 * time.Millisecond

// Refresher serializes one view's refetches. Triggers that land while a
// fetch is running collapse into a single trailing fetch after the debounce
// window. A result is applied only if it belongs to the newest fetch started.
type Refresher[T any] struct {
	fetch    func(context.Context) (T, error)
	apply    func(T)
	onError  func(context.Context, error)
	debounce time.Duration

	fetchMu sync.Mutex

	mu      sync.Mutex
	started uint64
	pending bool
	running bool
	stopped bool
	wg      sync.WaitGroup
}

func NewRefresher[T any](fetch func(context.Context) (T, error), apply func(T), onError func(context.Context, error), debounce time.Duration) *Refresher[T] {
	if debounce < 0 {
		debounce = 0
	}
	return &Refresher[T]{fetch: fetch, apply: apply, onError: onError, debounce: debounce}
}

// Refresh fetches now and blocks until the result is applied or dropped.
func (r *Refresher[T]) Refresh(ctx context.Context) error {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()
	return r.once(ctx)
}

// Trigger asks for a refetch without waiting for it.
func (r *Refresher[T]) Trigger(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.pending = true
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.wg.Add(1)
	r.mu.Unlock()
	go r.drain(ctx)
}

// Stop drops pending triggers, waits for an in-flight fetch and disables
// further applies.
func (r *Refresher[T]) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.pending = false
	r.mu.Unlock()
	r.wg.Wait()
}

// Wait blocks until no triggered fetch is pending or running.
func (r *Refresher[T]) Wait() {
	r.wg.Wait()
}

func (r *Refresher[T]) drain(ctx context.Context) {
	defer r.wg.Done()
	for first := true; ; first = false {
		if !first && r.debounce > 0 {
			t := time.NewTimer(r.debounce)
			select {
			case <-ctx.Done():
				t.Stop()
			case <-t.C:
			}
		}
		r.mu.Lock()
		if !r.pending || r.stopped || ctx.Err() != nil {
			r.running = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()

		r.fetchMu.Lock()
		err := r.once(ctx)
		r.fetchMu.Unlock()
		if err != nil && r.onError != nil {
			r.onError(ctx, err)
		}
	}
}

func (r *Refresher[T]) once(ctx context.Context) error {
	r.mu.Lock()
	r.started++
	seq := r.started
	r.mu.Unlock()

	v, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	current := seq == r.started && !r.stopped
	r.mu.Unlock()
	if current {
		r.apply(v)
	}
	return nil
}

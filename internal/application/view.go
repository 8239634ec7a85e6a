package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// ViewDeps are what every dashboard needs. Events may be nil for a view
// without live updates.
type ViewDeps struct {
	Gateway  ports.Gateway
	Session  *SessionController
	Events   ports.EventSource
	Reporter *Reporter
	Logger   ports.Logger
	Debounce time.Duration
}

// view holds a dashboard's local copy of server data. It is replaced
// wholesale by each applied refetch and never patched.
type view[T any] struct {
	deps   ViewDeps
	action string
	events []string
	roles  []domain.Role

	refresher *Refresher[T]
	live      *LiveChannel

	mu       sync.RWMutex
	data     T
	onChange func(T)
}

func newView[T any](deps ViewDeps, action string, fetch func(context.Context) (T, error), events []string, roles ...domain.Role) *view[T] {
	v := &view[T]{deps: deps, action: action, events: events, roles: roles}
	v.refresher = NewRefresher(fetch, v.set, func(ctx context.Context, err error) {
		deps.Reporter.Fail(ctx, action, err)
	}, deps.Debounce)
	return v
}

// mount requires a session with an allowed role, loads the data and opens
// the live channel. A live channel that cannot open is logged; the view
// still works by manual refresh.
func (v *view[T]) mount(ctx context.Context) error {
	sess, err := v.deps.Session.Require()
	if err != nil {
		return v.fail(ctx, v.action, err)
	}
	if len(v.roles) > 0 && !slices.Contains(v.roles, sess.Role) {
		return v.fail(ctx, v.action, fmt.Errorf("%w: %s cannot open this view", domain.ErrPermissionDeny, sess.Role))
	}
	if err := v.refresher.Refresh(ctx); err != nil {
		return v.fail(ctx, v.action, err)
	}
	if v.deps.Events == nil {
		return nil
	}
	live := NewLiveChannel(v.deps.Events, On(v.refresher.Trigger, v.events...), v.deps.Logger)
	if err := live.Open(ctx, sess.Token); err != nil {
		v.deps.Logger.Warn(ctx, "live updates unavailable", "view", v.action, "error", err)
		return nil
	}
	v.mu.Lock()
	v.live = live
	v.mu.Unlock()
	return nil
}

func (v *view[T]) close() error {
	v.mu.Lock()
	live := v.live
	v.live = nil
	v.mu.Unlock()
	var err error
	if live != nil {
		err = live.Close()
	}
	v.refresher.Stop()
	return err
}

// Live reports whether push updates are flowing.
func (v *view[T]) Live() bool {
	v.mu.RLock()
	live := v.live
	v.mu.RUnlock()
	return live != nil && live.Active()
}

func (v *view[T]) set(data T) {
	v.mu.Lock()
	v.data = data
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

func (v *view[T]) get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.data
}

// OnChange registers fn to run after every applied refetch.
func (v *view[T]) OnChange(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// Refresh refetches now, reporting any failure.
func (v *view[T]) Refresh(ctx context.Context) error {
	if err := v.refresher.Refresh(ctx); err != nil {
		return v.fail(ctx, v.action, err)
	}
	return nil
}

// Wait blocks until triggered refetches have drained.
func (v *view[T]) Wait() {
	v.refresher.Wait()
}

func (v *view[T]) fail(ctx context.Context, action string, err error) error {
	v.deps.Reporter.Fail(ctx, action, err)
	return err
}

// mutate runs a server action, confirms it, then refetches.
func (v *view[T]) mutate(ctx context.Context, action, success string, call func() error) error {
	if err := call(); err != nil {
		return v.fail(ctx, action, err)
	}
	if success != "" {
		v.deps.Reporter.Succeed(ctx, success)
	}
	return v.Refresh(ctx)
}

func unavailable(action string, a domain.Application) error {
	return domain.ValidationErrors{"status": fmt.Sprintf("Cannot %s an application that is %s", action, a.Status)}
}

package live

import (
	"context"
	"errors"
	"time"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

const DefaultSignalInterval = 2 * time.Second

const signalValue = "true"

// SignalPoller turns the refreshApplications flag in the shared state store
// into an event. Raising the flag from another process wakes every operator
// view polling the same store.
type SignalPoller struct {
	store    ports.StateStore
	interval time.Duration
	logger   ports.Logger
	now      func() time.Time
}

func NewSignalPoller(store ports.StateStore, interval time.Duration, logger ports.Logger) *SignalPoller {
	if interval <= 0 {
		interval = DefaultSignalInterval
	}
	return &SignalPoller{store: store, interval: interval, logger: logger, now: time.Now}
}

// Subscribe ignores the token. Without refreshApplications among names the
// subscription stays silent.
func (p *SignalPoller) Subscribe(ctx context.Context, _ string, names []string) (ports.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	st := newStream(cancel, nil)
	if !wants(names)(ports.KeyRefreshApplications) {
		go func() {
			defer st.finish()
			<-ctx.Done()
		}()
		return st, nil
	}
	go func() {
		defer st.finish()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				raised, err := p.take(ctx)
				if err != nil {
					p.logger.Warn(ctx, "refresh signal poll failed", "error", err)
					continue
				}
				if raised && !st.emit(ctx, domain.Event{Name: ports.KeyRefreshApplications, ReceivedAt: p.now()}) {
					return
				}
			}
		}
	}()
	return st, nil
}

// take reports whether the flag was raised and clears it.
func (p *SignalPoller) take(ctx context.Context) (bool, error) {
	v, err := p.store.Get(ctx, ports.KeyRefreshApplications)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil || v != signalValue {
		return false, err
	}
	if err := p.store.Delete(ctx, ports.KeyRefreshApplications); err != nil {
		return false, err
	}
	return true, nil
}

func RaiseRefreshSignal(ctx context.Context, store ports.StateStore) error {
	return store.Set(ctx, ports.KeyRefreshApplications, signalValue)
}

package live

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

type Mode string

const (
	ModeSSE  Mode = "sse"
	ModeAMQP Mode = "amqp"
	ModeNone Mode = "none"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSSE, nil
	case ModeSSE, ModeAMQP, ModeNone:
		return m, nil
	}
	return "", fmt.Errorf("live: unknown transport %q", s)
}

const (
	dialAttempts = 3
	dialDelay    = 500 * time.Millisecond
	dialMaxDelay = 5 * time.Second
	eventBuffer  = 16
)

// dial retries connect with exponential backoff until it succeeds, the
// attempts run out or ctx ends.
func dial(ctx context.Context, logger ports.Logger, transport string, connect func() error) error {
	return retry.Do(
		connect,
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(dialDelay),
		retry.MaxDelay(dialMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "live dial failed", "transport", transport, "attempt", n+1, "error", err)
		}),
	)
}

func wants(names []string) func(string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		if len(set) == 0 {
			return true
		}
		_, ok := set[name]
		return ok
	}
}

// stream is the Subscription every transport returns. The reader goroutine
// owns events and closes it on exit.
type stream struct {
	events chan domain.Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	closer func() error
}

func newStream(cancel context.CancelFunc, closer func() error) *stream {
	return &stream{
		events: make(chan domain.Event, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
		closer: closer,
	}
}

func (s *stream) Events() <-chan domain.Event { return s.events }

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		if s.closer != nil {
			err = s.closer()
		}
		<-s.done
	})
	return err
}

// emit delivers ev unless the subscription is shutting down.
func (s *stream) emit(ctx context.Context, ev domain.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish must be deferred by the reader goroutine.
func (s *stream) finish() {
	close(s.events)
	close(s.done)
}

// None never delivers anything.
type None struct{}

func (None) Subscribe(ctx context.Context, _ string, _ []string) (ports.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := newStream(cancel, nil)
	go func() {
		defer s.finish()
		<-ctx.Done()
	}()
	return s, nil
}

// Merge fans several sources into one subscription. All of them must
// subscribe for the merge to succeed.
func Merge(sources ...ports.EventSource) ports.EventSource {
	return merged(sources)
}

type merged []ports.EventSource

func (m merged) Subscribe(ctx context.Context, token string, names []string) (ports.Subscription, error) {
	var subs []ports.Subscription
	for _, src := range m {
		if src == nil {
			continue
		}
		sub, err := src.Subscribe(ctx, token, names)
		if err != nil {
			for _, open := range subs {
				_ = open.Close()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newStream(cancel, func() error {
		var first error
		for _, sub := range subs {
			if err := sub.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	})

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub ports.Subscription) {
			defer wg.Done()
			for ev := range sub.Events() {
				if !s.emit(ctx, ev) {
					return
				}
			}
		}(sub)
	}
	go func() {
		defer s.finish()
		wg.Wait()
	}()
	return s, nil
}

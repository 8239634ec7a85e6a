package application

import (
	"context"
	"slices"
	"sync"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// Event names the backend pushes.
const (
	EventApplicationStatusUpdated = "applicationStatusUpdated"
	EventNewApplication           = "newApplication"
	EventCertificateUploaded      = "certificateUploaded"
	EventApplicationUpdated       = "applicationUpdated"
	EventFormPDFUploaded          = "formPdfUploaded"
	EventApplicationRejected      = "applicationRejected"
	EventRefreshApplications      = ports.KeyRefreshApplications
)

var (
	UserEvents     = []string{EventApplicationStatusUpdated, EventNewApplication, EventCertificateUploaded}
	OperatorEvents = []string{EventApplicationUpdated, EventFormPDFUploaded, EventApplicationRejected, EventRefreshApplications}
	AdminEvents    = union(UserEvents, OperatorEvents)
)

func union(sets ...[]string) []string {
	var out []string
	for _, set := range sets {
		for _, n := range set {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Handlers maps an event name to the refetch it triggers.
type Handlers map[string]func(context.Context)

// On binds every name to the same refetch.
func On(fn func(context.Context), names ...string) Handlers {
	h := make(Handlers, len(names))
	for _, n := range names {
		h[n] = fn
	}
	return h
}

// LiveChannel is one view's push subscription. Every event goes through the
// handler table; names it does not list are dropped.
type LiveChannel struct {
	source   ports.EventSource
	handlers Handlers
	logger   ports.Logger

	mu   sync.Mutex
	sub  ports.Subscription
	done chan struct{}
}

func NewLiveChannel(source ports.EventSource, handlers Handlers, logger ports.Logger) *LiveChannel {
	return &LiveChannel{source: source, handlers: handlers, logger: logger}
}

// Names lists the subscribed events in a stable order.
func (l *LiveChannel) Names() []string {
	names := make([]string, 0, len(l.handlers))
	for n := range l.handlers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Open subscribes with token and starts dispatching. Opening an open
// channel is a no-op.
func (l *LiveChannel) Open(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sub != nil {
		return nil
	}
	if token == "" {
		return domain.ErrNoSession
	}
	sub, err := l.source.Subscribe(ctx, token, l.Names())
	if err != nil {
		return err
	}
	l.sub = sub
	l.done = make(chan struct{})
	go l.loop(ctx, sub, l.done)
	l.logger.Debug(ctx, "live channel open", "events", l.Names())
	return nil
}

func (l *LiveChannel) loop(ctx context.Context, sub ports.Subscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		l.Dispatch(ctx, ev)
	}
	if l.Active() {
		l.logger.Warn(ctx, "live updates stopped", "events", l.Names())
	}
}

// Active reports whether the channel is open and its subscription is still
// delivering.
func (l *LiveChannel) Active() bool {
	l.mu.Lock()
	sub, done := l.sub, l.done
	l.mu.Unlock()
	if sub == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Dispatch runs the handler for ev and reports whether there was one.
func (l *LiveChannel) Dispatch(ctx context.Context, ev domain.Event) bool {
	fn, ok := l.handlers[ev.Name]
	if !ok {
		l.logger.Debug(ctx, "live event ignored", "event", ev.Name)
		return false
	}
	l.logger.Debug(ctx, "live event", "event", ev.Name)
	fn(ctx)
	return true
}

// Close ends the subscription and waits for the dispatch loop.
func (l *LiveChannel) Close() error {
	l.mu.Lock()
	sub, done := l.sub, l.done
	l.sub, l.done = nil, nil
	l.mu.Unlock()
	if sub == nil {
		return nil
	}
	err := sub.Close()
	<-done
	return err
}

package live

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

const eventsPath = "/api/events"

// SSE subscribes to the backend's text/event-stream endpoint.
type SSE struct {
	baseURL string
	client  *http.Client
	logger  ports.Logger
	now     func() time.Time
	// redialDelay is the pause before reopening a dropped stream.
	redialDelay time.Duration
}

func NewSSE(baseURL string, client *http.Client, logger ports.Logger) *SSE {
	if client == nil {
		client = &http.Client{}
	}
	return &SSE{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		logger:      logger,
		now:         time.Now,
		redialDelay: dialDelay,
	}
}

func (s *SSE) Subscribe(ctx context.Context, token string, names []string) (ports.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	resp, err := s.connect(ctx, token, names)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("live: subscribe sse: %w", err)
	}

	st := newStream(cancel, nil)
	accept := wants(names)
	go func() {
		defer st.finish()
		for {
			err := readEvents(resp.Body, func(name string, data []byte) bool {
				if !accept(name) {
					return true
				}
				return st.emit(ctx, domain.Event{Name: name, Data: data, ReceivedAt: s.now()})
			})
			resp.Body.Close()
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn(ctx, "live stream dropped, reconnecting", "transport", "sse", "error", err)
			if resp, err = s.reconnect(ctx, token, names); err != nil {
				return
			}
			s.logger.Info(ctx, "live stream reconnected", "transport", "sse")
		}
	}()
	return st, nil
}

func (s *SSE) connect(ctx context.Context, token string, names []string) (*http.Response, error) {
	var resp *http.Response
	err := dial(ctx, s.logger, "sse", func() error {
		r, err := s.open(ctx, token, names)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

// reconnect keeps dialing until a stream opens or ctx ends.
func (s *SSE) reconnect(ctx context.Context, token string, names []string) (*http.Response, error) {
	delay := s.redialDelay
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		resp, err := s.connect(ctx, token, names)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn(ctx, "live redial failed", "transport", "sse", "error", err)
		delay = min(2*delay+time.Millisecond, dialMaxDelay)
	}
}

func (s *SSE) open(ctx context.Context, token string, names []string) (*http.Response, error) {
	q := url.Values{}
	if len(names) > 0 {
		q.Set("events", strings.Join(names, ","))
	}
	target := s.baseURL + eventsPath
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("events endpoint answered %d", resp.StatusCode)
	}
	return resp, nil
}

// readEvents parses a text/event-stream body and hands each dispatched
// event to fn until fn returns false or the body ends. Events with no
// "event:" field are named "message".
func readEvents(r io.Reader, fn func(name string, data []byte) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var (
		name string
		data []string
	)
	dispatch := func() bool {
		defer func() { name, data = "", nil }()
		if name == "" && data == nil {
			return true
		}
		if name == "" {
			name = "message"
		}
		return fn(name, []byte(strings.Join(data, "\n")))
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if !dispatch() {
				return nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	dispatch()
	return io.ErrUnexpectedEOF
}

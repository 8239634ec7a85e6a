package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"citizen-portal/internal/adapters/http/middleware"
	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// Client issues every backend call. It never retries, deduplicates or
// caches; callers refetch after a mutation.
type Client struct {
	baseURL string
	http    *http.Client
}

type options struct {
	base    http.RoundTripper
	tracing bool
	logger  ports.Logger
}

type Option func(*options)

// WithTransport replaces the innermost round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTracing records each call as an X-Ray subsegment.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

func WithLogger(logger ports.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a client for the backend at baseURL. Authenticated calls take
// their token from tokens at send time.
func New(baseURL string, tokens middleware.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway: invalid base url %q", baseURL)
	}
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	mws := []middleware.Middleware{middleware.RequestID(), middleware.BearerAuth(tokens)}
	if o.logger != nil {
		mws = append(mws, middleware.RequestLogger(o.logger))
	}
	if o.tracing {
		mws = append(mws, middleware.XRay())
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Transport: middleware.Chain(o.base, mws...)},
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// FileURL resolves a server file name to its download address.
func (c *Client) FileURL(filename string) string {
	return c.baseURL + "/api/files/" + url.PathEscape(filename)
}

type request struct {
	op     string
	method string
	path   string
	json   any
	form   *multipartBody
	// token overrides the session token for this call only.
	token string
}

func (r request) withToken(token string) request {
	r.token = token
	return r
}

// call runs r and decodes a JSON body into T. Every failure comes back as a
// *domain.CallError.
func call[T any](ctx context.Context, c *Client, r request) (T, error) {
	var out T
	resp, err := c.send(ctx, r)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, &domain.CallError{Op: r.op, Kind: domain.KindNetwork, Status: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if _, discard := any(out).(struct{}); discard {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &domain.CallError{Op: r.op, Kind: domain.KindServer, Status: resp.StatusCode, Message: "unexpected response body", Err: err}
	}
	return out, nil
}

// exec runs r and discards the body.
func exec(ctx context.Context, c *Client, r request) error {
	_, err := call[struct{}](ctx, c, r)
	return err
}

func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		buf, ct, err := r.form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case r.json != nil:
		data, err := json.Marshal(r.json)
		if err != nil {
			return nil, &domain.CallError{Op: r.op, Kind: domain.KindValidation, Message: "could not encode request", Err: err}
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, &domain.CallError{Op: r.op, Kind: domain.KindNetwork, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.CallError{Op: r.op, Kind: domain.KindNetwork, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, classify(r.op, resp)
}

func classify(op string, resp *http.Response) *domain.CallError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	ce := &domain.CallError{Op: op, Status: resp.StatusCode, Message: serverMessage(raw)}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		ce.Kind = domain.KindAuth
	case resp.StatusCode == http.StatusNotFound:
		ce.Kind = domain.KindNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		ce.Kind = domain.KindValidation
	default:
		ce.Kind = domain.KindServer
	}
	return ce
}

// serverMessage pulls the human message out of an error body. The backend
// answers {"message": "..."}; other shapes fall back to the raw text.
func serverMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		return ""
	}
	text := string(raw)
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}

// IsCallError reports whether err came back from the backend or transport
// rather than from local validation.
func IsCallError(err error) bool {
	var ce *domain.CallError
	return errors.As(err, &ce)
}

func pathID(id string) string {
	return url.PathEscape(id)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	lastCtx  context.Context
	lastMsg  string
	lastArgs []any
	warned   bool
}

func (m *mockLogger) Info(ctx context.Context, msg string, args ...any) {
	m.lastCtx = ctx
	m.lastMsg = msg
	m.lastArgs = args
}

func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.warned = true
	m.lastCtx = ctx
	m.lastMsg = msg
	m.lastArgs = args
}

func (m *mockLogger) Error(context.Context, string, ...any) {}
func (m *mockLogger) Debug(context.Context, string, ...any) {}

// headerEcho answers with the request headers the middleware chain produced.
func headerEcho(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.GET("/api/applications", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"authorization": c.Request().Header.Get("Authorization"),
			"request_id":    c.Request().Header.Get(HeaderRequestID),
		})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, rt http.RoundTripper, ctx context.Context, url string, header http.Header) map[string]string {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]string
	require.NoError(t, decodeJSON(resp, &out))
	return out
}

func TestBearerAuth_AttachesSessionToken(t *testing.T) {
	srv := headerEcho(t)
	rt := Chain(http.DefaultTransport, BearerAuth(TokenFunc(func() string { return "tok-1" })))

	out := get(t, rt, context.Background(), srv.URL+"/api/applications", nil)
	assert.Equal(t, "Bearer tok-1", out["authorization"])
}

func TestBearerAuth_KeepsExplicitHeader(t *testing.T) {
	srv := headerEcho(t)
	rt := Chain(http.DefaultTransport, BearerAuth(TokenFunc(func() string { return "session" })))

	out := get(t, rt, context.Background(), srv.URL+"/api/applications", http.Header{"Authorization": {"Bearer explicit"}})
	assert.Equal(t, "Bearer explicit", out["authorization"])
}

func TestBearerAuth_NoTokenSendsBareRequest(t *testing.T) {
	srv := headerEcho(t)
	rt := Chain(http.DefaultTransport, BearerAuth(TokenFunc(func() string { return "" })))

	out := get(t, rt, context.Background(), srv.URL+"/api/applications", nil)
	assert.Empty(t, out["authorization"])
}

func TestRequestID_StampsOnlyWhenMissing(t *testing.T) {
	srv := headerEcho(t)
	rt := Chain(http.DefaultTransport, RequestID())

	out := get(t, rt, context.Background(), srv.URL+"/api/applications", nil)
	assert.Len(t, out["request_id"], 36)

	out = get(t, rt, context.Background(), srv.URL+"/api/applications", http.Header{HeaderRequestID: {"fixed"}})
	assert.Equal(t, "fixed", out["request_id"])
}

func TestRequestLogger_LogsExpectedFields(t *testing.T) {
	srv := headerEcho(t)
	logger := &mockLogger{}
	rt := Chain(http.DefaultTransport, RequestID(), RequestLogger(logger))

	get(t, rt, context.Background(), srv.URL+"/api/applications", nil)

	if logger.lastMsg != "http request" {
		t.Fatalf("unexpected log message: %s", logger.lastMsg)
	}
	keys := map[string]any{}
	for i := 0; i < len(logger.lastArgs)-1; i += 2 {
		if k, ok := logger.lastArgs[i].(string); ok {
			keys[k] = logger.lastArgs[i+1]
		}
	}
	for _, expected := range []string{"method", "path", "status", "duration", "request_id"} {
		if _, ok := keys[expected]; !ok {
			t.Fatalf("missing expected key %s in args: %v", expected, logger.lastArgs)
		}
	}
	assert.Equal(t, http.StatusOK, keys["status"])
	assert.Equal(t, "/api/applications", keys["path"])
}

func TestRequestLogger_WarnsOnTransportFailure(t *testing.T) {
	logger := &mockLogger{}
	failing := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, assert.AnError
	})
	rt := Chain(failing, RequestLogger(logger))

	req := httptest.NewRequest(http.MethodGet, "http://backend.invalid/api/services", nil)
	_, err := rt.RoundTrip(req)
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, logger.warned)
	assert.Equal(t, "http request failed", logger.lastMsg)
}

func TestRequestLogger_PassesContextWithXRaySegment(t *testing.T) {
	srv := headerEcho(t)
	logger := &mockLogger{}
	rt := Chain(http.DefaultTransport, RequestLogger(logger), XRay())

	err := WithSegment(context.Background(), "portal-test", func(ctx context.Context) error {
		get(t, rt, ctx, srv.URL+"/api/applications", nil)
		return nil
	})
	require.NoError(t, err)

	if xray.GetSegment(logger.lastCtx) == nil {
		t.Fatalf("expected xray segment in logged context")
	}
}

func TestChain_OrderAndNilSkipping(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
	})

	rt := Chain(base, mark("first"), nil, mark("second"))
	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://x/", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "base"}, order)
}

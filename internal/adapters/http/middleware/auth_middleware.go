package middleware

import (
	"net/http"
	"strings"
)

// TokenSource yields the bearer token for the current session, or "".
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// BearerAuth attaches the session token to requests that carry no
// Authorization header of their own. Without a token the request goes out
// bare and the server decides.
func BearerAuth(src TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if src == nil || req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			token := strings.TrimSpace(src.Token())
			if token == "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(req)
		})
	}
}

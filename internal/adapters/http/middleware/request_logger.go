package middleware

import (
	"net/http"
	"time"

	"citizen-portal/internal/ports"
)

func RequestLogger(logger ports.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			started := time.Now()
			resp, err := next.RoundTrip(req)
			duration := time.Since(started)
			ctx := req.Context()
			if err != nil {
				logger.Warn(ctx, "http request failed",
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", req.Header.Get(HeaderRequestID),
					"duration", duration.String(),
					"error", err,
				)
				return nil, err
			}
			logger.Info(ctx, "http request",
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(HeaderRequestID),
				"status", resp.StatusCode,
				"duration", duration.String(),
			)
			return resp, nil
		})
	}
}

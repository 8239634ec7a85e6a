package middleware

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// XRay records each outgoing call as a subsegment of the segment on the
// request context.
func XRay() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return xray.RoundTripper(next)
	}
}

// WithSegment runs fn inside a new top-level segment named segmentName.
func WithSegment(ctx context.Context, segmentName string, fn func(ctx context.Context) error) error {
	ctx, seg := xray.BeginSegment(ctx, segmentName)
	err := fn(ctx)
	seg.Close(err)
	return err
}

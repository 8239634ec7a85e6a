package application

import (
	"context"
	"errors"
	"fmt"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// Reporter is the one place failures are logged and shown.
type Reporter struct {
	logger   ports.Logger
	notifier ports.Notifier
}

func NewReporter(logger ports.Logger, notifier ports.Notifier) *Reporter {
	return &Reporter{logger: logger, notifier: notifier}
}

// Fail logs err and alerts the person at the keyboard. It returns what was
// shown.
func (r *Reporter) Fail(ctx context.Context, action string, err error) []string {
	if err == nil {
		return nil
	}
	kind := domain.KindOf(err)
	args := []any{"action", action, "kind", kind, "error", err}
	var ce *domain.CallError
	if errors.As(err, &ce) && ce.Status != 0 {
		args = append(args, "status", ce.Status)
	}
	if kind == domain.KindValidation {
		r.logger.Warn(ctx, "action failed", args...)
	} else {
		r.logger.Error(ctx, "action failed", args...)
	}

	shown := Messages(action, err)
	for _, m := range shown {
		r.notifier.Alert(ctx, m)
	}
	return shown
}

// Succeed shows a confirmation.
func (r *Reporter) Succeed(ctx context.Context, msg string) {
	r.logger.Info(ctx, "action succeeded", "message", msg)
	r.notifier.Notify(ctx, msg)
}

// Messages renders err for display. Local validation yields one message per
// field. A message the server attached to a 4xx answer is shown as sent.
// Anything else is "Failed to <action>.".
func Messages(action string, err error) []string {
	var ve domain.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		out := make([]string, 0, len(ve))
		for _, f := range ve.Fields() {
			out = append(out, ve[f])
		}
		return out
	}
	var ce *domain.CallError
	if errors.As(err, &ce) && ce.Message != "" && (ce.Kind == domain.KindValidation || clientError(ce.Status)) {
		return []string{ce.Message}
	}
	return []string{fmt.Sprintf("Failed to %s.", action)}
}

func clientError(status int) bool {
	return status >= 400 && status < 500
}

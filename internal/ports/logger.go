package ports

import "context"

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

// Notifier surfaces messages to the person at the keyboard. Alert blocks
// until the message has been shown.
type Notifier interface {
	Notify(ctx context.Context, msg string)
	Alert(ctx context.Context, msg string)
}

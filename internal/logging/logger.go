// Package logging is the structured logger shared by the session client, the
// REST transport and the CLI. SlogLogger is the only implementation.
package logging

import "context"

// Logger is a context-aware, structured logger. args are key/value pairs:
//
//	log.Info(ctx, "connected", "host", host, "user", username)
type Logger interface {
	// Debug is for per-request transport diagnostics.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn marks recoverable trouble, e.g. a failed token refresh.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every record.
	With(args ...any) Logger
}

// Package notify defines the callback through which the session surfaces
// lifecycle events (reconnecting, reconnected, ...) to the embedding
// application.
package notify

import (
	"context"

	"github.com/dmitrijs2005/scrumlink/internal/logging"
)

// Level is the severity attached to a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Messages emitted by the auto-refresh hook.
const (
	MsgReconnecting      = "reconnecting"
	MsgReconnected       = "reconnected"
	MsgCouldNotReconnect = "could not reconnect, try logging in again"
)

// Handler receives session notifications. It is supplied by the host
// application and must not block for long: it runs on the request path of
// whichever call triggered the event.
type Handler func(ctx context.Context, message string, level Level)

// Notify invokes h if it is set.
func (h Handler) Notify(ctx context.Context, message string, level Level) {
	if h != nil {
		h(ctx, message, level)
	}
}

// LogHandler returns a Handler that writes notifications to log at the
// matching severity.
func LogHandler(log logging.Logger) Handler {
	return func(ctx context.Context, message string, level Level) {
		switch level {
		case LevelError:
			log.Error(ctx, message)
		case LevelWarn:
			log.Warn(ctx, message)
		default:
			log.Info(ctx, message)
		}
	}
}

// Chain returns a Handler that calls every non-nil handler in order.
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, message string, level Level) {
		for _, h := range handlers {
			h.Notify(ctx, message, level)
		}
	}
}

package notify

// Package notify provides Notifier adapters: a structured-log notifier for
// headless use and a webhook notifier that posts banners to an external
// message surface.

import (
	"context"
	"log/slog"

	"github.com/foliohq/folio-auth/internal/ports"
)

// LogNotifier surfaces session messages through the structured logger. It is
// the default notifier when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger, falling back to the
// default logger when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

var _ ports.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.InfoContext(ctx, "notify", "level", "success", "message", message)
}

func (n *LogNotifier) Error(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, "notify", "level", "error", "message", message)
}

// Nop is a Notifier that discards all messages.
type Nop struct{}

var _ ports.Notifier = Nop{}

func (Nop) Success(context.Context, string) {}
func (Nop) Error(context.Context, string)   {}

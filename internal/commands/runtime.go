package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// DefaultCommandTimeout bounds resolve and render commands. Builds opt out.
const DefaultCommandTimeout = 30 * time.Second

func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger substitutes the no-op logger for nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

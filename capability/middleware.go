package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// InvokeFunc is the dispatch function middleware wraps around.
type InvokeFunc func(ctx context.Context, call entities.Call, invoker ports.CallbackInvoker) error

// Middleware wraps an InvokeFunc to add cross-cutting behavior at the
// capability dispatch boundary. Middleware executes in FIFO order (first
// registered wraps outermost).
type Middleware func(next InvokeFunc) InvokeFunc

// LoggingMiddleware logs every capability invocation and its outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next InvokeFunc) InvokeFunc {
		return func(ctx context.Context, call entities.Call, invoker ports.CallbackInvoker) error {
			err := next(ctx, call, invoker)
			if err != nil {
				logger.Error("capability invocation failed",
					"module", call.ModuleID, "method", call.MethodID, "error", err)
				return err
			}
			logger.Debug("capability invocation completed",
				"module", call.ModuleID, "method", call.MethodID)
			return nil
		}
	}
}

func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, customer, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			customer := CustomerFromContext(ctx)
			attrs := []any{
				"procedure", procedure,
				"user_id", customer.UserID,
				"guest_id", customer.GuestID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					slog.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				} else {
					slog.Error("RPC error", append(attrs, "error", err)...)
				}
			} else {
				slog.Info("RPC ok", attrs...)
			}

			return resp, err
		}
	}
}

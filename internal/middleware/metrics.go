package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"connectrpc.com/connect"
)

// RPCObserver records per-procedure latency.
type RPCObserver interface {
	ObserveRPC(procedure, code string, elapsed time.Duration)
}

// MetricsInterceptor reports each call's duration and result code.
func MetricsInterceptor(observer RPCObserver) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			observer.ObserveRPC(req.Spec().Procedure, code, time.Since(start))
			return resp, err
		}
	}
}

// RecoverInterceptor turns a handler panic into an Internal error.
func RecoverInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("RPC panic",
						"procedure", req.Spec().Procedure,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp, err = nil, connect.NewError(connect.CodeInternal, fmt.Errorf("internal error"))
				}
			}()
			return next(ctx, req)
		}
	}
}

package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/xquisito/pickandgo/internal/auth"
	"github.com/xquisito/pickandgo/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// CustomerKey is the context key for the resolved customer identity.
const CustomerKey contextKey = "customer"

// Headers that identify anonymous customers.
const (
	GuestIDHeader   = "X-Guest-Id"
	SessionIDHeader = "X-Session-Id"
)

// CustomerFromContext returns the identity resolved by OptionalAuth.
// The zero value is returned if none was set.
func CustomerFromContext(ctx context.Context) models.CustomerIdentity {
	customer, _ := ctx.Value(CustomerKey).(models.CustomerIdentity)
	return customer
}

// WithCustomer stores customer in ctx.
func WithCustomer(ctx context.Context, customer models.CustomerIdentity) context.Context {
	return context.WithValue(ctx, CustomerKey, customer)
}

// OptionalAuth returns a middleware that resolves who is checking out.
// A valid bearer token yields a signed-in user; without one the X-Guest-Id
// header names a guest. A token that is present but invalid is rejected so
// a signed-in customer is never silently downgraded to a guest.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			var customer models.CustomerIdentity

			if authHeader := req.Header().Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
				}
				claims, err := jwtManager.Validate(parts[1])
				if err != nil {
					return nil, connect.NewError(connect.CodeUnauthenticated, err)
				}
				customer = claims.Identity()
			} else {
				customer.GuestID = strings.TrimSpace(req.Header().Get(GuestIDHeader))
			}
			customer.SessionID = strings.TrimSpace(req.Header().Get(SessionIDHeader))

			return next(WithCustomer(ctx, customer), req)
		}
	}
}

// RequireCustomer rejects requests that carry neither a user nor a guest id.
// It must run after OptionalAuth.
func RequireCustomer() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if CustomerFromContext(ctx).OwnerID() == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}
			return next(ctx, req)
		}
	}
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/storage"
)

const (
	pendingDeletionPrefix = "xquisito-pending-deletion-"
	defaultDeletionTTL    = 5 * time.Minute
)

// DeletionGuard implements the two-step removal of a stored card: Request
// returns a token, and only Confirm with that token deletes the card.
type DeletionGuard struct {
	methods PaymentMethodStore
	slots   storage.SlotStore
	ttl     time.Duration
	logger  *slog.Logger
}

// NewDeletionGuard creates a guard. A non-positive ttl uses five minutes.
func NewDeletionGuard(methods PaymentMethodStore, slots storage.SlotStore, ttl time.Duration, logger *slog.Logger) *DeletionGuard {
	if ttl <= 0 {
		ttl = defaultDeletionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeletionGuard{methods: methods, slots: slots, ttl: ttl, logger: logger}
}

// Request validates that methodID is a deletable stored card and returns the
// confirmation token.
func (g *DeletionGuard) Request(ctx context.Context, customer models.CustomerIdentity, methodID string) (string, error) {
	if methodID == models.SystemDefaultCardID {
		return "", ErrSystemCardNotDeletable
	}
	stored, err := g.methods.ListPaymentMethods(ctx, customer)
	if err != nil {
		return "", fmt.Errorf("failed to list payment methods: %w", err)
	}
	if err := NewSelection(stored).CanDelete(methodID); err != nil {
		return "", err
	}

	token := ulid.Make().String()
	if err := g.slots.PutSession(ctx, deletionScope(customer), pendingDeletionPrefix+token, []byte(methodID), g.ttl); err != nil {
		return "", fmt.Errorf("failed to store deletion request: %w", err)
	}
	return token, nil
}

// Confirm deletes the card the token was issued for and returns its id.
func (g *DeletionGuard) Confirm(ctx context.Context, customer models.CustomerIdentity, token string) (string, error) {
	scope := deletionScope(customer)
	key := pendingDeletionPrefix + token
	value, err := g.slots.GetSession(ctx, scope, key)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return "", ErrDeletionNotRequested
	}
	if err != nil {
		return "", fmt.Errorf("failed to load deletion request: %w", err)
	}

	methodID := string(value)
	if err := g.methods.DeletePaymentMethod(ctx, customer, methodID); err != nil {
		return "", fmt.Errorf("failed to delete payment method: %w", err)
	}
	// The card is gone; a stale token only fails the next Confirm.
	if err := g.slots.DeleteSession(ctx, scope, key); err != nil {
		g.logger.Warn("Failed to clear deletion token", "payment_method_id", methodID, "error", err)
	}
	return methodID, nil
}

func deletionScope(customer models.CustomerIdentity) string {
	if customer.SessionID != "" {
		return customer.SessionID
	}
	return customer.OwnerID()
}

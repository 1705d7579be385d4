package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/storage"
)

// Slot keys the payment-success view reads.
const (
	DurableReceiptKey       = "xquisito-completed-payment"
	SessionReceiptKeyPrefix = "xquisito-payment-success-"
	CurrentPaymentKey       = "xquisito-current-payment-key"
	CurrentOrderIDKey       = "xquisito-current-order-id"
)

const defaultSessionTTL = 24 * time.Hour

// ReceiptSource says where Locate found a receipt.
type ReceiptSource string

const (
	SourceMemory  ReceiptSource = "memory"
	SourceSession ReceiptSource = "session"
	SourceDurable ReceiptSource = "durable"
)

// SessionReceiptKey is the session slot holding the receipt of one order.
func SessionReceiptKey(orderID string) string {
	return SessionReceiptKeyPrefix + orderID
}

// ReceiptVault keeps receipt snapshots recoverable after the submitting
// request is gone: one durable slot per customer, and per-order session slots
// plus pointer keys per session.
type ReceiptVault struct {
	slots      storage.SlotStore
	sessionTTL time.Duration
}

// NewReceiptVault creates a vault. A non-positive ttl uses 24 hours.
func NewReceiptVault(slots storage.SlotStore, sessionTTL time.Duration) *ReceiptVault {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &ReceiptVault{slots: slots, sessionTTL: sessionTTL}
}

// Save writes the snapshot to the durable slot and, when the customer has a
// session, to the session slot and both pointer keys.
func (v *ReceiptVault) Save(ctx context.Context, customer models.CustomerIdentity, snap *models.ReceiptSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	var errs []error
	if owner := customer.OwnerID(); owner != "" {
		if err := v.slots.PutDurable(ctx, owner, DurableReceiptKey, data); err != nil {
			errs = append(errs, fmt.Errorf("durable slot: %w", err))
		}
	}
	if session := customer.SessionID; session != "" {
		key := SessionReceiptKey(snap.OrderID)
		if err := v.slots.PutSession(ctx, session, key, data, v.sessionTTL); err != nil {
			errs = append(errs, fmt.Errorf("session slot: %w", err))
		}
		if err := v.slots.PutSession(ctx, session, CurrentPaymentKey, []byte(key), v.sessionTTL); err != nil {
			errs = append(errs, fmt.Errorf("current payment key: %w", err))
		}
		if err := v.slots.PutSession(ctx, session, CurrentOrderIDKey, []byte(snap.OrderID), v.sessionTTL); err != nil {
			errs = append(errs, fmt.Errorf("current order id: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Locate recovers a receipt in order of preference: the in-memory snapshot
// of the submitting request, the session slot, then the durable slot. When
// orderID is set only a receipt for that order is returned.
func (v *ReceiptVault) Locate(ctx context.Context, customer models.CustomerIdentity, inMemory *models.ReceiptSnapshot, orderID string) (*models.ReceiptSnapshot, ReceiptSource, error) {
	if inMemory != nil && matches(inMemory, orderID) {
		return inMemory, SourceMemory, nil
	}

	if session := customer.SessionID; session != "" {
		snap, err := v.fromSession(ctx, session, orderID)
		if err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
			return nil, "", err
		}
		if snap != nil && matches(snap, orderID) {
			return snap, SourceSession, nil
		}
	}

	if owner := customer.OwnerID(); owner != "" {
		data, err := v.slots.GetDurable(ctx, owner, DurableReceiptKey)
		if err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
			return nil, "", fmt.Errorf("failed to read durable slot: %w", err)
		}
		if err == nil {
			snap, err := decodeReceipt(data)
			if err != nil {
				return nil, "", err
			}
			if matches(snap, orderID) {
				return snap, SourceDurable, nil
			}
		}
	}

	return nil, "", ErrReceiptNotFound
}

// Consume clears the durable slot once the receipt view has rendered it.
func (v *ReceiptVault) Consume(ctx context.Context, customer models.CustomerIdentity) error {
	owner := customer.OwnerID()
	if owner == "" {
		return nil
	}
	err := v.slots.DeleteDurable(ctx, owner, DurableReceiptKey)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return nil
	}
	return err
}

func (v *ReceiptVault) fromSession(ctx context.Context, session, orderID string) (*models.ReceiptSnapshot, error) {
	key := ""
	switch {
	case orderID != "":
		key = SessionReceiptKey(orderID)
	default:
		pointer, err := v.slots.GetSession(ctx, session, CurrentPaymentKey)
		if err == nil {
			key = string(pointer)
			break
		}
		if !errors.Is(err, storage.ErrSlotNotFound) {
			return nil, fmt.Errorf("failed to read current payment key: %w", err)
		}
		id, err := v.slots.GetSession(ctx, session, CurrentOrderIDKey)
		if err != nil {
			return nil, err
		}
		key = SessionReceiptKey(string(id))
	}

	data, err := v.slots.GetSession(ctx, session, key)
	if err != nil {
		return nil, err
	}
	return decodeReceipt(data)
}

func decodeReceipt(data []byte) (*models.ReceiptSnapshot, error) {
	var snap models.ReceiptSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return &snap, nil
}

func matches(snap *models.ReceiptSnapshot, orderID string) bool {
	return orderID == "" || snap.OrderID == orderID
}

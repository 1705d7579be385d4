// Package storage provides abstractions for checkout-side persistence.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSlotNotFound is returned when a slot key has no value (or it expired).
	ErrSlotNotFound = errors.New("slot not found")

	// ErrKeyInProgress is returned by IdempotencyStore.Begin while another
	// submission holds the key.
	ErrKeyInProgress = errors.New("idempotency key in progress")

	// ErrKeyConflict is returned when a key is reused by a different owner.
	ErrKeyConflict = errors.New("idempotency key belongs to another owner")
)

// SlotStore is a small key-value store with two slot classes.
// Durable slots are keyed by owner and survive until overwritten or deleted.
// Session slots are keyed by session id and expire after their TTL.
type SlotStore interface {
	PutDurable(ctx context.Context, owner, key string, value []byte) error
	GetDurable(ctx context.Context, owner, key string) ([]byte, error)
	DeleteDurable(ctx context.Context, owner, key string) error

	PutSession(ctx context.Context, session, key string, value []byte, ttl time.Duration) error
	GetSession(ctx context.Context, session, key string) ([]byte, error)
	DeleteSession(ctx context.Context, session, key string) error
}

// IdempotencyStore guards order submission against retries creating
// duplicate orders.
type IdempotencyStore interface {
	// Begin reserves key for owner. It returns the stored result when the key
	// already completed, ErrKeyInProgress while it is held, and (nil, nil)
	// when the caller now holds it.
	Begin(ctx context.Context, key, owner string) ([]byte, error)

	// Complete stores the result for a held key.
	Complete(ctx context.Context, key string, result []byte) error

	// Release frees a held key so the submission can be retried from scratch.
	Release(ctx context.Context, key string) error
}

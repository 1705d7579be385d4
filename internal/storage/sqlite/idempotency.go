package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xquisito/pickandgo/internal/storage"
)

// Begin reserves key for owner. An in-progress key older than the lease is
// taken over.
func (s *SQLiteStore) Begin(ctx context.Context, key, owner string) ([]byte, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	var (
		existingOwner string
		result        []byte
		startedAt     int64
		completedAt   sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT owner, result, started_at, completed_at FROM idempotency_keys WHERE key = ?",
		key,
	).Scan(&existingOwner, &result, &startedAt, &completedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO idempotency_keys (key, owner, started_at) VALUES (?, ?, ?)",
			key, owner, now.UnixMilli(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	case existingOwner != owner:
		return nil, storage.ErrKeyConflict
	case completedAt.Valid:
		return result, nil
	case now.UnixMilli()-startedAt < s.lease.Milliseconds():
		return nil, storage.ErrKeyInProgress
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE idempotency_keys SET started_at = ? WHERE key = ?",
			now.UnixMilli(), key,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to renew idempotency key: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil, nil
}

// Complete stores the result for a held key.
func (s *SQLiteStore) Complete(ctx context.Context, key string, result []byte) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE idempotency_keys SET result = ?, completed_at = ? WHERE key = ?",
		result, s.now().UnixMilli(), key,
	)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("idempotency key not found: %s", key)
	}
	return nil
}

// Release deletes a key that has not completed.
func (s *SQLiteStore) Release(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM idempotency_keys WHERE key = ? AND completed_at IS NULL",
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

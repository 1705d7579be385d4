package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xquisito/pickandgo/internal/storage"
)

// PutDurable stores value under (owner, key), replacing any previous value.
func (s *SQLiteStore) PutDurable(ctx context.Context, owner, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO durable_slots (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		owner, key, value, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put durable slot: %w", err)
	}
	return nil
}

// GetDurable returns the value under (owner, key).
func (s *SQLiteStore) GetDurable(ctx context.Context, owner, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM durable_slots WHERE owner = ? AND key = ?",
		owner, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get durable slot: %w", err)
	}
	return value, nil
}

// DeleteDurable removes (owner, key). Deleting a missing slot is not an error.
func (s *SQLiteStore) DeleteDurable(ctx context.Context, owner, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM durable_slots WHERE owner = ? AND key = ?",
		owner, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete durable slot: %w", err)
	}
	return nil
}

// PutSession stores value under (session, key) until ttl elapses.
func (s *SQLiteStore) PutSession(ctx context.Context, session, key string, value []byte, ttl time.Duration) error {
	expires := s.now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_slots (session_id, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		session, key, value, expires,
	)
	if err != nil {
		return fmt.Errorf("failed to put session slot: %w", err)
	}
	return nil
}

// GetSession returns the unexpired value under (session, key).
func (s *SQLiteStore) GetSession(ctx context.Context, session, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM session_slots WHERE session_id = ? AND key = ? AND expires_at > ?",
		session, key, s.now().UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session slot: %w", err)
	}
	return value, nil
}

// DeleteSession removes (session, key).
func (s *SQLiteStore) DeleteSession(ctx context.Context, session, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session_slots WHERE session_id = ? AND key = ?",
		session, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session slot: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired session slots and returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM session_slots WHERE expires_at <= ?",
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge session slots: %w", err)
	}
	return res.RowsAffected()
}

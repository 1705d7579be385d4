package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

// ErrPaymentMethodNotFound is returned when deleting a card the customer does not own.
var ErrPaymentMethodNotFound = errors.New("payment method not found")

var _ checkout.PaymentMethodStore = (*SQLiteStore)(nil)

// AddPaymentMethod stores a card for the customer. The system card is
// synthetic and is never stored.
func (s *SQLiteStore) AddPaymentMethod(ctx context.Context, customer models.CustomerIdentity, pm models.PaymentMethod) error {
	if pm.IsSystem() {
		return fmt.Errorf("system card cannot be stored")
	}
	owner := customer.OwnerID()
	if owner == "" {
		return ErrCartOwnerRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if pm.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE payment_methods SET is_default = 0 WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("failed to reset default card: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payment_methods (id, owner, last_four, card_brand, card_type, is_default, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pm.ID, owner, pm.LastFourDigits, pm.CardBrand, pm.CardType, pm.IsDefault, s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert payment method: %w", err)
	}
	return tx.Commit()
}

// ListPaymentMethods returns the customer's stored cards, oldest first.
func (s *SQLiteStore) ListPaymentMethods(ctx context.Context, customer models.CustomerIdentity) ([]models.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, last_four, card_brand, card_type, is_default FROM payment_methods
		 WHERE owner = ? ORDER BY rowid`,
		customer.OwnerID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		var pm models.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.LastFourDigits, &pm.CardBrand, &pm.CardType, &pm.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	return methods, rows.Err()
}

// DeletePaymentMethod removes one of the customer's cards.
func (s *SQLiteStore) DeletePaymentMethod(ctx context.Context, customer models.CustomerIdentity, methodID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM payment_methods WHERE id = ? AND owner = ?`, methodID, customer.OwnerID(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

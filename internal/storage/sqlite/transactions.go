package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

var _ checkout.TransactionRecorder = (*SQLiteStore)(nil)

// RecordTransaction persists the commission audit row of an order.
func (s *SQLiteStore) RecordTransaction(ctx context.Context, rec models.TransactionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	var methodID any
	if rec.PaymentMethodID != nil {
		methodID = *rec.PaymentMethodID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, order_id, restaurant_id, user_id, guest_id, payment_method_id,
		 base_amount, tip_amount, iva_tip, subtotal_for_commission, commission_total, commission_client,
		 commission_restaurant, iva_commission_client, iva_commission_restaurant, client_charge,
		 restaurant_charge, total_amount_charged, commission_rate_percent, installment_months, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrderID, rec.RestaurantID, nullString(rec.UserID), nullString(rec.GuestID), methodID,
		rec.BaseAmount.String(), rec.TipAmount.String(), rec.IVATip.String(), rec.SubtotalForCommission.String(),
		rec.CommissionTotal.String(), rec.CommissionClient.String(), rec.CommissionRestaurant.String(),
		rec.IVACommissionClient.String(), rec.IVACommissionRestaurant.String(), rec.ClientCharge.String(),
		rec.RestaurantCharge.String(), rec.TotalAmountCharged.String(), rec.CommissionRatePercent.String(),
		rec.InstallmentMonths, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactionsByOrder returns the audit rows of an order, oldest first.
func (s *SQLiteStore) ListTransactionsByOrder(ctx context.Context, orderID string) ([]models.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, restaurant_id, user_id, guest_id, payment_method_id,
		 base_amount, tip_amount, iva_tip, subtotal_for_commission, commission_total, commission_client,
		 commission_restaurant, iva_commission_client, iva_commission_restaurant, client_charge,
		 restaurant_charge, total_amount_charged, commission_rate_percent, installment_months, created_at
		 FROM transactions WHERE order_id = ? ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var (
			rec             models.TransactionRecord
			userID, guestID sql.NullString
			methodID        sql.NullString
			createdAt       int64
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.RestaurantID, &userID, &guestID, &methodID,
			&rec.BaseAmount, &rec.TipAmount, &rec.IVATip, &rec.SubtotalForCommission, &rec.CommissionTotal,
			&rec.CommissionClient, &rec.CommissionRestaurant, &rec.IVACommissionClient, &rec.IVACommissionRestaurant,
			&rec.ClientCharge, &rec.RestaurantCharge, &rec.TotalAmountCharged, &rec.CommissionRatePercent,
			&rec.InstallmentMonths, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		rec.UserID = userID.String
		rec.GuestID = guestID.String
		if methodID.Valid {
			id := methodID.String
			rec.PaymentMethodID = &id
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return records, nil
}

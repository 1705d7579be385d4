package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

// ErrOrderNotFound is returned when an order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

var _ checkout.OrderAPI = (*SQLiteStore)(nil)

// CreateOrder persists a new order and returns its id.
func (s *SQLiteStore) CreateOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	sessionData, err := json.Marshal(req.SessionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode session data: %w", err)
	}
	prep, err := json.Marshal(req.PrepMetadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode prep metadata: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, guest_id, customer_name, customer_email, customer_phone,
		 restaurant_id, branch_number, total_amount, payment_status, order_status, session_data, prep_metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullString(req.UserID), nullString(req.GuestID), req.CustomerName,
		nullString(req.CustomerEmail), nullString(req.CustomerPhone),
		req.RestaurantID, req.BranchNumber, req.TotalAmount.StringFixed(2),
		string(req.PaymentStatus), string(req.OrderStatus), string(sessionData), string(prep),
		s.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

// CreateLineItem attaches one item to an existing order.
func (s *SQLiteStore) CreateLineItem(ctx context.Context, orderID string, req models.LineItemRequest) (string, error) {
	images, err := json.Marshal(req.Images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	fields, err := json.Marshal(req.CustomFields)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM order_items WHERE order_id = ?`,
		orderID,
	).Scan(&position)
	if err != nil {
		return "", fmt.Errorf("failed to get item position: %w", err)
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_items (id, order_id, position, item, price, quantity, extra_price, menu_item_id, images, custom_fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orderID, position, req.Item, req.Price.StringFixed(2), req.Quantity,
		req.ExtraPrice.StringFixed(2), nullString(req.MenuItemID), string(images), string(fields),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert order item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// UpdatePaymentStatus sets the payment flag of an order.
func (s *SQLiteStore) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) error {
	return s.updateOrderColumn(ctx, orderID, "payment_status", string(status))
}

// UpdateOrderStatus sets the preparation status of an order.
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return s.updateOrderColumn(ctx, orderID, "order_status", string(status))
}

func (s *SQLiteStore) updateOrderColumn(ctx context.Context, orderID, column, value string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET "+column+" = ? WHERE id = ?",
		value, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

// GetOrder retrieves an order with its items in attachment order.
func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}
	var (
		userID, guestID, email, phone sql.NullString
		paymentStatus, orderStatus    string
		sessionData, prep             string
		createdAt                     int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, guest_id, customer_name, customer_email, customer_phone, restaurant_id,
		 branch_number, total_amount, payment_status, order_status, session_data, prep_metadata, created_at
		 FROM orders WHERE id = ?`,
		orderID,
	).Scan(&order.ID, &userID, &guestID, &order.CustomerName, &email, &phone, &order.RestaurantID,
		&order.BranchNumber, &order.TotalAmount, &paymentStatus, &orderStatus, &sessionData, &prep, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.UserID = userID.String
	order.GuestID = guestID.String
	order.CustomerEmail = email.String
	order.CustomerPhone = phone.String
	order.PaymentStatus = models.PaymentStatus(paymentStatus)
	order.OrderStatus = models.OrderStatus(orderStatus)
	order.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(sessionData), &order.SessionData); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}
	if err := json.Unmarshal([]byte(prep), &order.PrepMetadata); err != nil {
		return nil, fmt.Errorf("failed to decode prep metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item, price, quantity, extra_price, images, custom_fields
		 FROM order_items WHERE order_id = ? ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := models.OrderItem{OrderID: orderID}
		var images, fields sql.NullString
		if err := rows.Scan(&item.ID, &item.Item, &item.Price, &item.Quantity, &item.ExtraPrice, &images, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if images.Valid {
			if err := json.Unmarshal([]byte(images.String), &item.Images); err != nil {
				return nil, fmt.Errorf("failed to decode item images: %w", err)
			}
		}
		if fields.Valid {
			if err := json.Unmarshal([]byte(fields.String), &item.CustomFields); err != nil {
				return nil, fmt.Errorf("failed to decode item custom fields: %w", err)
			}
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return order, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

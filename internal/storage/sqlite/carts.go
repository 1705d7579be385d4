package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

// ErrCartItemNotFound is returned when removing a line that is not in the cart.
var ErrCartItemNotFound = errors.New("cart item not found")

// ErrCartOwnerRequired is returned when a cart ref names neither a user nor a guest.
var ErrCartOwnerRequired = errors.New("cart owner required")

var _ checkout.Cart = (*SQLiteStore)(nil)

func cartOwner(ref models.CartRef) (string, error) {
	owner := models.CustomerIdentity{UserID: ref.UserID, GuestID: ref.GuestID}.OwnerID()
	if owner == "" {
		return "", ErrCartOwnerRequired
	}
	return owner, nil
}

// AddItem puts a line into the cart and returns its cart item id.
func (s *SQLiteStore) AddItem(ctx context.Context, ref models.CartRef, item models.CartLineItem) (string, error) {
	owner, err := cartOwner(ref)
	if err != nil {
		return "", err
	}
	fields, err := json.Marshal(item.CustomFields)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom fields: %w", err)
	}
	images, err := json.Marshal(item.Images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}

	id := item.CartItemID
	if id == "" {
		id = uuid.New().String()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, owner, restaurant_id, menu_item_id, name, price, quantity, extra_price, custom_fields, images, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, ref.RestaurantID, item.ID, item.Name, item.Price.String(), item.Quantity,
		item.ExtraPrice.String(), string(fields), string(images), s.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert cart item: %w", err)
	}
	return id, nil
}

// Items returns the cart lines for the owner at one restaurant, oldest first.
func (s *SQLiteStore) Items(ctx context.Context, ref models.CartRef) ([]models.CartLineItem, error) {
	owner, err := cartOwner(ref)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, menu_item_id, name, price, quantity, extra_price, custom_fields, images
		 FROM cart_items WHERE owner = ? AND restaurant_id = ? ORDER BY rowid`,
		owner, ref.RestaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartLineItem
	for rows.Next() {
		var (
			item           models.CartLineItem
			price, extra   string
			fields, images []byte
		)
		if err := rows.Scan(&item.CartItemID, &item.ID, &item.Name, &price, &item.Quantity, &extra, &fields, &images); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for cart item %s: %w", item.CartItemID, err)
		}
		if item.ExtraPrice, err = decimal.NewFromString(extra); err != nil {
			return nil, fmt.Errorf("invalid extra price for cart item %s: %w", item.CartItemID, err)
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &item.CustomFields); err != nil {
				return nil, fmt.Errorf("failed to decode custom fields: %w", err)
			}
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &item.Images); err != nil {
				return nil, fmt.Errorf("failed to decode images: %w", err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RemoveItem deletes one cart line.
func (s *SQLiteStore) RemoveItem(ctx context.Context, ref models.CartRef, cartItemID string) error {
	owner, err := cartOwner(ref)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND owner = ? AND restaurant_id = ?`,
		cartItemID, owner, ref.RestaurantID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// Clear empties the owner's cart at one restaurant.
func (s *SQLiteStore) Clear(ctx context.Context, ref models.CartRef) error {
	owner, err := cartOwner(ref)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE owner = ? AND restaurant_id = ?`, owner, ref.RestaurantID,
	); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Refresh is a no-op locally: the table is always the source of truth.
func (s *SQLiteStore) Refresh(ctx context.Context, ref models.CartRef) error {
	_, err := cartOwner(ref)
	return err
}

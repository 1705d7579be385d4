package xquisito

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xquisito/pickandgo/internal/models"
)

type cartPayload struct {
	Items []models.CartLineItem `json:"items"`
}

func cartQuery(ref models.CartRef) url.Values {
	q := url.Values{"restaurantId": {ref.RestaurantID}}
	if ref.BranchNumber != 0 {
		q.Set("branchNumber", strconv.Itoa(ref.BranchNumber))
	}
	return q
}

func cartOwner(ref models.CartRef) *models.CustomerIdentity {
	return &models.CustomerIdentity{UserID: ref.UserID, GuestID: ref.GuestID}
}

// Items returns the lines of the cart.
func (c *Client) Items(ctx context.Context, ref models.CartRef) ([]models.CartLineItem, error) {
	var out cartPayload
	err := c.do(ctx, call{
		op:       "get cart",
		method:   http.MethodGet,
		path:     []string{"api", "cart"},
		query:    cartQuery(ref),
		customer: cartOwner(ref),
	}, &out)
	return out.Items, err
}

// RemoveItem deletes one cart line.
func (c *Client) RemoveItem(ctx context.Context, ref models.CartRef, cartItemID string) error {
	return c.do(ctx, call{
		op:       "remove cart item",
		method:   http.MethodDelete,
		path:     []string{"api", "cart", "items", cartItemID},
		query:    cartQuery(ref),
		customer: cartOwner(ref),
	}, nil)
}

// Clear empties the cart.
func (c *Client) Clear(ctx context.Context, ref models.CartRef) error {
	return c.do(ctx, call{
		op:       "clear cart",
		method:   http.MethodDelete,
		path:     []string{"api", "cart"},
		query:    cartQuery(ref),
		customer: cartOwner(ref),
	}, nil)
}

// Refresh asks the cart service to recompute totals for the active branch.
func (c *Client) Refresh(ctx context.Context, ref models.CartRef) error {
	return c.do(ctx, call{
		op:       "refresh cart",
		method:   http.MethodPost,
		path:     []string{"api", "cart", "refresh"},
		query:    cartQuery(ref),
		customer: cartOwner(ref),
	}, nil)
}

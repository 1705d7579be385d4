package xquisito

import (
	"context"
	"net/http"

	"github.com/xquisito/pickandgo/internal/models"
)

type idPayload struct {
	ID string `json:"id"`
}

// CreateOrder creates a Pick & Go order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	var out idPayload
	err := c.do(ctx, call{
		op:     "create order",
		method: http.MethodPost,
		path:   []string{"api", "pick-and-go", "orders"},
		body:   req,
	}, &out)
	return out.ID, err
}

// CreateLineItem attaches one item to an order.
func (c *Client) CreateLineItem(ctx context.Context, orderID string, req models.LineItemRequest) (string, error) {
	req.OrderID = orderID
	var out idPayload
	err := c.do(ctx, call{
		op:     "create order item",
		method: http.MethodPost,
		path:   []string{"api", "pick-and-go", "orders", orderID, "items"},
		body:   req,
	}, &out)
	return out.ID, err
}

// UpdatePaymentStatus sets the payment flag of an order.
func (c *Client) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) error {
	return c.do(ctx, call{
		op:     "update payment status",
		method: http.MethodPut,
		path:   []string{"api", "pick-and-go", "orders", orderID, "payment-status"},
		body:   map[string]string{"paymentStatus": string(status)},
	}, nil)
}

// UpdateOrderStatus sets the preparation status of an order.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return c.do(ctx, call{
		op:     "update order status",
		method: http.MethodPut,
		path:   []string{"api", "pick-and-go", "orders", orderID, "status"},
		body:   map[string]string{"orderStatus": string(status)},
	}, nil)
}

// GetOrder fetches an order with its items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, call{
		op:     "get order",
		method: http.MethodGet,
		path:   []string{"api", "pick-and-go", "orders", orderID},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordTransaction writes the commission audit row.
func (c *Client) RecordTransaction(ctx context.Context, rec models.TransactionRecord) error {
	return c.do(ctx, call{
		op:     "record transaction",
		method: http.MethodPost,
		path:   []string{"api", "payment-transactions"},
		body:   rec,
	}, nil)
}

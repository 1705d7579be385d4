package xquisito

import (
	"context"
	"net/http"

	"github.com/xquisito/pickandgo/internal/models"
)

type paymentMethodsPayload struct {
	PaymentMethods []models.PaymentMethod `json:"paymentMethods"`
}

// ListPaymentMethods returns the customer's stored cards.
func (c *Client) ListPaymentMethods(ctx context.Context, customer models.CustomerIdentity) ([]models.PaymentMethod, error) {
	var out paymentMethodsPayload
	err := c.do(ctx, call{
		op:       "list payment methods",
		method:   http.MethodGet,
		path:     []string{"api", "payment-methods"},
		customer: &customer,
	}, &out)
	return out.PaymentMethods, err
}

// DeletePaymentMethod removes a stored card.
func (c *Client) DeletePaymentMethod(ctx context.Context, customer models.CustomerIdentity, methodID string) error {
	return c.do(ctx, call{
		op:       "delete payment method",
		method:   http.MethodDelete,
		path:     []string{"api", "payment-methods", methodID},
		customer: &customer,
	}, nil)
}

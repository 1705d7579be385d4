package xquisito

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest is a charge against a stored card through the hosted
// processor.
type ProcessPaymentRequest struct {
	PaymentMethodID   string          `json:"paymentMethodId"`
	CustomerID        string          `json:"customerId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
	OrderReference    string          `json:"orderReference"`
	InstallmentMonths int             `json:"installments,omitempty"`
}

// ProcessPaymentResult is the processor's answer.
type ProcessPaymentResult struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// ProcessPayment charges a stored card. A declined charge comes back as an
// *APIError carrying the processor's message.
func (c *Client) ProcessPayment(ctx context.Context, req ProcessPaymentRequest, idempotencyKey string) (ProcessPaymentResult, error) {
	var out ProcessPaymentResult
	err := c.do(ctx, call{
		op:             "process payment",
		method:         http.MethodPost,
		path:           []string{"api", "payments", "process"},
		idempotencyKey: idempotencyKey,
		body:           req,
	}, &out)
	return out, err
}

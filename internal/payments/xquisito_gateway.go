package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/xquisito"
)

var _ checkout.PaymentGateway = (*XquisitoGateway)(nil)

type paymentProcessor interface {
	ProcessPayment(ctx context.Context, req xquisito.ProcessPaymentRequest, idempotencyKey string) (xquisito.ProcessPaymentResult, error)
}

// XquisitoGateway charges cards through the platform's hosted processor.
type XquisitoGateway struct {
	processor paymentProcessor
}

func NewXquisitoGateway(processor paymentProcessor) *XquisitoGateway {
	return &XquisitoGateway{processor: processor}
}

// Charge posts req to the processor. A rejected payment is an unsuccessful
// result with the processor's message.
func (g *XquisitoGateway) Charge(ctx context.Context, req checkout.ChargeRequest) (checkout.ChargeResult, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = req.OrderRef
	}
	res, err := g.processor.ProcessPayment(ctx, xquisito.ProcessPaymentRequest{
		PaymentMethodID:   req.MethodID,
		CustomerID:        req.CustomerID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Description:       req.Description,
		OrderReference:    req.OrderRef,
		InstallmentMonths: req.InstallmentMonths,
	}, key)
	if err != nil {
		var apiErr *xquisito.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return checkout.ChargeResult{Success: false, Message: apiErr.Message}, nil
		}
		return checkout.ChargeResult{}, fmt.Errorf("xquisito: process payment: %w", err)
	}
	return checkout.ChargeResult{
		Success:       true,
		PaymentID:     res.PaymentID,
		TransactionID: res.TransactionID,
	}, nil
}

// Package payments adapts external payment providers to checkout.PaymentGateway.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

var _ checkout.PaymentGateway = (*StripeGateway)(nil)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGatewayConfig configures the StripeGateway.
type StripeGatewayConfig struct {
	APIKey    string
	AccountID string
	Backends  *stripe.Backends
	Logger    *slog.Logger

	intents stripePaymentIntentAPI
}

// StripeGateway charges saved cards through confirmed, off-session
// PaymentIntents.
type StripeGateway struct {
	intents stripePaymentIntentAPI
	account string
	logger  *slog.Logger
}

// NewStripeGateway constructs a gateway from cfg.
func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	intents := cfg.intents
	if intents == nil {
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("stripe: api key is required")
		}
		intents = client.New(apiKey, cfg.Backends).PaymentIntents
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeGateway{
		intents: intents,
		account: strings.TrimSpace(cfg.AccountID),
		logger:  logger,
	}, nil
}

// Charge creates and confirms a PaymentIntent for req. Card declines come
// back as an unsuccessful result carrying Stripe's message; other failures
// are returned as errors.
func (g *StripeGateway) Charge(ctx context.Context, req checkout.ChargeRequest) (checkout.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(models.Cents(req.Amount)),
		Currency:      stripe.String(strings.ToLower(defaultString(req.Currency, models.Currency))),
		PaymentMethod: stripe.String(req.MethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if strings.HasPrefix(req.CustomerID, "cus_") {
		params.Customer = stripe.String(req.CustomerID)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if g.account != "" {
		params.SetStripeAccount(g.account)
	}
	params.AddMetadata("order_ref", req.OrderRef)
	if req.CustomerID != "" {
		params.AddMetadata("customer_id", req.CustomerID)
	}
	if req.InstallmentMonths > 0 {
		params.PaymentMethodOptions = &stripe.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentPaymentMethodOptionsCardParams{
				Installments: &stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsParams{
					Enabled: stripe.Bool(true),
					Plan: &stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsPlanParams{
						Count:    stripe.Int64(int64(req.InstallmentMonths)),
						Interval: stripe.String("month"),
						Type:     stripe.String("fixed_count"),
					},
				},
			},
		}
	}

	intent, err := g.intents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			g.logger.Warn("Stripe card declined",
				"order_ref", req.OrderRef,
				"code", serr.Code,
				"decline_code", serr.DeclineCode,
			)
			return checkout.ChargeResult{Success: false, Message: serr.Msg}, nil
		}
		return checkout.ChargeResult{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	result := checkout.ChargeResult{PaymentID: intent.ID}
	if intent.LatestCharge != nil {
		result.TransactionID = intent.LatestCharge.ID
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
		result.Success = true
	case stripe.PaymentIntentStatusRequiresAction:
		result.Message = "card requires additional authentication"
	default:
		result.Message = fmt.Sprintf("payment %s", intent.Status)
	}

	g.logger.Info("Stripe payment intent confirmed",
		"payment_intent", intent.ID,
		"status", intent.Status,
		"order_ref", req.OrderRef,
		"installments", req.InstallmentMonths,
	)
	return result, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

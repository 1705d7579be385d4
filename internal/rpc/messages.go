package rpc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/calculator"
	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

// TipInput selects the tip. At most one of the fields may be set.
type TipInput struct {
	Percentage   *int             `json:"percentage,omitempty"`
	CustomAmount *decimal.Decimal `json:"customAmount,omitempty"`
}

type QuoteRequest struct {
	RestaurantID string `json:"restaurantId"`

	// BranchNumber overrides the active branch; zero uses it.
	BranchNumber int `json:"branchNumber,omitempty"`

	Tip               TipInput `json:"tip"`
	PaymentMethodID   string   `json:"paymentMethodId,omitempty"`
	InstallmentMonths int      `json:"installmentMonths,omitempty"`
}

type QuoteResponse struct {
	Items           []models.CartLineItem          `json:"items"`
	Breakdown       calculator.CommissionBreakdown `json:"breakdown"`
	Installments    calculator.InstallmentOffer    `json:"installments"`
	Options         []calculator.PaymentOption     `json:"paymentOptions"`
	EffectiveMonths int                            `json:"effectiveMonths"`
	AmountDue       decimal.Decimal                `json:"amountDue"`
	PaymentMethod   models.PaymentMethod           `json:"paymentMethod"`
	Branch          *models.Branch                 `json:"branch,omitempty"`
	Branches        []models.Branch                `json:"branches"`
	Gate            checkout.GateStatus            `json:"gate"`
	CanSubmit       bool                           `json:"canSubmit"`
}

type PrepareSubmissionRequest struct {
	Quote QuoteRequest `json:"quote"`
}

type PrepareSubmissionResponse struct {
	IdempotencyKey string        `json:"idempotencyKey"`
	Quote          QuoteResponse `json:"quote"`
}

type SubmitOrderRequest struct {
	Quote          QuoteRequest `json:"quote"`
	IdempotencyKey string       `json:"idempotencyKey"`

	// PickupTime is nil for as soon as possible.
	PickupTime *time.Time `json:"pickupTime,omitempty"`
}

type SubmitOrderResponse struct {
	Receipt models.ReceiptSnapshot `json:"receipt"`
}

type GetReceiptRequest struct {
	OrderID string `json:"orderId,omitempty"`

	// Consume clears the durable slot after reading.
	Consume bool `json:"consume,omitempty"`

	// Refresh fetches the current order status from the order service.
	Refresh bool `json:"refresh,omitempty"`
}

type GetReceiptResponse struct {
	Receipt models.ReceiptSnapshot `json:"receipt"`
	Source  string                 `json:"source"`
	Order   *models.Order          `json:"order,omitempty"`
}

type ListPaymentMethodsRequest struct{}

type ListPaymentMethodsResponse struct {
	Methods    []models.PaymentMethod `json:"paymentMethods"`
	SelectedID string                 `json:"selectedId"`
}

type RequestPaymentMethodDeletionRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

type RequestPaymentMethodDeletionResponse struct {
	ConfirmationToken string               `json:"confirmationToken"`
	PaymentMethod     models.PaymentMethod `json:"paymentMethod"`
}

type ConfirmPaymentMethodDeletionRequest struct {
	ConfirmationToken string `json:"confirmationToken"`
}

type ConfirmPaymentMethodDeletionResponse struct {
	DeletedID  string                 `json:"deletedId"`
	Methods    []models.PaymentMethod `json:"paymentMethods"`
	SelectedID string                 `json:"selectedId"`
}

type PreviewBranchSwitchRequest struct {
	RestaurantID string `json:"restaurantId"`
	TargetBranch int    `json:"targetBranch"`
}

type PreviewBranchSwitchResponse struct {
	Branch   models.Branch         `json:"branch"`
	Remove   []models.CartLineItem `json:"remove"`
	Keep     []models.CartLineItem `json:"keep"`
	FailOpen bool                  `json:"failOpen"`
}

type ConfirmBranchSwitchRequest struct {
	RestaurantID      string   `json:"restaurantId"`
	TargetBranch      int      `json:"targetBranch"`
	RemoveCartItemIDs []string `json:"removeCartItemIds"`
}

type ConfirmBranchSwitchResponse struct {
	BranchNumber int      `json:"branchNumber"`
	Removed      []string `json:"removed"`
	Failed       []string `json:"failed,omitempty"`
	FailOpen     bool     `json:"failOpen,omitempty"`
}

// Package checkout implements the Pick & Go checkout core: payment method
// selection and the submission gate, the order submission sequence, branch
// reconciliation and receipt recovery.
//
// Every collaborator is passed in explicitly. Nothing here reads ambient
// session state.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/models"
)

// OrderAPI is the remote Pick & Go order service.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (string, error)
	CreateLineItem(ctx context.Context, orderID string, req models.LineItemRequest) (string, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// ChargeRequest asks the payment gateway to charge a stored card.
type ChargeRequest struct {
	MethodID          string
	CustomerID        string
	Amount            decimal.Decimal
	Currency          string
	Description       string
	OrderRef          string
	IdempotencyKey    string
	InstallmentMonths int
}

// ChargeResult is the gateway's answer. Success false is a failed charge even
// when err is nil.
type ChargeResult struct {
	Success       bool
	PaymentID     string
	TransactionID string
	Message       string
}

// PaymentGateway charges real cards. It is never called for the system card.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// TransactionRecorder persists the commission audit row.
type TransactionRecorder interface {
	RecordTransaction(ctx context.Context, rec models.TransactionRecord) error
}

// Cart is the cart service as seen by checkout.
type Cart interface {
	Items(ctx context.Context, ref models.CartRef) ([]models.CartLineItem, error)
	RemoveItem(ctx context.Context, ref models.CartRef, cartItemID string) error
	Clear(ctx context.Context, ref models.CartRef) error
	Refresh(ctx context.Context, ref models.CartRef) error
}

// BranchCatalog returns the menu offered at one branch.
type BranchCatalog interface {
	MenuForBranch(ctx context.Context, restaurantID string, branchNumber int) ([]models.MenuSection, error)
}

// PaymentMethodStore is the card vault holding the customer's stored methods.
type PaymentMethodStore interface {
	ListPaymentMethods(ctx context.Context, customer models.CustomerIdentity) ([]models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, customer models.CustomerIdentity, methodID string) error
}

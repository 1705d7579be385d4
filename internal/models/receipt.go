package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptSnapshot is the flattened record the payment-success view renders.
// It is written once, at the end of a successful submission.
type ReceiptSnapshot struct {
	OrderID      string `json:"orderId"`
	RestaurantID string `json:"restaurantId"`
	BranchNumber int    `json:"branchNumber"`

	BaseAmount         decimal.Decimal `json:"baseAmount"`
	TipAmount          decimal.Decimal `json:"tipAmount"`
	ClientCharge       decimal.Decimal `json:"xquisitoClientCharge"`
	TotalAmountCharged decimal.Decimal `json:"totalAmountCharged"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	InstallmentMonths  int             `json:"installmentMonths,omitempty"`
	MonthlyPayment     decimal.Decimal `json:"monthlyPayment"`

	UserID        string `json:"userId,omitempty"`
	GuestID       string `json:"guestId,omitempty"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`

	PaymentMethodID string `json:"paymentMethodId,omitempty"`
	CardLast4       string `json:"cardLast4"`
	CardBrand       string `json:"cardBrand"`
	PaymentID       string `json:"paymentId,omitempty"`
	TransactionID   string `json:"transactionId,omitempty"`

	Items       []ReceiptItem `json:"items"`
	PickupTime  *time.Time    `json:"pickupTime,omitempty"`
	OrderStatus OrderStatus   `json:"orderStatus,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// ReceiptItem is a cart line transformed for display.
type ReceiptItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price"`
	ExtraPrice   decimal.Decimal `json:"extraPrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Image        string          `json:"image,omitempty"`
	CustomFields []CustomField   `json:"customFields,omitempty"`
}

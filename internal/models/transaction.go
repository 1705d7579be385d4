package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the commission audit row written after an order is
// created. PaymentMethodID is nil for the system default card.
type TransactionRecord struct {
	ID              string  `json:"id,omitempty"`
	OrderID         string  `json:"pickAndGoOrderId"`
	RestaurantID    string  `json:"restaurantId"`
	UserID          string  `json:"userId,omitempty"`
	GuestID         string  `json:"guestId,omitempty"`
	PaymentMethodID *string `json:"paymentMethodId"`

	BaseAmount              decimal.Decimal `json:"baseAmount"`
	TipAmount               decimal.Decimal `json:"tipAmount"`
	IVATip                  decimal.Decimal `json:"ivaTip"`
	SubtotalForCommission   decimal.Decimal `json:"subtotalForCommission"`
	CommissionTotal         decimal.Decimal `json:"xquisitoCommissionTotal"`
	CommissionClient        decimal.Decimal `json:"xquisitoCommissionClient"`
	CommissionRestaurant    decimal.Decimal `json:"xquisitoCommissionRestaurant"`
	IVACommissionClient     decimal.Decimal `json:"ivaXquisitoClient"`
	IVACommissionRestaurant decimal.Decimal `json:"ivaXquisitoRestaurant"`
	ClientCharge            decimal.Decimal `json:"xquisitoClientCharge"`
	RestaurantCharge        decimal.Decimal `json:"xquisitoRestaurantCharge"`
	TotalAmountCharged      decimal.Decimal `json:"totalAmountCharged"`
	CommissionRatePercent   decimal.Decimal `json:"xquisitoRateApplied"`

	InstallmentMonths int       `json:"installmentMonths,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

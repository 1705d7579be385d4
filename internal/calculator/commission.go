package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/models"
)

// ErrNegativeAmount is returned when a base or tip amount is below zero.
var ErrNegativeAmount = errors.New("amount cannot be negative")

// Rates is the commission rate table, expressed in percent.
type Rates struct {
	// IVAPercent is the VAT rate applied to the tip and to each commission share.
	IVAPercent decimal.Decimal `json:"ivaPercent"`

	// PlatformPercent is the total platform commission over the subtotal.
	PlatformPercent decimal.Decimal `json:"platformPercent"`

	// ClientPercent is the part of PlatformPercent the client pays.
	// The restaurant pays the rest.
	ClientPercent decimal.Decimal `json:"clientPercent"`
}

// RestaurantPercent is the part of the platform commission the restaurant pays.
func (r Rates) RestaurantPercent() decimal.Decimal {
	return r.PlatformPercent.Sub(r.ClientPercent)
}

// DefaultRates is the rate table Pick & Go charges with.
var DefaultRates = Rates{
	IVAPercent:      decimal.NewFromInt(16),
	PlatformPercent: decimal.RequireFromString("5.8"),
	ClientPercent:   decimal.NewFromInt(2),
}

// CommissionBreakdown is the derived result of one commission calculation.
// Every amount is rounded to centavos.
type CommissionBreakdown struct {
	BaseAmount decimal.Decimal `json:"baseAmount"`
	TipAmount  decimal.Decimal `json:"tipAmount"`
	IVATip     decimal.Decimal `json:"ivaTip"`

	SubtotalForCommission decimal.Decimal `json:"subtotalForCommission"`

	PlatformCommissionTotal           decimal.Decimal `json:"platformCommissionTotal"`
	PlatformCommissionClientShare     decimal.Decimal `json:"platformCommissionClientShare"`
	PlatformCommissionRestaurantShare decimal.Decimal `json:"platformCommissionRestaurantShare"`
	TaxOnPlatformCommissionClient     decimal.Decimal `json:"taxOnPlatformCommissionClient"`
	TaxOnPlatformCommissionRestaurant decimal.Decimal `json:"taxOnPlatformCommissionRestaurant"`

	ClientCharge       decimal.Decimal `json:"clientCharge"`
	RestaurantCharge   decimal.Decimal `json:"restaurantCharge"`
	TotalAmountCharged decimal.Decimal `json:"totalAmountCharged"`

	Rates Rates `json:"rates"`
}

// RealizedRatePercent is platformCommissionTotal / subtotalForCommission * 100,
// or zero when the subtotal is zero.
func (b CommissionBreakdown) RealizedRatePercent() decimal.Decimal {
	if b.SubtotalForCommission.IsZero() {
		return decimal.Zero
	}
	return b.PlatformCommissionTotal.Div(b.SubtotalForCommission).Mul(decimal.NewFromInt(100)).Round(4)
}

// Compute calculates the commission breakdown with DefaultRates.
func Compute(base, tip decimal.Decimal) (CommissionBreakdown, error) {
	return ComputeWithRates(base, tip, DefaultRates)
}

// ComputeWithRates calculates the tax-inclusive commission breakdown for a
// consumption amount and a tip.
//
//	subtotal        = base + tip
//	platform total  = subtotal × platform%
//	client share    = subtotal × client%
//	restaurant share = platform total − client share
//	client charge   = client share × (1 + iva%)
//	total charged   = base + tip + client charge
func ComputeWithRates(base, tip decimal.Decimal, rates Rates) (CommissionBreakdown, error) {
	if base.IsNegative() || tip.IsNegative() {
		return CommissionBreakdown{}, ErrNegativeAmount
	}

	base = models.RoundMoney(base)
	tip = models.RoundMoney(tip)
	iva := models.Percent(rates.IVAPercent)

	subtotal := base.Add(tip)
	platformTotal := models.RoundMoney(subtotal.Mul(models.Percent(rates.PlatformPercent)))
	clientShare := models.RoundMoney(subtotal.Mul(models.Percent(rates.ClientPercent)))
	// Split by remainder so client + restaurant == total after rounding.
	restaurantShare := platformTotal.Sub(clientShare)

	taxClient := models.RoundMoney(clientShare.Mul(iva))
	taxRestaurant := models.RoundMoney(restaurantShare.Mul(iva))
	clientCharge := clientShare.Add(taxClient)

	return CommissionBreakdown{
		BaseAmount:                        base,
		TipAmount:                         tip,
		IVATip:                            models.RoundMoney(tip.Mul(iva)),
		SubtotalForCommission:             subtotal,
		PlatformCommissionTotal:           platformTotal,
		PlatformCommissionClientShare:     clientShare,
		PlatformCommissionRestaurantShare: restaurantShare,
		TaxOnPlatformCommissionClient:     taxClient,
		TaxOnPlatformCommissionRestaurant: taxRestaurant,
		ClientCharge:                      clientCharge,
		RestaurantCharge:                  restaurantShare.Add(taxRestaurant),
		TotalAmountCharged:                base.Add(tip).Add(clientCharge),
		Rates:                             rates,
	}, nil
}

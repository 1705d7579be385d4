package calculator

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/models"
)

// Brand classes that select an installment table.
const (
	BrandClassAmex  = "amex"
	BrandClassOther = "other"
)

// InstallmentPlan is one meses-sin-intereses option.
type InstallmentPlan struct {
	Months                int             `json:"months"`
	RatePercent           decimal.Decimal `json:"ratePercent"`
	MinimumEligibleAmount decimal.Decimal `json:"minimumEligibleAmount"`
}

func plan(months int, rate string, minimum int64) InstallmentPlan {
	return InstallmentPlan{
		Months:                months,
		RatePercent:           decimal.RequireFromString(rate),
		MinimumEligibleAmount: decimal.NewFromInt(minimum),
	}
}

// AmexPlans have no minimum amount.
var AmexPlans = []InstallmentPlan{
	plan(3, "3.25", 0),
	plan(6, "5.75", 0),
	plan(9, "8.25", 0),
	plan(12, "10.75", 0),
	plan(15, "13.25", 0),
	plan(18, "15.75", 0),
	plan(21, "17.50", 0),
	plan(24, "19.25", 0),
}

// StandardPlans apply to every non-amex brand. Minimums grow with months.
var StandardPlans = []InstallmentPlan{
	plan(3, "3.5", 300),
	plan(6, "5.5", 600),
	plan(9, "8.0", 900),
	plan(12, "10.5", 1200),
	plan(18, "15.0", 1800),
}

// surchargeIVA is the fixed VAT applied to installment commissions.
var surchargeIVA = decimal.RequireFromString("0.16")

// PlanQuote is an InstallmentPlan priced for a specific total.
type PlanQuote struct {
	InstallmentPlan
	Commission         decimal.Decimal `json:"commission"`
	Tax                decimal.Decimal `json:"tax"`
	TotalWithSurcharge decimal.Decimal `json:"totalWithSurcharge"`
	MonthlyPayment     decimal.Decimal `json:"monthlyPayment"`
	Eligible           bool            `json:"eligible"`
}

// PaymentOption is one entry of the checkout payment-plan picker. Months is
// zero for full payment.
type PaymentOption struct {
	Months         int             `json:"months"`
	FullPayment    bool            `json:"fullPayment"`
	Total          decimal.Decimal `json:"total"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

// InstallmentOffer is the result of pricing every plan for a total and card.
type InstallmentOffer struct {
	// Applicable is false for non-credit cards; Plans is then empty.
	Applicable bool            `json:"applicable"`
	BrandClass string          `json:"brandClass,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Plans      []PlanQuote     `json:"plans,omitempty"`

	// MinimumNotice is the lowest tier threshold when no plan is eligible.
	MinimumNotice *decimal.Decimal `json:"minimumNotice,omitempty"`
}

// BrandClass maps a card brand onto the table it uses.
func BrandClass(brand string) string {
	b := strings.ToLower(strings.TrimSpace(brand))
	b = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(b)
	if b == "amex" || b == "americanexpress" {
		return BrandClassAmex
	}
	return BrandClassOther
}

// PlansForBrand returns the installment table for a card brand.
func PlansForBrand(brand string) []InstallmentPlan {
	if BrandClass(brand) == BrandClassAmex {
		return AmexPlans
	}
	return StandardPlans
}

// MinimumForMonths returns the eligibility threshold of a plan, and false if
// the brand has no plan with that many months.
func MinimumForMonths(brand string, months int) (decimal.Decimal, bool) {
	for _, p := range PlansForBrand(brand) {
		if p.Months == months {
			return p.MinimumEligibleAmount, true
		}
	}
	return decimal.Zero, false
}

// QuotePlan prices one plan:
//
//	commission = total × rate
//	tax        = commission × 16%
//	total'     = total + commission + tax
//	monthly    = total' / months
func QuotePlan(total decimal.Decimal, p InstallmentPlan) PlanQuote {
	commission := models.RoundMoney(total.Mul(models.Percent(p.RatePercent)))
	tax := models.RoundMoney(commission.Mul(surchargeIVA))
	withSurcharge := total.Add(commission).Add(tax)
	return PlanQuote{
		InstallmentPlan:    p,
		Commission:         commission,
		Tax:                tax,
		TotalWithSurcharge: withSurcharge,
		MonthlyPayment:     models.RoundMoney(withSurcharge.Div(decimal.NewFromInt(int64(p.Months)))),
		Eligible:           !total.LessThan(p.MinimumEligibleAmount),
	}
}

// AvailablePlans prices every plan for the card. Non-credit cards get a
// non-applicable offer instead of an error.
func AvailablePlans(total decimal.Decimal, brand, cardType string) InstallmentOffer {
	total = models.RoundMoney(total)
	offer := InstallmentOffer{Total: total}
	if !strings.EqualFold(strings.TrimSpace(cardType), models.CardTypeCredit) {
		return offer
	}

	offer.Applicable = true
	offer.BrandClass = BrandClass(brand)
	plans := PlansForBrand(brand)
	offer.Plans = make([]PlanQuote, 0, len(plans))
	anyEligible := false
	for _, p := range plans {
		q := QuotePlan(total, p)
		anyEligible = anyEligible || q.Eligible
		offer.Plans = append(offer.Plans, q)
	}
	if !anyEligible && len(plans) > 0 {
		lowest := plans[0].MinimumEligibleAmount
		for _, p := range plans[1:] {
			if p.MinimumEligibleAmount.LessThan(lowest) {
				lowest = p.MinimumEligibleAmount
			}
		}
		offer.MinimumNotice = &lowest
	}
	return offer
}

// Eligible returns the plans the customer may pick, in table order.
func (o InstallmentOffer) Eligible() []PlanQuote {
	var out []PlanQuote
	for _, q := range o.Plans {
		if q.Eligible {
			out = append(out, q)
		}
	}
	return out
}

// Options lists full payment first, followed by every eligible plan.
func (o InstallmentOffer) Options() []PaymentOption {
	eligible := o.Eligible()
	opts := make([]PaymentOption, 0, len(eligible)+1)
	opts = append(opts, PaymentOption{
		FullPayment:    true,
		Total:          o.Total,
		MonthlyPayment: o.Total,
	})
	for _, q := range eligible {
		opts = append(opts, PaymentOption{
			Months:         q.Months,
			Total:          q.TotalWithSurcharge,
			MonthlyPayment: q.MonthlyPayment,
		})
	}
	return opts
}

// Resolve returns the eligible plan for months. Zero months, unknown months
// and ineligible months all resolve to full payment (false).
func (o InstallmentOffer) Resolve(months int) (PlanQuote, bool) {
	if months <= 0 || !o.Applicable {
		return PlanQuote{}, false
	}
	for _, q := range o.Plans {
		if q.Months == months && q.Eligible {
			return q, true
		}
	}
	return PlanQuote{}, false
}

// EffectiveMonths applies the silent fallback: a previously chosen plan that
// is no longer eligible becomes full payment (0).
func (o InstallmentOffer) EffectiveMonths(requested int) int {
	if q, ok := o.Resolve(requested); ok {
		return q.Months
	}
	return 0
}

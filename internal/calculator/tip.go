package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/models"
)

// TipPresets are the percentage buttons offered at checkout.
var TipPresets = []int{0, 10, 15, 20}

// TipSelection holds the single active tip source: a preset percentage or a
// custom amount. Setting one clears the other.
type TipSelection struct {
	percentage *int
	custom     *decimal.Decimal
}

// SetPercentage selects a preset and clears any custom amount.
func (t *TipSelection) SetPercentage(p int) error {
	if !isPreset(p) {
		return fmt.Errorf("tip percentage %d is not one of %v", p, TipPresets)
	}
	t.percentage = &p
	t.custom = nil
	return nil
}

// SetCustom enters a free-form tip and clears the preset. Values below zero
// count as zero.
func (t *TipSelection) SetCustom(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	t.custom = &amount
	t.percentage = nil
}

// Clear resets to no tip.
func (t *TipSelection) Clear() {
	t.percentage = nil
	t.custom = nil
}

// Percentage returns the selected preset, if any.
func (t TipSelection) Percentage() (int, bool) {
	if t.percentage == nil {
		return 0, false
	}
	return *t.percentage, true
}

// Custom returns the custom amount, if any.
func (t TipSelection) Custom() (decimal.Decimal, bool) {
	if t.custom == nil {
		return decimal.Zero, false
	}
	return *t.custom, true
}

// Amount resolves the tip for a base amount.
func (t TipSelection) Amount(base decimal.Decimal) decimal.Decimal {
	if t.custom != nil {
		return models.RoundMoney(decimal.Max(*t.custom, decimal.Zero))
	}
	if t.percentage != nil {
		return models.RoundMoney(base.Mul(decimal.NewFromInt(int64(*t.percentage))).Div(decimal.NewFromInt(100)))
	}
	return decimal.Zero
}

func isPreset(p int) bool {
	for _, preset := range TipPresets {
		if preset == p {
			return true
		}
	}
	return false
}

package calculator

import (
	"testing"

	"github.com/xquisito/pickandgo/internal/models"
)

func TestAvailablePlans_NonCreditNotApplicable(t *testing.T) {
	for _, cardType := range []string{models.CardTypeDebit, models.CardTypeSystem, ""} {
		offer := AvailablePlans(d("5000"), "visa", cardType)
		if offer.Applicable {
			t.Errorf("cardType %q: expected not applicable", cardType)
		}
		if len(offer.Plans) != 0 {
			t.Errorf("cardType %q: expected no plans, got %d", cardType, len(offer.Plans))
		}
		opts := offer.Options()
		if len(opts) != 1 || !opts[0].FullPayment {
			t.Errorf("cardType %q: expected only full payment, got %+v", cardType, opts)
		}
	}
}

func TestAvailablePlans_Monotonic(t *testing.T) {
	tests := []struct {
		brand string
		total string
	}{
		{"amex", "500"},
		{"amex", "12000"},
		{"visa", "2500"},
		{"mastercard", "1800"},
	}

	for _, tt := range tests {
		t.Run(tt.brand+"_"+tt.total, func(t *testing.T) {
			offer := AvailablePlans(d(tt.total), tt.brand, models.CardTypeCredit)
			for i := 1; i < len(offer.Plans); i++ {
				prev, cur := offer.Plans[i-1], offer.Plans[i]
				if cur.Months <= prev.Months {
					t.Fatalf("plans out of order: %d after %d", cur.Months, prev.Months)
				}
				if !cur.MonthlyPayment.LessThan(prev.MonthlyPayment) {
					t.Errorf("monthly %d=%s not below %d=%s", cur.Months, cur.MonthlyPayment, prev.Months, prev.MonthlyPayment)
				}
				if !cur.TotalWithSurcharge.GreaterThan(prev.TotalWithSurcharge) {
					t.Errorf("total %d=%s not above %d=%s", cur.Months, cur.TotalWithSurcharge, prev.Months, prev.TotalWithSurcharge)
				}
			}
		})
	}
}

func TestAvailablePlans_AmexAlwaysEligible(t *testing.T) {
	for _, total := range []string{"0", "1", "20", "299.99", "5000"} {
		for _, brand := range []string{"amex", "AMEX", "American Express", "american_express"} {
			offer := AvailablePlans(d(total), brand, models.CardTypeCredit)
			if offer.BrandClass != BrandClassAmex {
				t.Fatalf("brand %q classified as %q", brand, offer.BrandClass)
			}
			if len(offer.Plans) != 8 {
				t.Fatalf("expected 8 amex plans, got %d", len(offer.Plans))
			}
			for _, q := range offer.Plans {
				if !q.Eligible {
					t.Errorf("amex %d months ineligible at %s", q.Months, total)
				}
			}
			if offer.MinimumNotice != nil {
				t.Errorf("amex at %s should not carry a minimum notice", total)
			}
		}
	}
}

func TestAvailablePlans_StandardThresholds(t *testing.T) {
	totals := []string{"0", "299.99", "300", "599.99", "600", "900", "1199.99", "1200", "1799.99", "1800", "10000"}

	for _, total := range totals {
		offer := AvailablePlans(d(total), "visa", models.CardTypeCredit)
		if len(offer.Plans) != 5 {
			t.Fatalf("expected 5 standard plans, got %d", len(offer.Plans))
		}
		for _, q := range offer.Plans {
			minimum, ok := MinimumForMonths("visa", q.Months)
			if !ok {
				t.Fatalf("no minimum for %d months", q.Months)
			}
			want := !d(total).LessThan(minimum)
			if q.Eligible != want {
				t.Errorf("total %s, %d months: eligible = %v, want %v", total, q.Months, q.Eligible, want)
			}
		}
	}
}

func TestAvailablePlans_VisaBelowLowestTier(t *testing.T) {
	offer := AvailablePlans(d("250"), "visa", models.CardTypeCredit)

	if !offer.Applicable {
		t.Fatal("expected credit visa to be applicable")
	}
	if len(offer.Eligible()) != 0 {
		t.Errorf("expected no eligible plans, got %d", len(offer.Eligible()))
	}
	opts := offer.Options()
	if len(opts) != 1 || !opts[0].FullPayment {
		t.Errorf("expected only full payment, got %+v", opts)
	}
	if !opts[0].Total.Equal(d("250")) {
		t.Errorf("full payment total = %s, want 250", opts[0].Total)
	}
	if offer.MinimumNotice == nil || !offer.MinimumNotice.Equal(d("300")) {
		t.Errorf("minimum notice = %v, want 300", offer.MinimumNotice)
	}
}

func TestQuotePlan(t *testing.T) {
	tests := []struct {
		name        string
		brand       string
		total       string
		months      int
		wantTotal   string
		wantMonthly string
	}{
		// 1000 × 3.5% = 35.00, IVA 5.60
		{"visa 3 months", "visa", "1000", 3, "1040.60", "346.87"},
		// 100 × 19.25% = 19.25, IVA 3.08
		{"amex 24 months", "amex", "100", 24, "122.33", "5.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := AvailablePlans(d(tt.total), tt.brand, models.CardTypeCredit)
			q, ok := offer.Resolve(tt.months)
			if !ok {
				t.Fatalf("%d months not eligible", tt.months)
			}
			if !q.TotalWithSurcharge.Equal(d(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", q.TotalWithSurcharge, tt.wantTotal)
			}
			if !q.MonthlyPayment.Equal(d(tt.wantMonthly)) {
				t.Errorf("monthly = %s, want %s", q.MonthlyPayment, tt.wantMonthly)
			}
		})
	}
}

func TestEffectiveMonths_FallsBackToFullPayment(t *testing.T) {
	offer := AvailablePlans(d("1000"), "visa", models.CardTypeCredit)
	if got := offer.EffectiveMonths(9); got != 9 {
		t.Errorf("9 months at 1000 = %d, want 9", got)
	}

	// Total drops below the 9-month tier.
	offer = AvailablePlans(d("650"), "visa", models.CardTypeCredit)
	if got := offer.EffectiveMonths(9); got != 0 {
		t.Errorf("9 months at 650 = %d, want full payment", got)
	}
	// Card switches to one without a 24-month plan.
	if got := offer.EffectiveMonths(24); got != 0 {
		t.Errorf("24 months on visa = %d, want full payment", got)
	}
	// Card switches to debit.
	offer = AvailablePlans(d("5000"), "visa", models.CardTypeDebit)
	if got := offer.EffectiveMonths(3); got != 0 {
		t.Errorf("3 months on debit = %d, want full payment", got)
	}
}

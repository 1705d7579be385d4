package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/calculator"
	"github.com/xquisito/pickandgo/internal/models"
)

// MinimumPurchase is the lowest totalAmountCharged that can be submitted.
var MinimumPurchase = decimal.NewFromInt(20)

// Selection is the payment-method picker: the synthetic system card followed
// by the customer's stored methods, with one of them active.
type Selection struct {
	methods    []models.PaymentMethod
	selectedID string
}

// NewSelection builds the combined list and picks the default: the method
// flagged IsDefault, otherwise the first one (the system card).
func NewSelection(stored []models.PaymentMethod) *Selection {
	methods := make([]models.PaymentMethod, 0, len(stored)+1)
	methods = append(methods, models.SystemDefaultCard())
	for _, m := range stored {
		if m.IsSystem() {
			continue
		}
		methods = append(methods, m)
	}

	s := &Selection{methods: methods, selectedID: methods[0].ID}
	for _, m := range methods {
		if m.IsDefault {
			s.selectedID = m.ID
			break
		}
	}
	return s
}

// Methods returns the combined list, system card first.
func (s *Selection) Methods() []models.PaymentMethod {
	out := make([]models.PaymentMethod, len(s.methods))
	copy(out, s.methods)
	return out
}

// Find looks a method up by id.
func (s *Selection) Find(id string) (models.PaymentMethod, bool) {
	for _, m := range s.methods {
		if m.ID == id {
			return m, true
		}
	}
	return models.PaymentMethod{}, false
}

// Select makes id the active method.
func (s *Selection) Select(id string) error {
	if _, ok := s.Find(id); !ok {
		return ErrUnknownPaymentMethod
	}
	s.selectedID = id
	return nil
}

// SelectedID returns the active method id.
func (s *Selection) SelectedID() string {
	return s.selectedID
}

// Selected returns the active method.
func (s *Selection) Selected() models.PaymentMethod {
	m, _ := s.Find(s.selectedID)
	return m
}

// SupportsInstallments reports whether the active method may use MSI plans.
func (s *Selection) SupportsInstallments() bool {
	return s.Selected().CardType == models.CardTypeCredit
}

// Installments prices the MSI plans of the active method for a total.
func (s *Selection) Installments(total decimal.Decimal) calculator.InstallmentOffer {
	m := s.Selected()
	return calculator.AvailablePlans(total, m.CardBrand, m.CardType)
}

// CanDelete reports whether id may be offered for deletion.
func (s *Selection) CanDelete(id string) error {
	m, ok := s.Find(id)
	if !ok {
		return ErrUnknownPaymentMethod
	}
	if m.IsSystem() {
		return ErrSystemCardNotDeletable
	}
	return nil
}

// Remove drops a deleted method. If it was active the default is re-resolved.
func (s *Selection) Remove(id string) {
	kept := s.methods[:0:0]
	for _, m := range s.methods {
		if m.ID != id || m.IsSystem() {
			kept = append(kept, m)
		}
	}
	s.methods = kept
	if _, ok := s.Find(s.selectedID); !ok {
		*s = *NewSelection(kept[1:])
	}
}

// GateInput is everything the submission gate looks at.
type GateInput struct {
	TotalAmountCharged decimal.Decimal
	Branches           []models.Branch
	BranchNumber       int
	Method             *models.PaymentMethod
}

// GateStatus reports every reason submission is blocked, for display.
type GateStatus struct {
	BelowMinimum   bool            `json:"belowMinimum"`
	MinimumAmount  decimal.Decimal `json:"minimumAmount"`
	BranchRequired bool            `json:"branchRequired"`
	MissingMethod  bool            `json:"missingMethod"`
}

// CanSubmit is true when nothing blocks submission.
func (g GateStatus) CanSubmit() bool {
	return !g.BelowMinimum && !g.BranchRequired && !g.MissingMethod
}

// EvaluateGate checks the submission preconditions without side effects.
func EvaluateGate(in GateInput) GateStatus {
	_, branchErr := ResolveBranch(in.Branches, in.BranchNumber)
	return GateStatus{
		BelowMinimum:   in.TotalAmountCharged.LessThan(MinimumPurchase),
		MinimumAmount:  MinimumPurchase,
		BranchRequired: branchErr != nil,
		MissingMethod:  in.Method == nil || in.Method.ID == "",
	}
}

// CheckGate returns the first blocking reason. Branch selection comes first
// because it must happen before any payment or order write.
func CheckGate(in GateInput) error {
	if _, err := ResolveBranch(in.Branches, in.BranchNumber); err != nil {
		return err
	}
	if in.TotalAmountCharged.LessThan(MinimumPurchase) {
		return ErrBelowMinimum
	}
	if in.Method == nil || in.Method.ID == "" {
		return ErrNoPaymentMethod
	}
	return nil
}

// ResolveBranch picks the pickup branch. A single-branch restaurant needs no
// explicit choice; with several, one must be selected.
func ResolveBranch(branches []models.Branch, selected int) (models.Branch, error) {
	if selected != 0 {
		for _, b := range branches {
			if b.BranchNumber == selected {
				return b, nil
			}
		}
		return models.Branch{}, ErrUnknownBranch
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return models.Branch{}, ErrBranchRequired
}

package models

// SystemDefaultCardID is the id of the synthetic payment method that bypasses
// the external payment gateway.
const SystemDefaultCardID = "system-default-card"

// Card types reported by the card vault.
const (
	CardTypeCredit = "credit"
	CardTypeDebit  = "debit"
	CardTypeSystem = "system"
)

// PaymentMethod represents a card the customer can pay with.
type PaymentMethod struct {
	// ID is the vault id of the card, or SystemDefaultCardID.
	ID string `json:"id"`

	// LastFourDigits is the masked card suffix shown to the customer.
	LastFourDigits string `json:"lastFourDigits"`

	// CardBrand is the network brand as reported by the vault (visa, mastercard, amex).
	CardBrand string `json:"cardBrand"`

	// CardType is credit, debit or system. Only credit cards offer installments.
	CardType string `json:"cardType"`

	// IsDefault marks the customer's preferred method.
	IsDefault bool `json:"isDefault"`

	// IsSystemCard is true only for the synthetic system default card.
	IsSystemCard bool `json:"isSystemCard"`
}

// SystemDefaultCard builds the synthetic method prepended to every list.
// It is never persisted.
func SystemDefaultCard() PaymentMethod {
	return PaymentMethod{
		ID:             SystemDefaultCardID,
		LastFourDigits: "1234",
		CardBrand:      "system",
		CardType:       CardTypeSystem,
		IsSystemCard:   true,
	}
}

// IsSystem reports whether the method skips the payment gateway.
func (p PaymentMethod) IsSystem() bool {
	return p.IsSystemCard || p.ID == SystemDefaultCardID
}

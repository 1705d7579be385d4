package models

import "github.com/shopspring/decimal"

// CustomField is one selected customization on a cart line (e.g. "Salsa: verde").
type CustomField struct {
	FieldID   string          `json:"fieldId"`
	FieldName string          `json:"fieldName"`
	Options   []CustomOption  `json:"selectedOptions"`
	Price     decimal.Decimal `json:"price"`
}

// CustomOption is a single option chosen inside a CustomField.
type CustomOption struct {
	OptionID   string          `json:"optionId"`
	OptionName string          `json:"optionName"`
	Price      decimal.Decimal `json:"price"`
}

// CartLineItem represents a single line in the customer's cart.
// The cart service owns these; checkout only reads them.
type CartLineItem struct {
	// ID is the catalog menu-item id. Branch reconciliation matches on it.
	ID string `json:"id"`

	// CartItemID is the cart-scoped id used to remove this line.
	CartItemID string `json:"cartItemId"`

	// Name is the display name of the menu item.
	Name string `json:"name"`

	// Price is the unit price without extras.
	Price decimal.Decimal `json:"price"`

	// Quantity is the number of units ordered.
	Quantity int `json:"quantity"`

	// ExtraPrice is the per-unit surcharge from custom fields.
	ExtraPrice decimal.Decimal `json:"extraPrice"`

	// CustomFields are the customizations selected for this line.
	CustomFields []CustomField `json:"customFields,omitempty"`

	// Images are image URLs for the menu item, first one is the thumbnail.
	Images []string `json:"images,omitempty"`
}

// UnitPrice is the per-unit price including extras.
func (c CartLineItem) UnitPrice() decimal.Decimal {
	return c.Price.Add(c.ExtraPrice)
}

// LineTotal is UnitPrice times Quantity.
func (c CartLineItem) LineTotal() decimal.Decimal {
	return c.UnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartRef identifies whose cart an operation targets.
type CartRef struct {
	UserID       string `json:"userId,omitempty"`
	GuestID      string `json:"guestId,omitempty"`
	RestaurantID string `json:"restaurantId"`
	BranchNumber int    `json:"branchNumber,omitempty"`
}

package models

import "github.com/shopspring/decimal"

// MenuSection is one section of a branch menu.
type MenuSection struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// MenuItem is a catalog entry offered at a branch.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"isAvailable,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment flag on a Pick & Go order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// OrderStatus is the preparation lifecycle of a Pick & Go order.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// EstimatedPrepMinutes is the fixed preparation estimate sent with every order.
const EstimatedPrepMinutes = 25

// Branch is one physical pickup location of a restaurant.
type Branch struct {
	ID           string `json:"id"`
	BranchNumber int    `json:"branchNumber"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
}

// SessionData records how the order was paid. PaymentMethodID is nil for the
// system default card.
type SessionData struct {
	PaymentMethodID *string         `json:"paymentMethodId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	BaseAmount      decimal.Decimal `json:"baseAmount"`
	TipAmount       decimal.Decimal `json:"tipAmount"`
}

// PrepMetadata tells the kitchen what to expect.
type PrepMetadata struct {
	ItemsCount        int        `json:"itemsCount"`
	EstimatedMinutes  int        `json:"estimatedMinutes"`
	ScheduledPickupAt *time.Time `json:"scheduledPickupTime,omitempty"`
}

// OrderRequest is the payload for creating a Pick & Go order.
type OrderRequest struct {
	UserID        string          `json:"userId,omitempty"`
	GuestID       string          `json:"guestId,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	RestaurantID  string          `json:"restaurantId"`
	BranchNumber  int             `json:"branchNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	SessionData   SessionData     `json:"sessionData"`
	PrepMetadata  PrepMetadata    `json:"prepMetadata"`
}

// LineItemRequest is the payload for attaching one cart line to an order.
type LineItemRequest struct {
	OrderID      string          `json:"pickAndGoOrderId"`
	Item         string          `json:"item"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Images       []string        `json:"images,omitempty"`
	CustomFields []CustomField   `json:"customFields,omitempty"`
	ExtraPrice   decimal.Decimal `json:"extraPrice"`
	MenuItemID   string          `json:"menuItemId,omitempty"`
}

// Order represents a Pick & Go order as stored by the order service.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId,omitempty"`
	GuestID       string          `json:"guestId,omitempty"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	RestaurantID  string          `json:"restaurantId"`
	BranchNumber  int             `json:"branchNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	SessionData   SessionData     `json:"sessionData"`
	PrepMetadata  PrepMetadata    `json:"prepMetadata"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderItem is one line attached to an order.
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"pickAndGoOrderId"`
	Item         string          `json:"item"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	ExtraPrice   decimal.Decimal `json:"extraPrice"`
	Images       []string        `json:"images,omitempty"`
	CustomFields []CustomField   `json:"customFields,omitempty"`
}

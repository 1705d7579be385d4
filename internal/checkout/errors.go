package checkout

import (
	"errors"
	"fmt"
)

// Fatal submission failures. Each aborts the sequence and lets the customer
// retry from scratch.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNoPaymentMethod      = errors.New("no payment method selected")
	ErrBranchRequired       = errors.New("a pickup branch must be selected")
	ErrUnknownBranch        = errors.New("pickup branch does not belong to the restaurant")
	ErrBelowMinimum         = errors.New("minimum purchase amount not reached")
	ErrInvalidPickupTime    = errors.New("pickup time is in the past")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrOrderCreation        = errors.New("order creation failed")
	ErrItemAttachment       = errors.New("item attachment failed")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrIdempotencyKeyReused = errors.New("idempotency key was issued to another customer")
)

// Payment method errors.
var (
	ErrUnknownPaymentMethod   = errors.New("payment method not found")
	ErrSystemCardNotDeletable = errors.New("the system card cannot be deleted")
	ErrDeletionNotRequested   = errors.New("payment method deletion was not requested or expired")
)

// ErrSwitchPreviewStale is returned when the items confirmed for removal no
// longer match what the target branch is missing.
var ErrSwitchPreviewStale = errors.New("cart changed since the branch switch preview")

// ErrReceiptNotFound is returned when no slot holds a receipt.
var ErrReceiptNotFound = errors.New("receipt not found")

const unknownErrorMessage = "unknown error"

// OrderSubmissionError is a fatal submission failure. Kind is one of the
// sentinels above; Message is safe to show to the customer.
type OrderSubmissionError struct {
	Kind    error
	Message string
	OrderID string
	Cause   error
}

func (e *OrderSubmissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

func (e *OrderSubmissionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// userMessager is implemented by collaborator errors that carry a
// server-provided message.
type userMessager interface {
	UserMessage() string
}

// ServerMessage extracts the server-provided message from err, or returns
// "unknown error".
func ServerMessage(err error) string {
	var m userMessager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return unknownErrorMessage
}

func fatal(kind error, prefix string, cause error) *OrderSubmissionError {
	msg := kind.Error()
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", prefix, ServerMessage(cause))
	}
	return &OrderSubmissionError{Kind: kind, Message: msg, Cause: cause}
}

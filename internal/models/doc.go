// Package models defines the core domain models for Pick & Go checkout.
//
// # Models
//
//   - CartLineItem: a line in the customer's cart, owned by the cart service
//   - PaymentMethod: a stored card, or the synthetic system default card
//   - Order / OrderItem: the remote Pick & Go order and its attached lines
//   - TransactionRecord: the commission audit row written after an order
//   - ReceiptSnapshot: everything the payment-success view needs to render
//   - CustomerIdentity: who is checking out (user or guest) and from which session
//
// All money values are decimal.Decimal in MXN. Helpers in money.go round to
// centavos and convert to integer minor units for payment providers.
//
// # Design Principles
//
// 1. **Explicit payloads**: session and prep metadata are typed records, not maps
// 2. **IDs over pointers**: orders reference restaurants and branches by id
// 3. **Read-only cart**: checkout never mutates a CartLineItem in place
package models

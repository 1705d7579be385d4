package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/calculator"
	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/middleware"
	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/rpc"
)

// OrderIDMetaKey carries the order id on item attachment failures so support
// can find the partial order.
const OrderIDMetaKey = "X-Order-Id"

// Catalog is the restaurant directory: branches plus per-branch menus.
type Catalog interface {
	checkout.BranchCatalog
	Branches(ctx context.Context, restaurantID string) ([]models.Branch, error)
}

// CheckoutDeps wires the checkout service.
type CheckoutDeps struct {
	Orchestrator *checkout.Orchestrator
	Reconciler   *checkout.Reconciler
	Branches     *checkout.BranchContext
	Receipts     *checkout.ReceiptVault
	Deletions    *checkout.DeletionGuard
	Cart         checkout.Cart
	Catalog      Catalog
	Methods      checkout.PaymentMethodStore

	// Orders is used to refresh order status on GetReceipt; optional.
	Orders checkout.OrderAPI

	Logger *slog.Logger
}

// CheckoutService implements rpc.CheckoutServiceHandler.
type CheckoutService struct {
	deps   CheckoutDeps
	logger *slog.Logger
}

var _ rpc.CheckoutServiceHandler = (*CheckoutService)(nil)

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(deps CheckoutDeps) (*CheckoutService, error) {
	switch {
	case deps.Orchestrator == nil:
		return nil, errors.New("checkout service: orchestrator is required")
	case deps.Reconciler == nil || deps.Branches == nil:
		return nil, errors.New("checkout service: branch reconciler is required")
	case deps.Receipts == nil:
		return nil, errors.New("checkout service: receipt vault is required")
	case deps.Deletions == nil:
		return nil, errors.New("checkout service: deletion guard is required")
	case deps.Cart == nil || deps.Catalog == nil || deps.Methods == nil:
		return nil, errors.New("checkout service: cart, catalog and payment methods are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{deps: deps, logger: logger}, nil
}

// quoteState is a priced cart plus everything needed to submit it.
type quoteState struct {
	customer models.CustomerIdentity
	ref      models.CartRef
	items    []models.CartLineItem
	method   models.PaymentMethod
	months   int
	resp     *rpc.QuoteResponse
}

func (q *quoteState) gateInput() checkout.GateInput {
	return checkout.GateInput{
		TotalAmountCharged: q.resp.Breakdown.TotalAmountCharged,
		Branches:           q.resp.Branches,
		BranchNumber:       q.ref.BranchNumber,
		Method:             &q.method,
	}
}

// blocked returns the first reason the quote cannot be submitted.
func (q *quoteState) blocked() error {
	if len(q.items) == 0 {
		return checkout.ErrEmptyCart
	}
	return checkout.CheckGate(q.gateInput())
}

func cartRef(customer models.CustomerIdentity, restaurantID string, branchNumber int) models.CartRef {
	return models.CartRef{
		UserID:       customer.UserID,
		GuestID:      customer.GuestID,
		RestaurantID: restaurantID,
		BranchNumber: branchNumber,
	}
}

func tipSelection(in rpc.TipInput) (calculator.TipSelection, error) {
	var tip calculator.TipSelection
	switch {
	case in.Percentage != nil && in.CustomAmount != nil:
		return tip, errors.New("tip: choose a percentage or a custom amount, not both")
	case in.Percentage != nil:
		if err := tip.SetPercentage(*in.Percentage); err != nil {
			return tip, err
		}
	case in.CustomAmount != nil:
		tip.SetCustom(*in.CustomAmount)
	}
	return tip, nil
}

func (s *CheckoutService) quote(ctx context.Context, req *rpc.QuoteRequest) (*quoteState, error) {
	if req.RestaurantID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("restaurant_id is required"))
	}
	tip, err := tipSelection(req.Tip)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	customer := middleware.CustomerFromContext(ctx)

	branches, err := s.deps.Catalog.Branches(ctx, req.RestaurantID)
	if err != nil {
		return nil, s.unavailable("could not load branches", err)
	}

	branchNumber := req.BranchNumber
	if branchNumber == 0 {
		if branchNumber, err = s.deps.Branches.Current(ctx, customer, req.RestaurantID); err != nil {
			s.logger.Warn("Active branch unreadable, asking for a choice", "restaurant_id", req.RestaurantID, "error", err)
			branchNumber = 0
		}
	}
	ref := cartRef(customer, req.RestaurantID, branchNumber)

	items, err := s.deps.Cart.Items(ctx, ref)
	if err != nil {
		return nil, s.unavailable("could not load cart", err)
	}
	base := decimal.Zero
	for _, item := range items {
		base = base.Add(models.RoundMoney(item.LineTotal()))
	}

	breakdown, err := calculator.Compute(base, tip.Amount(base))
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	stored, err := s.deps.Methods.ListPaymentMethods(ctx, customer)
	if err != nil {
		s.logger.Warn("Stored payment methods unavailable, offering the system card only", "error", err)
		stored = nil
	}
	selection := checkout.NewSelection(stored)
	if req.PaymentMethodID != "" {
		if err := selection.Select(req.PaymentMethodID); err != nil {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
	}
	method := selection.Selected()

	offer := selection.Installments(breakdown.TotalAmountCharged)
	effective := offer.EffectiveMonths(req.InstallmentMonths)
	amountDue := breakdown.TotalAmountCharged
	if plan, ok := offer.Resolve(effective); ok {
		amountDue = plan.TotalWithSurcharge
	}

	q := &quoteState{
		customer: customer,
		ref:      ref,
		items:    items,
		method:   method,
		months:   req.InstallmentMonths,
	}
	q.resp = &rpc.QuoteResponse{
		Items:           items,
		Breakdown:       breakdown,
		Installments:    offer,
		Options:         offer.Options(),
		EffectiveMonths: effective,
		AmountDue:       amountDue,
		PaymentMethod:   method,
		Branches:        branches,
	}
	if b, err := checkout.ResolveBranch(branches, branchNumber); err == nil {
		q.resp.Branch = &b
	}
	q.resp.Gate = checkout.EvaluateGate(q.gateInput())
	q.resp.CanSubmit = len(items) > 0 && q.resp.Gate.CanSubmit()
	return q, nil
}

// Quote prices the cart without side effects.
func (s *CheckoutService) Quote(ctx context.Context, req *connect.Request[rpc.QuoteRequest]) (*connect.Response[rpc.QuoteResponse], error) {
	q, err := s.quote(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(q.resp), nil
}

// PrepareSubmission runs the gate and issues the idempotency key for the
// confirmation window.
func (s *CheckoutService) PrepareSubmission(ctx context.Context, req *connect.Request[rpc.PrepareSubmissionRequest]) (*connect.Response[rpc.PrepareSubmissionResponse], error) {
	q, err := s.quote(ctx, &req.Msg.Quote)
	if err != nil {
		return nil, err
	}
	if err := q.blocked(); err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	return connect.NewResponse(&rpc.PrepareSubmissionResponse{
		IdempotencyKey: ulid.Make().String(),
		Quote:          *q.resp,
	}), nil
}

// SubmitOrder charges the customer and places the order.
func (s *CheckoutService) SubmitOrder(ctx context.Context, req *connect.Request[rpc.SubmitOrderRequest]) (*connect.Response[rpc.SubmitOrderResponse], error) {
	q, err := s.quote(ctx, &req.Msg.Quote)
	if err != nil {
		return nil, err
	}

	snap, err := s.deps.Orchestrator.Submit(ctx, checkout.SubmitInput{
		Cart:              q.ref,
		Items:             q.items,
		Method:            &q.method,
		Breakdown:         q.resp.Breakdown,
		InstallmentMonths: q.months,
		Branches:          q.resp.Branches,
		BranchNumber:      q.ref.BranchNumber,
		PickupTime:        req.Msg.PickupTime,
		Customer:          q.customer,
		IdempotencyKey:    req.Msg.IdempotencyKey,
	})
	if err != nil {
		s.logger.Error("Order submission failed",
			"restaurant_id", q.ref.RestaurantID,
			"idempotency_key", req.Msg.IdempotencyKey,
			"error", err,
		)
		return nil, submissionError(err)
	}
	return connect.NewResponse(&rpc.SubmitOrderResponse{Receipt: *snap}), nil
}

// submissionError maps the fatal taxonomy onto Connect codes. The message is
// the one shown to the customer.
func submissionError(err error) error {
	msg := err.Error()
	var subErr *checkout.OrderSubmissionError
	if errors.As(err, &subErr) {
		msg = subErr.Message
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		code = connect.CodeAborted
	case errors.Is(err, checkout.ErrIdempotencyKeyReused):
		code = connect.CodePermissionDenied
	case errors.Is(err, checkout.ErrPaymentGateway):
		code = connect.CodeAborted
	case errors.Is(err, checkout.ErrOrderCreation), errors.Is(err, checkout.ErrItemAttachment):
		code = connect.CodeUnavailable
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrBelowMinimum),
		errors.Is(err, checkout.ErrBranchRequired),
		errors.Is(err, checkout.ErrUnknownBranch),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, checkout.ErrInvalidPickupTime):
		code = connect.CodeFailedPrecondition
	}

	connectErr := connect.NewError(code, errors.New(msg))
	if subErr != nil && subErr.OrderID != "" {
		connectErr.Meta().Set(OrderIDMetaKey, subErr.OrderID)
	}
	return connectErr
}

// GetReceipt recovers the active receipt.
func (s *CheckoutService) GetReceipt(ctx context.Context, req *connect.Request[rpc.GetReceiptRequest]) (*connect.Response[rpc.GetReceiptResponse], error) {
	customer := middleware.CustomerFromContext(ctx)

	snap, source, err := s.deps.Receipts.Locate(ctx, customer, nil, req.Msg.OrderID)
	if errors.Is(err, checkout.ErrReceiptNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &rpc.GetReceiptResponse{Receipt: *snap, Source: string(source)}
	if req.Msg.Refresh && s.deps.Orders != nil {
		order, err := s.deps.Orders.GetOrder(ctx, snap.OrderID)
		if err != nil {
			s.logger.Warn("Order status refresh failed", "order_id", snap.OrderID, "error", err)
		} else {
			resp.Order = order
			resp.Receipt.OrderStatus = order.OrderStatus
		}
	}
	if req.Msg.Consume {
		if err := s.deps.Receipts.Consume(ctx, customer); err != nil {
			s.logger.Warn("Failed to clear receipt slot", "order_id", snap.OrderID, "error", err)
		}
	}
	return connect.NewResponse(resp), nil
}

// ListPaymentMethods returns the system card plus the stored cards.
func (s *CheckoutService) ListPaymentMethods(ctx context.Context, _ *connect.Request[rpc.ListPaymentMethodsRequest]) (*connect.Response[rpc.ListPaymentMethodsResponse], error) {
	selection, err := s.selection(ctx, middleware.CustomerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.ListPaymentMethodsResponse{
		Methods:    selection.Methods(),
		SelectedID: selection.SelectedID(),
	}), nil
}

func (s *CheckoutService) selection(ctx context.Context, customer models.CustomerIdentity) (*checkout.Selection, error) {
	stored, err := s.deps.Methods.ListPaymentMethods(ctx, customer)
	if err != nil {
		return nil, s.unavailable("could not load payment methods", err)
	}
	return checkout.NewSelection(stored), nil
}

// RequestPaymentMethodDeletion starts the two-step deletion.
func (s *CheckoutService) RequestPaymentMethodDeletion(ctx context.Context, req *connect.Request[rpc.RequestPaymentMethodDeletionRequest]) (*connect.Response[rpc.RequestPaymentMethodDeletionResponse], error) {
	customer := middleware.CustomerFromContext(ctx)

	token, err := s.deps.Deletions.Request(ctx, customer, req.Msg.PaymentMethodID)
	switch {
	case errors.Is(err, checkout.ErrSystemCardNotDeletable):
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, checkout.ErrUnknownPaymentMethod):
		return nil, connect.NewError(connect.CodeNotFound, err)
	case err != nil:
		return nil, s.unavailable("could not start deletion", err)
	}

	resp := &rpc.RequestPaymentMethodDeletionResponse{ConfirmationToken: token}
	if selection, err := s.selection(ctx, customer); err == nil {
		resp.PaymentMethod, _ = selection.Find(req.Msg.PaymentMethodID)
	}
	return connect.NewResponse(resp), nil
}

// ConfirmPaymentMethodDeletion deletes the card the token was issued for.
func (s *CheckoutService) ConfirmPaymentMethodDeletion(ctx context.Context, req *connect.Request[rpc.ConfirmPaymentMethodDeletionRequest]) (*connect.Response[rpc.ConfirmPaymentMethodDeletionResponse], error) {
	customer := middleware.CustomerFromContext(ctx)

	deleted, err := s.deps.Deletions.Confirm(ctx, customer, req.Msg.ConfirmationToken)
	if errors.Is(err, checkout.ErrDeletionNotRequested) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	if err != nil {
		return nil, s.unavailable("could not delete payment method", err)
	}
	s.logger.Info("Payment method deleted", "payment_method_id", deleted, "owner", customer.OwnerID())

	resp := &rpc.ConfirmPaymentMethodDeletionResponse{DeletedID: deleted}
	if selection, err := s.selection(ctx, customer); err == nil {
		resp.Methods = selection.Methods()
		resp.SelectedID = selection.SelectedID()
	}
	return connect.NewResponse(resp), nil
}

// targetBranch loads the restaurant's branches and checks the target exists.
func (s *CheckoutService) targetBranch(ctx context.Context, restaurantID string, target int) (models.Branch, error) {
	if restaurantID == "" || target <= 0 {
		return models.Branch{}, connect.NewError(connect.CodeInvalidArgument, errors.New("restaurant_id and target_branch are required"))
	}
	branches, err := s.deps.Catalog.Branches(ctx, restaurantID)
	if err != nil {
		return models.Branch{}, s.unavailable("could not load branches", err)
	}
	b, err := checkout.ResolveBranch(branches, target)
	if err != nil {
		return models.Branch{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return b, nil
}

// currentCart returns the cart ref at the active branch and its items.
func (s *CheckoutService) currentCart(ctx context.Context, customer models.CustomerIdentity, restaurantID string) (models.CartRef, []models.CartLineItem, error) {
	current, err := s.deps.Branches.Current(ctx, customer, restaurantID)
	if err != nil {
		s.logger.Warn("Active branch unreadable", "restaurant_id", restaurantID, "error", err)
		current = 0
	}
	ref := cartRef(customer, restaurantID, current)
	items, err := s.deps.Cart.Items(ctx, ref)
	if err != nil {
		return ref, nil, s.unavailable("could not load cart", err)
	}
	return ref, items, nil
}

// PreviewBranchSwitch lists which cart items the target branch does not carry.
func (s *CheckoutService) PreviewBranchSwitch(ctx context.Context, req *connect.Request[rpc.PreviewBranchSwitchRequest]) (*connect.Response[rpc.PreviewBranchSwitchResponse], error) {
	branch, err := s.targetBranch(ctx, req.Msg.RestaurantID, req.Msg.TargetBranch)
	if err != nil {
		return nil, err
	}
	_, items, err := s.currentCart(ctx, middleware.CustomerFromContext(ctx), req.Msg.RestaurantID)
	if err != nil {
		return nil, err
	}

	res := s.deps.Reconciler.Reconcile(ctx, items, req.Msg.RestaurantID, branch.BranchNumber)
	return connect.NewResponse(&rpc.PreviewBranchSwitchResponse{
		Branch:   branch,
		Remove:   res.Remove,
		Keep:     res.Keep,
		FailOpen: res.FailOpen,
	}), nil
}

// ConfirmBranchSwitch re-checks the cart against the target branch, removes
// the items it does not carry and activates the branch. The confirmed ids must
// match that set; otherwise the preview is stale and nothing changes.
func (s *CheckoutService) ConfirmBranchSwitch(ctx context.Context, req *connect.Request[rpc.ConfirmBranchSwitchRequest]) (*connect.Response[rpc.ConfirmBranchSwitchResponse], error) {
	branch, err := s.targetBranch(ctx, req.Msg.RestaurantID, req.Msg.TargetBranch)
	if err != nil {
		return nil, err
	}
	customer := middleware.CustomerFromContext(ctx)
	ref, items, err := s.currentCart(ctx, customer, req.Msg.RestaurantID)
	if err != nil {
		return nil, err
	}

	check := s.deps.Reconciler.Reconcile(ctx, items, req.Msg.RestaurantID, branch.BranchNumber)
	if !check.FailOpen && !sameCartItems(check.Remove, req.Msg.RemoveCartItemIDs) {
		s.logger.Info("Branch switch confirmation does not match cart",
			"restaurant_id", req.Msg.RestaurantID,
			"target_branch", branch.BranchNumber,
			"confirmed", req.Msg.RemoveCartItemIDs,
			"unavailable", len(check.Remove),
		)
		return nil, connect.NewError(connect.CodeFailedPrecondition, checkout.ErrSwitchPreviewStale)
	}

	res, err := s.deps.Reconciler.ApplySwitch(ctx, customer, ref, branch.BranchNumber, check.Remove, check.FailOpen)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to switch branch: %w", err))
	}
	return connect.NewResponse(&rpc.ConfirmBranchSwitchResponse{
		BranchNumber: branch.BranchNumber,
		Removed:      res.Removed,
		Failed:       res.Failed,
		FailOpen:     check.FailOpen,
	}), nil
}

// sameCartItems reports whether ids names exactly the cart items in items.
func sameCartItems(items []models.CartLineItem, ids []string) bool {
	want := make(map[string]bool, len(items))
	for _, item := range items {
		want[item.CartItemID] = true
	}
	got := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !want[id] {
			return false
		}
		got[id] = true
	}
	return len(got) == len(want)
}

func (s *CheckoutService) unavailable(prefix string, err error) error {
	s.logger.Warn("Collaborator call failed", "step", prefix, "error", err)
	return connect.NewError(connect.CodeUnavailable, fmt.Errorf("%s: %s", prefix, checkout.ServerMessage(err)))
}

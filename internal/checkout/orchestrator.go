package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xquisito/pickandgo/internal/calculator"
	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/storage"
)

const tracerName = "github.com/xquisito/pickandgo/internal/checkout"

// OrchestratorDeps wires the collaborators of the submission sequence.
type OrchestratorDeps struct {
	Orders       OrderAPI
	Gateway      PaymentGateway
	Transactions TransactionRecorder
	Cart         Cart
	Receipts     *ReceiptVault

	// Idempotency is optional. Without it a retried submission runs again.
	Idempotency storage.IdempotencyStore

	Observer Observer
	Tracer   trace.Tracer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Orchestrator runs the order submission sequence.
type Orchestrator struct {
	orders       OrderAPI
	gateway      PaymentGateway
	transactions TransactionRecorder
	cart         Cart
	receipts     *ReceiptVault
	idempotency  storage.IdempotencyStore
	observer     Observer
	tracer       trace.Tracer
	logger       *slog.Logger
	now          func() time.Time
}

// NewOrchestrator validates the required collaborators.
func NewOrchestrator(deps OrchestratorDeps) (*Orchestrator, error) {
	if deps.Orders == nil {
		return nil, errors.New("orchestrator: order API is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("orchestrator: payment gateway is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("orchestrator: cart is required")
	}
	if deps.Receipts == nil {
		return nil, errors.New("orchestrator: receipt vault is required")
	}

	o := &Orchestrator{
		orders:       deps.Orders,
		gateway:      deps.Gateway,
		transactions: deps.Transactions,
		cart:         deps.Cart,
		receipts:     deps.Receipts,
		idempotency:  deps.Idempotency,
		observer:     deps.Observer,
		tracer:       deps.Tracer,
		logger:       deps.Logger,
		now:          deps.Clock,
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// SubmitInput is everything one submission needs. The caller computes the
// breakdown from the same items it passes here.
type SubmitInput struct {
	Cart      models.CartRef
	Items     []models.CartLineItem
	Method    *models.PaymentMethod
	Breakdown calculator.CommissionBreakdown

	// InstallmentMonths is the requested MSI plan; zero is full payment.
	// An ineligible plan silently falls back to full payment.
	InstallmentMonths int

	Branches     []models.Branch
	BranchNumber int

	// PickupTime is nil for "as soon as possible".
	PickupTime *time.Time

	Customer       models.CustomerIdentity
	IdempotencyKey string
}

// submission is the state carried between steps.
type submission struct {
	in        SubmitInput
	branch    models.Branch
	plan      calculator.PlanQuote
	hasPlan   bool
	amount    decimal.Decimal
	orderRef  string
	charge    ChargeResult
	orderID   string
	confirmed bool
}

// Submit runs the sequence: validate, charge (real cards only), create the
// order, attach every item, then the best-effort status updates, audit row,
// receipt and cart clear. Only the first four can fail the submission.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (*models.ReceiptSnapshot, error) {
	ctx, span := o.tracer.Start(ctx, "checkout.submit")
	defer span.End()

	snap, replayed, err := o.submit(ctx, in)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.observer.ObserveSubmission(OutcomeFailed)
	case replayed:
		o.observer.ObserveSubmission(OutcomeReplayed)
	default:
		span.SetAttributes(attribute.String("order.id", snap.OrderID))
		o.observer.ObserveSubmission(OutcomeOK)
	}
	return snap, err
}

func (o *Orchestrator) submit(ctx context.Context, in SubmitInput) (*models.ReceiptSnapshot, bool, error) {
	s := &submission{in: in}

	// The guard runs first: a completed submission replays even though its
	// cart has since been cleared.
	held := false
	if in.IdempotencyKey != "" && o.idempotency != nil {
		stored, err := o.idempotency.Begin(ctx, in.IdempotencyKey, in.Customer.OwnerID())
		switch {
		case errors.Is(err, storage.ErrKeyInProgress):
			return nil, false, &OrderSubmissionError{Kind: ErrSubmissionInProgress, Message: ErrSubmissionInProgress.Error()}
		case errors.Is(err, storage.ErrKeyConflict):
			return nil, false, &OrderSubmissionError{Kind: ErrIdempotencyKeyReused, Message: ErrIdempotencyKeyReused.Error()}
		case err != nil:
			o.logger.Warn("Idempotency guard unavailable, submitting unguarded", "key", in.IdempotencyKey, "error", err)
		case stored != nil:
			snap, err := decodeReceipt(stored)
			if err == nil {
				o.logger.Info("Replaying completed submission", "key", in.IdempotencyKey, "order_id", snap.OrderID)
				return snap, true, nil
			}
			o.logger.Warn("Stored submission result unreadable", "key", in.IdempotencyKey, "error", err)
		default:
			held = true
		}
	}

	var snap *models.ReceiptSnapshot
	err := o.step(ctx, StepValidate, func(context.Context) error {
		return o.validate(s)
	})
	if err != nil {
		err = &OrderSubmissionError{Kind: err, Message: err.Error()}
	} else {
		snap, err = o.execute(ctx, s)
	}
	if held {
		o.finishIdempotency(ctx, in.IdempotencyKey, snap, err)
	}
	return snap, false, err
}

func (o *Orchestrator) validate(s *submission) error {
	in := s.in
	if len(in.Items) == 0 {
		return ErrEmptyCart
	}
	if err := CheckGate(GateInput{
		TotalAmountCharged: in.Breakdown.TotalAmountCharged,
		Branches:           in.Branches,
		BranchNumber:       in.BranchNumber,
		Method:             in.Method,
	}); err != nil {
		return err
	}
	if in.PickupTime != nil && in.PickupTime.Before(o.now()) {
		return ErrInvalidPickupTime
	}

	branch, _ := ResolveBranch(in.Branches, in.BranchNumber)
	s.branch = branch

	offer := calculator.AvailablePlans(in.Breakdown.TotalAmountCharged, in.Method.CardBrand, in.Method.CardType)
	s.plan, s.hasPlan = offer.Resolve(in.InstallmentMonths)
	s.amount = in.Breakdown.TotalAmountCharged
	if s.hasPlan {
		s.amount = s.plan.TotalWithSurcharge
	}

	s.orderRef = in.IdempotencyKey
	if s.orderRef == "" {
		s.orderRef = ulid.Make().String()
	}
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, s *submission) (*models.ReceiptSnapshot, error) {
	in := s.in

	if !in.Method.IsSystem() {
		if err := o.step(ctx, StepGatewayCharge, func(ctx context.Context) error {
			return o.chargeCard(ctx, s)
		}); err != nil {
			o.logger.Error("Payment gateway charge failed", "method_id", in.Method.ID, "order_ref", s.orderRef, "error", err)
			return nil, fatal(ErrPaymentGateway, "payment could not be processed", err)
		}
	}

	if err := o.step(ctx, StepCreateOrder, func(ctx context.Context) error {
		id, err := o.orders.CreateOrder(ctx, o.orderRequest(s))
		if err != nil {
			return err
		}
		s.orderID = id
		return nil
	}); err != nil {
		o.logger.Error("Order creation failed",
			"order_ref", s.orderRef,
			"payment_id", s.charge.PaymentID,
			"amount", s.amount.StringFixed(2),
			"error", err,
		)
		return nil, fatal(ErrOrderCreation, "could not create order", err)
	}

	if err := o.step(ctx, StepAttachItems, func(ctx context.Context) error {
		return o.attachItems(ctx, s)
	}); err != nil {
		// The order stays unconfirmed with the items attached so far.
		o.logger.Error("Item attachment failed, order left unconfirmed", "order_id", s.orderID, "error", err)
		e := fatal(ErrItemAttachment, "could not add items to order", err)
		e.OrderID = s.orderID
		return nil, e
	}

	o.soft(ctx, StepMarkPaid, s.orderID, func(ctx context.Context) error {
		return o.orders.UpdatePaymentStatus(ctx, s.orderID, models.PaymentStatusPaid)
	})
	s.confirmed = o.soft(ctx, StepMarkConfirmed, s.orderID, func(ctx context.Context) error {
		return o.orders.UpdateOrderStatus(ctx, s.orderID, models.OrderStatusConfirmed)
	})
	if o.transactions != nil {
		o.soft(ctx, StepRecordTransaction, s.orderID, func(ctx context.Context) error {
			return o.transactions.RecordTransaction(ctx, o.transactionRecord(s))
		})
	}

	snap := o.receipt(s)
	o.soft(ctx, StepPersistReceipt, s.orderID, func(ctx context.Context) error {
		return o.receipts.Save(ctx, in.Customer, snap)
	})
	o.soft(ctx, StepClearCart, s.orderID, func(ctx context.Context) error {
		return o.cart.Clear(ctx, in.Cart)
	})

	o.logger.Info("Order submitted",
		"order_id", s.orderID,
		"restaurant_id", in.Cart.RestaurantID,
		"branch", s.branch.BranchNumber,
		"amount", s.amount.StringFixed(2),
		"system_card", in.Method.IsSystem(),
		"installments", s.plan.Months,
	)
	return snap, nil
}

func (o *Orchestrator) chargeCard(ctx context.Context, s *submission) error {
	customerID := s.in.Customer.UserID
	if customerID == "" {
		customerID = s.in.Customer.GuestID
	}
	res, err := o.gateway.Charge(ctx, ChargeRequest{
		MethodID:          s.in.Method.ID,
		CustomerID:        customerID,
		Amount:            s.amount,
		Currency:          models.Currency,
		Description:       fmt.Sprintf("Pick & Go order %s", s.orderRef),
		OrderRef:          s.orderRef,
		IdempotencyKey:    s.in.IdempotencyKey,
		InstallmentMonths: s.plan.Months,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return &declineError{message: res.Message}
	}
	s.charge = res
	return nil
}

func (o *Orchestrator) attachItems(ctx context.Context, s *submission) error {
	for i, item := range s.in.Items {
		_, err := o.orders.CreateLineItem(ctx, s.orderID, models.LineItemRequest{
			OrderID:      s.orderID,
			Item:         item.Name,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Images:       item.Images,
			CustomFields: item.CustomFields,
			ExtraPrice:   item.ExtraPrice,
			MenuItemID:   item.ID,
		})
		if err != nil {
			return fmt.Errorf("item %d of %d (%s): %w", i+1, len(s.in.Items), item.Name, err)
		}
	}
	return nil
}

func (o *Orchestrator) orderRequest(s *submission) models.OrderRequest {
	in := s.in
	return models.OrderRequest{
		UserID:        in.Customer.UserID,
		GuestID:       in.Customer.GuestID,
		CustomerName:  in.Customer.Name,
		CustomerEmail: in.Customer.Email,
		CustomerPhone: in.Customer.Phone,
		RestaurantID:  in.Cart.RestaurantID,
		BranchNumber:  s.branch.BranchNumber,
		TotalAmount:   s.amount,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusActive,
		SessionData: models.SessionData{
			PaymentMethodID: storedMethodID(in.Method),
			TotalAmount:     s.amount,
			BaseAmount:      in.Breakdown.BaseAmount,
			TipAmount:       in.Breakdown.TipAmount,
		},
		PrepMetadata: models.PrepMetadata{
			ItemsCount:        len(in.Items),
			EstimatedMinutes:  models.EstimatedPrepMinutes,
			ScheduledPickupAt: in.PickupTime,
		},
	}
}

func (o *Orchestrator) transactionRecord(s *submission) models.TransactionRecord {
	b := s.in.Breakdown
	return models.TransactionRecord{
		OrderID:                 s.orderID,
		RestaurantID:            s.in.Cart.RestaurantID,
		UserID:                  s.in.Customer.UserID,
		GuestID:                 s.in.Customer.GuestID,
		PaymentMethodID:         storedMethodID(s.in.Method),
		BaseAmount:              b.BaseAmount,
		TipAmount:               b.TipAmount,
		IVATip:                  b.IVATip,
		SubtotalForCommission:   b.SubtotalForCommission,
		CommissionTotal:         b.PlatformCommissionTotal,
		CommissionClient:        b.PlatformCommissionClientShare,
		CommissionRestaurant:    b.PlatformCommissionRestaurantShare,
		IVACommissionClient:     b.TaxOnPlatformCommissionClient,
		IVACommissionRestaurant: b.TaxOnPlatformCommissionRestaurant,
		ClientCharge:            b.ClientCharge,
		RestaurantCharge:        b.RestaurantCharge,
		TotalAmountCharged:      b.TotalAmountCharged,
		CommissionRatePercent:   b.RealizedRatePercent(),
		InstallmentMonths:       s.plan.Months,
		CreatedAt:               o.now().UTC(),
	}
}

func (o *Orchestrator) receipt(s *submission) *models.ReceiptSnapshot {
	in := s.in
	items := make([]models.ReceiptItem, 0, len(in.Items))
	for _, item := range in.Items {
		ri := models.ReceiptItem{
			ID:           item.ID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.Price,
			ExtraPrice:   item.ExtraPrice,
			TotalPrice:   item.LineTotal(),
			CustomFields: item.CustomFields,
		}
		if len(item.Images) > 0 {
			ri.Image = item.Images[0]
		}
		items = append(items, ri)
	}

	status := models.OrderStatusActive
	if s.confirmed {
		status = models.OrderStatusConfirmed
	}

	snap := &models.ReceiptSnapshot{
		OrderID:            s.orderID,
		RestaurantID:       in.Cart.RestaurantID,
		BranchNumber:       s.branch.BranchNumber,
		BaseAmount:         in.Breakdown.BaseAmount,
		TipAmount:          in.Breakdown.TipAmount,
		ClientCharge:       in.Breakdown.ClientCharge,
		TotalAmountCharged: in.Breakdown.TotalAmountCharged,
		AmountPaid:         s.amount,
		UserID:             in.Customer.UserID,
		GuestID:            in.Customer.GuestID,
		CustomerName:       in.Customer.Name,
		CustomerEmail:      in.Customer.Email,
		CustomerPhone:      in.Customer.Phone,
		CardLast4:          in.Method.LastFourDigits,
		CardBrand:          in.Method.CardBrand,
		PaymentID:          s.charge.PaymentID,
		TransactionID:      s.charge.TransactionID,
		Items:              items,
		PickupTime:         in.PickupTime,
		OrderStatus:        status,
		Timestamp:          o.now().UTC(),
	}
	if !in.Method.IsSystem() {
		snap.PaymentMethodID = in.Method.ID
	}
	if s.hasPlan {
		snap.InstallmentMonths = s.plan.Months
		snap.MonthlyPayment = s.plan.MonthlyPayment
	}
	return snap
}

// step runs one fatal-capable step inside a span and reports its outcome.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := o.now()
	ctx, span := o.tracer.Start(ctx, "checkout."+name, trace.WithAttributes(attribute.String("checkout.step", name)))
	defer span.End()

	err := fn(ctx)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.observer.ObserveStep(name, outcome, o.now().Sub(start))
	return err
}

// soft runs a best-effort step. Failures are logged and never surfaced; it
// reports whether the step succeeded.
func (o *Orchestrator) soft(ctx context.Context, name, orderID string, fn func(context.Context) error) bool {
	start := o.now()
	ctx, span := o.tracer.Start(ctx, "checkout."+name, trace.WithAttributes(attribute.String("checkout.step", name)))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		o.logger.Warn("Best-effort step failed", "step", name, "order_id", orderID, "error", err)
		o.observer.ObserveStep(name, OutcomeSoftFailed, o.now().Sub(start))
		return false
	}
	o.observer.ObserveStep(name, OutcomeOK, o.now().Sub(start))
	return true
}

func (o *Orchestrator) finishIdempotency(ctx context.Context, key string, snap *models.ReceiptSnapshot, err error) {
	if err != nil {
		if rerr := o.idempotency.Release(ctx, key); rerr != nil {
			o.logger.Warn("Failed to release idempotency key", "key", key, "error", rerr)
		}
		return
	}
	data, merr := json.Marshal(snap)
	if merr == nil {
		merr = o.idempotency.Complete(ctx, key, data)
	}
	if merr != nil {
		o.logger.Warn("Failed to store submission result", "key", key, "order_id", snap.OrderID, "error", merr)
	}
}

func storedMethodID(m *models.PaymentMethod) *string {
	if m == nil || m.IsSystem() {
		return nil
	}
	id := m.ID
	return &id
}

// declineError is a charge the gateway answered but did not approve.
type declineError struct {
	message string
}

func (e *declineError) Error() string {
	if e.message == "" {
		return "charge declined"
	}
	return "charge declined: " + e.message
}

func (e *declineError) UserMessage() string {
	return e.message
}

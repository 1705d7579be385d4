package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/auth"
	"github.com/xquisito/pickandgo/internal/calculator"
	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/middleware"
	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/rpc"
	"github.com/xquisito/pickandgo/internal/storage/sqlite"
)

const restaurantID = "rest-1"

type fakeGateway struct {
	mu     sync.Mutex
	result checkout.ChargeResult
	err    error
	calls  []checkout.ChargeRequest
}

func (g *fakeGateway) Charge(_ context.Context, req checkout.ChargeRequest) (checkout.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.result, g.err
}

// identityHeaders sets the guest headers on every client call.
func identityHeaders(guestID, sessionID string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if guestID != "" {
				req.Header().Set(middleware.GuestIDHeader, guestID)
			}
			if sessionID != "" {
				req.Header().Set(middleware.SessionIDHeader, sessionID)
			}
			return next(ctx, req)
		}
	}
}

type testEnv struct {
	store    *sqlite.SQLiteStore
	gateway  *fakeGateway
	server   *httptest.Server
	client   *rpc.CheckoutServiceClient
	customer models.CustomerIdentity
}

func (e *testEnv) clientFor(guestID, sessionID string) *rpc.CheckoutServiceClient {
	return rpc.NewCheckoutServiceClient(http.DefaultClient, e.server.URL,
		connect.WithInterceptors(identityHeaders(guestID, sessionID)))
}

// setupTestServer creates a test server backed by a temp SQLite database
// seeded with two branches, a 100-peso cart and one stored amex card.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		gateway:  &fakeGateway{result: checkout.ChargeResult{Success: true, PaymentID: "pi_1", TransactionID: "txn_1"}},
		customer: models.CustomerIdentity{GuestID: "guest-1", SessionID: "sess-1"},
	}
	seed(t, store, env.customer)

	receipts := checkout.NewReceiptVault(store, time.Hour)
	branches := checkout.NewBranchContext(store)
	orchestrator, err := checkout.NewOrchestrator(checkout.OrchestratorDeps{
		Orders:       store,
		Gateway:      env.gateway,
		Transactions: store,
		Cart:         store,
		Receipts:     receipts,
		Idempotency:  store,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	svc, err := NewCheckoutService(CheckoutDeps{
		Orchestrator: orchestrator,
		Reconciler:   checkout.NewReconciler(store, store, branches, nil, nil),
		Branches:     branches,
		Receipts:     receipts,
		Deletions:    checkout.NewDeletionGuard(store, store, 0, nil),
		Cart:         store,
		Catalog:      store,
		Methods:      store,
		Orders:       store,
	})
	if err != nil {
		t.Fatalf("NewCheckoutService failed: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour, "")
	path, handler := rpc.NewCheckoutServiceHandler(svc, connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.RequireCustomer(),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	env.client = env.clientFor(env.customer.GuestID, env.customer.SessionID)
	return env
}

func seed(t *testing.T, store *sqlite.SQLiteStore, customer models.CustomerIdentity) {
	t.Helper()
	ctx := context.Background()

	for _, b := range []models.Branch{{ID: "b1", BranchNumber: 1, Name: "Norte"}, {ID: "b2", BranchNumber: 2, Name: "Centro"}} {
		if err := store.UpsertBranch(ctx, restaurantID, b); err != nil {
			t.Fatalf("UpsertBranch failed: %v", err)
		}
	}
	tacos := models.MenuSection{ID: "s1", Name: "Tacos"}
	menu := []struct {
		branch int
		item   models.MenuItem
	}{
		{1, models.MenuItem{ID: "taco", Name: "Taco", Price: decimal.NewFromInt(35)}},
		{1, models.MenuItem{ID: "agua", Name: "Agua", Price: decimal.NewFromInt(30)}},
		{2, models.MenuItem{ID: "taco", Name: "Taco", Price: decimal.NewFromInt(35)}},
	}
	for _, m := range menu {
		if err := store.UpsertMenuItem(ctx, restaurantID, m.branch, tacos, m.item); err != nil {
			t.Fatalf("UpsertMenuItem failed: %v", err)
		}
	}

	ref := models.CartRef{GuestID: customer.GuestID, RestaurantID: restaurantID}
	for _, item := range []models.CartLineItem{
		{ID: "taco", CartItemID: "cart-taco", Name: "Taco", Price: decimal.NewFromInt(35), Quantity: 2, ExtraPrice: decimal.Zero},
		{ID: "agua", CartItemID: "cart-agua", Name: "Agua", Price: decimal.NewFromInt(30), Quantity: 1, ExtraPrice: decimal.Zero},
	} {
		if _, err := store.AddItem(ctx, ref, item); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}

	if err := store.AddPaymentMethod(ctx, customer, models.PaymentMethod{
		ID: "pm_amex", LastFourDigits: "0005", CardBrand: "amex", CardType: models.CardTypeCredit, IsDefault: true,
	}); err != nil {
		t.Fatalf("AddPaymentMethod failed: %v", err)
	}
}

func quoteAt(branch int, methodID string) rpc.QuoteRequest {
	return rpc.QuoteRequest{RestaurantID: restaurantID, BranchNumber: branch, PaymentMethodID: methodID}
}

func TestQuote(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	t.Run("branch required before submission", func(t *testing.T) {
		resp, err := env.client.Quote(ctx, connect.NewRequest(&rpc.QuoteRequest{RestaurantID: restaurantID}))
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		q := resp.Msg
		if !q.Breakdown.TotalAmountCharged.Equal(decimal.RequireFromString("102.32")) {
			t.Errorf("Expected 102.32, got %s", q.Breakdown.TotalAmountCharged)
		}
		if !q.Gate.BranchRequired || q.CanSubmit || q.Branch != nil {
			t.Errorf("Expected branch choice to be required, got %+v", q.Gate)
		}
		if q.PaymentMethod.ID != "pm_amex" {
			t.Errorf("Expected default card selected, got %s", q.PaymentMethod.ID)
		}
		if len(q.Options) == 0 || !q.Options[0].FullPayment {
			t.Errorf("Expected options to start with full payment, got %+v", q.Options)
		}
	})

	t.Run("tip and installments", func(t *testing.T) {
		pct := 10
		req := quoteAt(1, "pm_amex")
		req.Tip = rpc.TipInput{Percentage: &pct}
		req.InstallmentMonths = 3

		resp, err := env.client.Quote(ctx, connect.NewRequest(&req))
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		q := resp.Msg
		want, _ := calculator.Compute(decimal.NewFromInt(100), decimal.NewFromInt(10))
		if !q.Breakdown.TotalAmountCharged.Equal(want.TotalAmountCharged) {
			t.Errorf("Expected %s, got %s", want.TotalAmountCharged, q.Breakdown.TotalAmountCharged)
		}
		plan, ok := calculator.AvailablePlans(want.TotalAmountCharged, "amex", models.CardTypeCredit).Resolve(3)
		if !ok {
			t.Fatal("Expected 3-month amex plan to be eligible")
		}
		if q.EffectiveMonths != 3 || !q.AmountDue.Equal(plan.TotalWithSurcharge) {
			t.Errorf("Expected 3 months at %s, got %d at %s", plan.TotalWithSurcharge, q.EffectiveMonths, q.AmountDue)
		}
		if !q.CanSubmit || q.Branch == nil || q.Branch.BranchNumber != 1 {
			t.Errorf("Expected submittable quote at branch 1, got %+v", q)
		}
	})

	t.Run("system card has no installments", func(t *testing.T) {
		req := quoteAt(1, models.SystemDefaultCardID)
		req.InstallmentMonths = 6
		resp, err := env.client.Quote(ctx, connect.NewRequest(&req))
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		if resp.Msg.EffectiveMonths != 0 || !resp.Msg.AmountDue.Equal(resp.Msg.Breakdown.TotalAmountCharged) {
			t.Errorf("Expected silent fallback to full payment, got %d", resp.Msg.EffectiveMonths)
		}
	})

	custom := decimal.NewFromInt(5)
	pct := 15
	rejects := []struct {
		name string
		req  rpc.QuoteRequest
		want connect.Code
	}{
		{"missing restaurant", rpc.QuoteRequest{}, connect.CodeInvalidArgument},
		{"both tip sources", rpc.QuoteRequest{RestaurantID: restaurantID, Tip: rpc.TipInput{Percentage: &pct, CustomAmount: &custom}}, connect.CodeInvalidArgument},
		{"unknown method", quoteAt(1, "pm_missing"), connect.CodeNotFound},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.Quote(ctx, connect.NewRequest(&tt.req))
			if connect.CodeOf(err) != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.clientFor("", "sess-9").Quote(context.Background(), connect.NewRequest(&rpc.QuoteRequest{RestaurantID: restaurantID}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("Expected Unauthenticated, got %v", err)
	}
}

func TestPrepareSubmission(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.client.PrepareSubmission(ctx, connect.NewRequest(&rpc.PrepareSubmissionRequest{
		Quote: rpc.QuoteRequest{RestaurantID: restaurantID},
	}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("Expected FailedPrecondition without a branch, got %v", err)
	}

	resp, err := env.client.PrepareSubmission(ctx, connect.NewRequest(&rpc.PrepareSubmissionRequest{Quote: quoteAt(1, "")}))
	if err != nil {
		t.Fatalf("PrepareSubmission failed: %v", err)
	}
	if resp.Msg.IdempotencyKey == "" || !resp.Msg.Quote.CanSubmit {
		t.Errorf("Expected key and submittable quote, got %+v", resp.Msg)
	}
	if len(env.gateway.calls) != 0 {
		t.Error("PrepareSubmission must not charge")
	}
}

func TestSubmitOrder_SystemCard(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	req := &rpc.SubmitOrderRequest{Quote: quoteAt(1, models.SystemDefaultCardID), IdempotencyKey: "key-1"}
	resp, err := env.client.SubmitOrder(ctx, connect.NewRequest(req))
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	receipt := resp.Msg.Receipt
	if len(env.gateway.calls) != 0 {
		t.Errorf("System card must not reach the gateway, got %d calls", len(env.gateway.calls))
	}
	if !receipt.AmountPaid.Equal(decimal.RequireFromString("102.32")) || receipt.PaymentMethodID != "" {
		t.Errorf("Unexpected receipt %+v", receipt)
	}

	order, err := env.store.GetOrder(ctx, receipt.OrderID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.PaymentStatus != models.PaymentStatusPaid || order.OrderStatus != models.OrderStatusConfirmed || len(order.Items) != 2 {
		t.Errorf("Unexpected order %+v", order)
	}
	if items, _ := env.store.Items(ctx, models.CartRef{GuestID: "guest-1", RestaurantID: restaurantID}); len(items) != 0 {
		t.Errorf("Expected cart cleared, got %d items", len(items))
	}

	t.Run("retry replays the receipt", func(t *testing.T) {
		again, err := env.client.SubmitOrder(ctx, connect.NewRequest(req))
		if err != nil {
			t.Fatalf("Retry failed: %v", err)
		}
		if again.Msg.Receipt.OrderID != receipt.OrderID {
			t.Errorf("Expected replay of %s, got %s", receipt.OrderID, again.Msg.Receipt.OrderID)
		}
	})

	t.Run("receipt recoverable and consumable", func(t *testing.T) {
		got, err := env.client.GetReceipt(ctx, connect.NewRequest(&rpc.GetReceiptRequest{Refresh: true}))
		if err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		if got.Msg.Receipt.OrderID != receipt.OrderID || got.Msg.Source != string(checkout.SourceSession) {
			t.Errorf("Expected session receipt for %s, got %+v", receipt.OrderID, got.Msg)
		}
		if got.Msg.Order == nil || got.Msg.Order.ID != receipt.OrderID {
			t.Errorf("Expected refreshed order, got %+v", got.Msg.Order)
		}

		// A new session still finds the durable receipt until it is consumed.
		other := env.clientFor("guest-1", "")
		if _, err := other.GetReceipt(ctx, connect.NewRequest(&rpc.GetReceiptRequest{Consume: true})); err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		_, err = other.GetReceipt(ctx, connect.NewRequest(&rpc.GetReceiptRequest{}))
		if connect.CodeOf(err) != connect.CodeNotFound {
			t.Errorf("Expected NotFound after consume, got %v", err)
		}
	})
}

func TestSubmitOrder_Installments(t *testing.T) {
	env := setupTestServer(t)

	q := quoteAt(1, "pm_amex")
	q.InstallmentMonths = 3
	resp, err := env.client.SubmitOrder(context.Background(), connect.NewRequest(&rpc.SubmitOrderRequest{Quote: q}))
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}

	plan, _ := calculator.AvailablePlans(decimal.RequireFromString("102.32"), "amex", models.CardTypeCredit).Resolve(3)
	if len(env.gateway.calls) != 1 {
		t.Fatalf("Expected one charge, got %d", len(env.gateway.calls))
	}
	charge := env.gateway.calls[0]
	if !charge.Amount.Equal(plan.TotalWithSurcharge) || charge.InstallmentMonths != 3 || charge.MethodID != "pm_amex" {
		t.Errorf("Unexpected charge %+v", charge)
	}
	if resp.Msg.Receipt.InstallmentMonths != 3 || !resp.Msg.Receipt.MonthlyPayment.Equal(plan.MonthlyPayment) {
		t.Errorf("Unexpected receipt plan %+v", resp.Msg.Receipt)
	}
}

func TestSubmitOrder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*testEnv)
		req     rpc.SubmitOrderRequest
		want    connect.Code
	}{
		{
			name:    "declined card",
			prepare: func(e *testEnv) { e.gateway.result = checkout.ChargeResult{Message: "insufficient funds"} },
			req:     rpc.SubmitOrderRequest{Quote: quoteAt(1, "pm_amex")},
			want:    connect.CodeAborted,
		},
		{
			name:    "gateway down",
			prepare: func(e *testEnv) { e.gateway.err = errors.New("timeout") },
			req:     rpc.SubmitOrderRequest{Quote: quoteAt(1, "pm_amex")},
			want:    connect.CodeAborted,
		},
		{
			name: "empty cart",
			prepare: func(e *testEnv) {
				_ = e.store.Clear(context.Background(), models.CartRef{GuestID: "guest-1", RestaurantID: restaurantID})
			},
			req:  rpc.SubmitOrderRequest{Quote: quoteAt(1, "")},
			want: connect.CodeFailedPrecondition,
		},
		{
			name:    "branch required",
			prepare: func(*testEnv) {},
			req:     rpc.SubmitOrderRequest{Quote: rpc.QuoteRequest{RestaurantID: restaurantID}},
			want:    connect.CodeFailedPrecondition,
		},
		{
			name:    "pickup in the past",
			prepare: func(*testEnv) {},
			req: func() rpc.SubmitOrderRequest {
				past := time.Now().Add(-time.Hour)
				return rpc.SubmitOrderRequest{Quote: quoteAt(1, ""), PickupTime: &past}
			}(),
			want: connect.CodeFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			tt.prepare(env)

			_, err := env.client.SubmitOrder(context.Background(), connect.NewRequest(&tt.req))
			if connect.CodeOf(err) != tt.want {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var connectErr *connect.Error
			if errors.As(err, &connectErr) && connectErr.Message() == "" {
				t.Error("Expected a customer-facing message")
			}
			if items, _ := env.store.Items(context.Background(), models.CartRef{GuestID: "guest-1", RestaurantID: restaurantID}); tt.name != "empty cart" && len(items) != 2 {
				t.Errorf("Fatal failure must leave the cart intact, got %d items", len(items))
			}
		})
	}
}

func TestSubmissionError_Codes(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{&checkout.OrderSubmissionError{Kind: checkout.ErrSubmissionInProgress, Message: "busy"}, connect.CodeAborted},
		{&checkout.OrderSubmissionError{Kind: checkout.ErrIdempotencyKeyReused, Message: "not yours"}, connect.CodePermissionDenied},
		{&checkout.OrderSubmissionError{Kind: checkout.ErrOrderCreation, Message: "could not create order: down"}, connect.CodeUnavailable},
		{&checkout.OrderSubmissionError{Kind: checkout.ErrItemAttachment, Message: "could not add items", OrderID: "order-7"}, connect.CodeUnavailable},
		{errors.New("surprise"), connect.CodeInternal},
	}
	for _, tt := range tests {
		err := submissionError(tt.err)
		if connect.CodeOf(err) != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.err, tt.want, connect.CodeOf(err))
		}
	}

	var connectErr *connect.Error
	err := submissionError(&checkout.OrderSubmissionError{Kind: checkout.ErrItemAttachment, Message: "could not add items", OrderID: "order-7"})
	if !errors.As(err, &connectErr) || connectErr.Meta().Get(OrderIDMetaKey) != "order-7" {
		t.Errorf("Expected order id in error metadata, got %v", err)
	}
	if connectErr.Message() != "could not add items" {
		t.Errorf("Expected customer message, got %q", connectErr.Message())
	}
}

func TestPaymentMethodDeletion(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	list, err := env.client.ListPaymentMethods(ctx, connect.NewRequest(&rpc.ListPaymentMethodsRequest{}))
	if err != nil {
		t.Fatalf("ListPaymentMethods failed: %v", err)
	}
	if len(list.Msg.Methods) != 2 || list.Msg.Methods[0].ID != models.SystemDefaultCardID || list.Msg.SelectedID != "pm_amex" {
		t.Fatalf("Unexpected methods %+v", list.Msg)
	}

	_, err = env.client.RequestPaymentMethodDeletion(ctx, connect.NewRequest(&rpc.RequestPaymentMethodDeletionRequest{PaymentMethodID: models.SystemDefaultCardID}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("Expected system card rejection, got %v", err)
	}

	req, err := env.client.RequestPaymentMethodDeletion(ctx, connect.NewRequest(&rpc.RequestPaymentMethodDeletionRequest{PaymentMethodID: "pm_amex"}))
	if err != nil {
		t.Fatalf("RequestPaymentMethodDeletion failed: %v", err)
	}
	if req.Msg.PaymentMethod.ID != "pm_amex" {
		t.Errorf("Expected pm_amex echoed for confirmation, got %+v", req.Msg.PaymentMethod)
	}

	stored, _ := env.store.ListPaymentMethods(ctx, env.customer)
	if len(stored) != 1 {
		t.Fatal("Request alone must not delete")
	}

	confirm, err := env.client.ConfirmPaymentMethodDeletion(ctx, connect.NewRequest(&rpc.ConfirmPaymentMethodDeletionRequest{ConfirmationToken: req.Msg.ConfirmationToken}))
	if err != nil {
		t.Fatalf("ConfirmPaymentMethodDeletion failed: %v", err)
	}
	if confirm.Msg.DeletedID != "pm_amex" || len(confirm.Msg.Methods) != 1 || confirm.Msg.SelectedID != models.SystemDefaultCardID {
		t.Errorf("Unexpected confirmation %+v", confirm.Msg)
	}

	_, err = env.client.ConfirmPaymentMethodDeletion(ctx, connect.NewRequest(&rpc.ConfirmPaymentMethodDeletionRequest{ConfirmationToken: req.Msg.ConfirmationToken}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("Expected reused token to fail, got %v", err)
	}
}

func TestBranchSwitch(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	preview, err := env.client.PreviewBranchSwitch(ctx, connect.NewRequest(&rpc.PreviewBranchSwitchRequest{RestaurantID: restaurantID, TargetBranch: 2}))
	if err != nil {
		t.Fatalf("PreviewBranchSwitch failed: %v", err)
	}
	if len(preview.Msg.Remove) != 1 || preview.Msg.Remove[0].ID != "agua" || len(preview.Msg.Keep) != 1 {
		t.Fatalf("Expected agua to be removed, got %+v", preview.Msg)
	}
	if items, _ := env.store.Items(ctx, models.CartRef{GuestID: "guest-1", RestaurantID: restaurantID}); len(items) != 2 {
		t.Error("Preview must not modify the cart")
	}

	ids := []string{preview.Msg.Remove[0].CartItemID}
	confirm, err := env.client.ConfirmBranchSwitch(ctx, connect.NewRequest(&rpc.ConfirmBranchSwitchRequest{
		RestaurantID: restaurantID, TargetBranch: 2, RemoveCartItemIDs: ids,
	}))
	if err != nil {
		t.Fatalf("ConfirmBranchSwitch failed: %v", err)
	}
	if confirm.Msg.BranchNumber != 2 || len(confirm.Msg.Removed) != 1 {
		t.Errorf("Unexpected switch result %+v", confirm.Msg)
	}

	q, err := env.client.Quote(ctx, connect.NewRequest(&rpc.QuoteRequest{RestaurantID: restaurantID}))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if q.Msg.Branch == nil || q.Msg.Branch.BranchNumber != 2 || len(q.Msg.Items) != 1 {
		t.Errorf("Expected active branch 2 with one item, got %+v", q.Msg)
	}

	_, err = env.client.PreviewBranchSwitch(ctx, connect.NewRequest(&rpc.PreviewBranchSwitchRequest{RestaurantID: restaurantID, TargetBranch: 9}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Expected unknown branch to be rejected, got %v", err)
	}
}

func TestConfirmBranchSwitch_RejectsStaleConfirmation(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	cart := models.CartRef{GuestID: "guest-1", RestaurantID: restaurantID}

	tests := []struct {
		name string
		ids  []string
	}{
		{"available item", []string{"cart-taco"}},
		{"unavailable item missing", nil},
		{"extra available item", []string{"cart-agua", "cart-taco"}},
		{"unknown item", []string{"cart-agua", "cart-ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.ConfirmBranchSwitch(ctx, connect.NewRequest(&rpc.ConfirmBranchSwitchRequest{
				RestaurantID: restaurantID, TargetBranch: 2, RemoveCartItemIDs: tt.ids,
			}))
			if connect.CodeOf(err) != connect.CodeFailedPrecondition {
				t.Fatalf("Expected FailedPrecondition, got %v", err)
			}
			items, err := env.store.Items(ctx, cart)
			if err != nil {
				t.Fatalf("Items failed: %v", err)
			}
			if len(items) != 2 {
				t.Errorf("Expected cart untouched, got %d items", len(items))
			}
		})
	}

	confirm, err := env.client.ConfirmBranchSwitch(ctx, connect.NewRequest(&rpc.ConfirmBranchSwitchRequest{
		RestaurantID: restaurantID, TargetBranch: 2, RemoveCartItemIDs: []string{"cart-agua"},
	}))
	if err != nil {
		t.Fatalf("ConfirmBranchSwitch failed: %v", err)
	}
	if len(confirm.Msg.Removed) != 1 || confirm.Msg.Removed[0] != "cart-agua" || confirm.Msg.FailOpen {
		t.Errorf("Expected only cart-agua removed, got %+v", confirm.Msg)
	}
	items, _ := env.store.Items(ctx, cart)
	if len(items) != 1 || items[0].CartItemID != "cart-taco" {
		t.Errorf("Expected taco to remain, got %+v", items)
	}
}

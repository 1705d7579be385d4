package xquisito

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// newTestClient serves every request with handler and records it.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone()}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		requests = append(requests, rec)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/", WithServiceKey("svc-key"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, &requests
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("expected ErrMissingBaseURL, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":"order-9"}}`)
	})

	id, err := client.CreateOrder(context.Background(), models.OrderRequest{
		CustomerName: "Ana",
		RestaurantID: "rest-1",
		TotalAmount:  decimal.RequireFromString("102.32"),
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if id != "order-9" {
		t.Errorf("expected order-9, got %s", id)
	}

	req := (*requests)[0]
	if req.Method != http.MethodPost || req.Path != "/api/pick-and-go/orders" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Header.Get(serviceKeyHeader) != "svc-key" {
		t.Errorf("expected service key header, got %q", req.Header.Get(serviceKeyHeader))
	}
	if req.Body["customerName"] != "Ana" || req.Body["totalAmount"] != "102.32" {
		t.Errorf("unexpected body %v", req.Body)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusBadRequest, `{"success":false,"message":"Sucursal cerrada"}`, "Sucursal cerrada"},
		{"error field", http.StatusInternalServerError, `{"error":"db down"}`, "db down"},
		{"success false with 200", http.StatusOK, `{"success":false,"message":"Tarjeta rechazada"}`, "Tarjeta rechazada"},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.CreateOrder(context.Background(), models.OrderRequest{})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Errorf("expected %d %q, got %d %q", tt.status, tt.message, apiErr.Status, apiErr.Message)
			}

			want := tt.message
			if want == "" {
				want = "unknown error"
			}
			if got := checkout.ServerMessage(err); got != want {
				t.Errorf("expected server message %q, got %q", want, got)
			}
		})
	}
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"order-1","orderStatus":"ready","items":[{"id":"i1","item":"Taco","price":"35","quantity":2,"extraPrice":"0"}]}}`)
		default:
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":"item-1"}}`)
		}
	})
	ctx := context.Background()

	if _, err := client.CreateLineItem(ctx, "order-1", models.LineItemRequest{Item: "Taco", Quantity: 2}); err != nil {
		t.Fatalf("CreateLineItem failed: %v", err)
	}
	if err := client.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid); err != nil {
		t.Fatalf("UpdatePaymentStatus failed: %v", err)
	}
	if err := client.UpdateOrderStatus(ctx, "order-1", models.OrderStatusConfirmed); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	order, err := client.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.OrderStatus != models.OrderStatusReady || len(order.Items) != 1 {
		t.Errorf("unexpected order %+v", order)
	}

	got := *requests
	expected := []struct{ method, path string }{
		{http.MethodPost, "/api/pick-and-go/orders/order-1/items"},
		{http.MethodPut, "/api/pick-and-go/orders/order-1/payment-status"},
		{http.MethodPut, "/api/pick-and-go/orders/order-1/status"},
		{http.MethodGet, "/api/pick-and-go/orders/order-1"},
	}
	for i, e := range expected {
		if got[i].Method != e.method || got[i].Path != e.path {
			t.Errorf("request %d: expected %s %s, got %s %s", i, e.method, e.path, got[i].Method, got[i].Path)
		}
	}
	if got[0].Body["pickAndGoOrderId"] != "order-1" {
		t.Errorf("expected order id in item body, got %v", got[0].Body)
	}
	if got[1].Body["paymentStatus"] != "paid" || got[2].Body["orderStatus"] != "confirmed" {
		t.Errorf("unexpected status bodies %v %v", got[1].Body, got[2].Body)
	}
}

func TestMenuForBranch(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"s1","name":"Tacos","items":[{"id":"m1","name":"Pastor","price":"35"},{"id":"m2","name":"Suadero","price":"35","isAvailable":false}]}]}`)
	})

	menu, err := client.MenuForBranch(context.Background(), "rest-1", 3)
	if err != nil {
		t.Fatalf("MenuForBranch failed: %v", err)
	}
	if len(menu) != 1 || len(menu[0].Items) != 2 {
		t.Fatalf("unexpected menu %+v", menu)
	}
	if avail := menu[0].Items[1].IsAvailable; avail == nil || *avail {
		t.Errorf("expected explicit unavailability, got %v", avail)
	}
	if (*requests)[0].Path != "/api/restaurants/rest-1/menu" || (*requests)[0].Query != "branch=3" {
		t.Errorf("unexpected request %+v", (*requests)[0])
	}
}

func TestCartIdentityHeaders(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"items":[{"id":"m1","cartItemId":"c1","name":"Pastor","price":"35","quantity":1}]}}`)
	})
	ref := models.CartRef{GuestID: "guest-7", RestaurantID: "rest-1", BranchNumber: 2}
	ctx := context.Background()

	items, err := client.Items(ctx, ref)
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 || items[0].CartItemID != "c1" {
		t.Errorf("unexpected items %+v", items)
	}
	if err := client.RemoveItem(ctx, ref, "c1"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	for _, req := range *requests {
		if req.Header.Get(guestIDHeader) != "guest-7" || req.Header.Get(userIDHeader) != "" {
			t.Errorf("expected guest header only, got %v", req.Header)
		}
	}
	remove := (*requests)[1]
	if remove.Method != http.MethodDelete || remove.Path != "/api/cart/items/c1" {
		t.Errorf("unexpected remove request %s %s", remove.Method, remove.Path)
	}
}

func TestProcessPayment(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"paymentId":"pay_1","transactionId":"tx_1","status":"approved"}}`)
	})

	res, err := client.ProcessPayment(context.Background(), ProcessPaymentRequest{
		PaymentMethodID:   "pm_visa",
		Amount:            decimal.RequireFromString("106.18"),
		Currency:          models.Currency,
		InstallmentMonths: 3,
	}, "01HZKEY")
	if err != nil {
		t.Fatalf("ProcessPayment failed: %v", err)
	}
	if res.PaymentID != "pay_1" || res.TransactionID != "tx_1" {
		t.Errorf("unexpected result %+v", res)
	}
	req := (*requests)[0]
	if req.Header.Get(idempotencyHeader) != "01HZKEY" {
		t.Errorf("expected idempotency header, got %q", req.Header.Get(idempotencyHeader))
	}
	if req.Body["installments"] != float64(3) {
		t.Errorf("expected installments in body, got %v", req.Body)
	}
}

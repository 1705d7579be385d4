package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ServiceName is the fully-qualified name of the checkout service.
const ServiceName = "xquisito.checkout.v1.CheckoutService"

// Procedure paths of CheckoutService.
const (
	QuoteProcedure                        = "/" + ServiceName + "/Quote"
	PrepareSubmissionProcedure            = "/" + ServiceName + "/PrepareSubmission"
	SubmitOrderProcedure                  = "/" + ServiceName + "/SubmitOrder"
	GetReceiptProcedure                   = "/" + ServiceName + "/GetReceipt"
	ListPaymentMethodsProcedure           = "/" + ServiceName + "/ListPaymentMethods"
	RequestPaymentMethodDeletionProcedure = "/" + ServiceName + "/RequestPaymentMethodDeletion"
	ConfirmPaymentMethodDeletionProcedure = "/" + ServiceName + "/ConfirmPaymentMethodDeletion"
	PreviewBranchSwitchProcedure          = "/" + ServiceName + "/PreviewBranchSwitch"
	ConfirmBranchSwitchProcedure          = "/" + ServiceName + "/ConfirmBranchSwitch"
)

// CheckoutServiceHandler is implemented by the checkout service.
type CheckoutServiceHandler interface {
	Quote(context.Context, *connect.Request[QuoteRequest]) (*connect.Response[QuoteResponse], error)
	PrepareSubmission(context.Context, *connect.Request[PrepareSubmissionRequest]) (*connect.Response[PrepareSubmissionResponse], error)
	SubmitOrder(context.Context, *connect.Request[SubmitOrderRequest]) (*connect.Response[SubmitOrderResponse], error)
	GetReceipt(context.Context, *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error)
	ListPaymentMethods(context.Context, *connect.Request[ListPaymentMethodsRequest]) (*connect.Response[ListPaymentMethodsResponse], error)
	RequestPaymentMethodDeletion(context.Context, *connect.Request[RequestPaymentMethodDeletionRequest]) (*connect.Response[RequestPaymentMethodDeletionResponse], error)
	ConfirmPaymentMethodDeletion(context.Context, *connect.Request[ConfirmPaymentMethodDeletionRequest]) (*connect.Response[ConfirmPaymentMethodDeletionResponse], error)
	PreviewBranchSwitch(context.Context, *connect.Request[PreviewBranchSwitchRequest]) (*connect.Response[PreviewBranchSwitchResponse], error)
	ConfirmBranchSwitch(context.Context, *connect.Request[ConfirmBranchSwitchRequest]) (*connect.Response[ConfirmBranchSwitchResponse], error)
}

// NewCheckoutServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on. The JSON codec is always installed.
func NewCheckoutServiceHandler(svc CheckoutServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	handlers := map[string]http.Handler{
		QuoteProcedure:                        connect.NewUnaryHandler(QuoteProcedure, svc.Quote, opts...),
		PrepareSubmissionProcedure:            connect.NewUnaryHandler(PrepareSubmissionProcedure, svc.PrepareSubmission, opts...),
		SubmitOrderProcedure:                  connect.NewUnaryHandler(SubmitOrderProcedure, svc.SubmitOrder, opts...),
		GetReceiptProcedure:                   connect.NewUnaryHandler(GetReceiptProcedure, svc.GetReceipt, opts...),
		ListPaymentMethodsProcedure:           connect.NewUnaryHandler(ListPaymentMethodsProcedure, svc.ListPaymentMethods, opts...),
		RequestPaymentMethodDeletionProcedure: connect.NewUnaryHandler(RequestPaymentMethodDeletionProcedure, svc.RequestPaymentMethodDeletion, opts...),
		ConfirmPaymentMethodDeletionProcedure: connect.NewUnaryHandler(ConfirmPaymentMethodDeletionProcedure, svc.ConfirmPaymentMethodDeletion, opts...),
		PreviewBranchSwitchProcedure:          connect.NewUnaryHandler(PreviewBranchSwitchProcedure, svc.PreviewBranchSwitch, opts...),
		ConfirmBranchSwitchProcedure:          connect.NewUnaryHandler(ConfirmBranchSwitchProcedure, svc.ConfirmBranchSwitch, opts...),
	}

	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// CheckoutServiceClient calls CheckoutService.
type CheckoutServiceClient struct {
	quote                        *connect.Client[QuoteRequest, QuoteResponse]
	prepareSubmission            *connect.Client[PrepareSubmissionRequest, PrepareSubmissionResponse]
	submitOrder                  *connect.Client[SubmitOrderRequest, SubmitOrderResponse]
	getReceipt                   *connect.Client[GetReceiptRequest, GetReceiptResponse]
	listPaymentMethods           *connect.Client[ListPaymentMethodsRequest, ListPaymentMethodsResponse]
	requestPaymentMethodDeletion *connect.Client[RequestPaymentMethodDeletionRequest, RequestPaymentMethodDeletionResponse]
	confirmPaymentMethodDeletion *connect.Client[ConfirmPaymentMethodDeletionRequest, ConfirmPaymentMethodDeletionResponse]
	previewBranchSwitch          *connect.Client[PreviewBranchSwitchRequest, PreviewBranchSwitchResponse]
	confirmBranchSwitch          *connect.Client[ConfirmBranchSwitchRequest, ConfirmBranchSwitchResponse]
}

// NewCheckoutServiceClient constructs a client for the service at baseURL.
func NewCheckoutServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CheckoutServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &CheckoutServiceClient{
		quote:                        connect.NewClient[QuoteRequest, QuoteResponse](httpClient, baseURL+QuoteProcedure, opts...),
		prepareSubmission:            connect.NewClient[PrepareSubmissionRequest, PrepareSubmissionResponse](httpClient, baseURL+PrepareSubmissionProcedure, opts...),
		submitOrder:                  connect.NewClient[SubmitOrderRequest, SubmitOrderResponse](httpClient, baseURL+SubmitOrderProcedure, opts...),
		getReceipt:                   connect.NewClient[GetReceiptRequest, GetReceiptResponse](httpClient, baseURL+GetReceiptProcedure, opts...),
		listPaymentMethods:           connect.NewClient[ListPaymentMethodsRequest, ListPaymentMethodsResponse](httpClient, baseURL+ListPaymentMethodsProcedure, opts...),
		requestPaymentMethodDeletion: connect.NewClient[RequestPaymentMethodDeletionRequest, RequestPaymentMethodDeletionResponse](httpClient, baseURL+RequestPaymentMethodDeletionProcedure, opts...),
		confirmPaymentMethodDeletion: connect.NewClient[ConfirmPaymentMethodDeletionRequest, ConfirmPaymentMethodDeletionResponse](httpClient, baseURL+ConfirmPaymentMethodDeletionProcedure, opts...),
		previewBranchSwitch:          connect.NewClient[PreviewBranchSwitchRequest, PreviewBranchSwitchResponse](httpClient, baseURL+PreviewBranchSwitchProcedure, opts...),
		confirmBranchSwitch:          connect.NewClient[ConfirmBranchSwitchRequest, ConfirmBranchSwitchResponse](httpClient, baseURL+ConfirmBranchSwitchProcedure, opts...),
	}
}

func (c *CheckoutServiceClient) Quote(ctx context.Context, req *connect.Request[QuoteRequest]) (*connect.Response[QuoteResponse], error) {
	return c.quote.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) PrepareSubmission(ctx context.Context, req *connect.Request[PrepareSubmissionRequest]) (*connect.Response[PrepareSubmissionResponse], error) {
	return c.prepareSubmission.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) SubmitOrder(ctx context.Context, req *connect.Request[SubmitOrderRequest]) (*connect.Response[SubmitOrderResponse], error) {
	return c.submitOrder.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	return c.getReceipt.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) ListPaymentMethods(ctx context.Context, req *connect.Request[ListPaymentMethodsRequest]) (*connect.Response[ListPaymentMethodsResponse], error) {
	return c.listPaymentMethods.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) RequestPaymentMethodDeletion(ctx context.Context, req *connect.Request[RequestPaymentMethodDeletionRequest]) (*connect.Response[RequestPaymentMethodDeletionResponse], error) {
	return c.requestPaymentMethodDeletion.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) ConfirmPaymentMethodDeletion(ctx context.Context, req *connect.Request[ConfirmPaymentMethodDeletionRequest]) (*connect.Response[ConfirmPaymentMethodDeletionResponse], error) {
	return c.confirmPaymentMethodDeletion.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) PreviewBranchSwitch(ctx context.Context, req *connect.Request[PreviewBranchSwitchRequest]) (*connect.Response[PreviewBranchSwitchResponse], error) {
	return c.previewBranchSwitch.CallUnary(ctx, req)
}

func (c *CheckoutServiceClient) ConfirmBranchSwitch(ctx context.Context, req *connect.Request[ConfirmBranchSwitchRequest]) (*connect.Response[ConfirmBranchSwitchResponse], error) {
	return c.confirmBranchSwitch.CallUnary(ctx, req)
}

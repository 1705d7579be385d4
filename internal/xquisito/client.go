// Package xquisito is an HTTP client for the Xquisito platform API: Pick & Go
// orders, commission transactions, branch menus, the cart, stored payment
// methods and the hosted payment processor.
package xquisito

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

const (
	defaultTimeout    = 10 * time.Second
	idempotencyHeader = "Idempotency-Key"
	serviceKeyHeader  = "X-Service-Key"
	userIDHeader      = "X-User-Id"
	guestIDHeader     = "X-Guest-Id"
)

var (
	_ checkout.OrderAPI            = (*Client)(nil)
	_ checkout.TransactionRecorder = (*Client)(nil)
	_ checkout.BranchCatalog       = (*Client)(nil)
	_ checkout.Cart                = (*Client)(nil)
	_ checkout.PaymentMethodStore  = (*Client)(nil)
)

// ErrMissingBaseURL is returned by NewClient without a base URL.
var ErrMissingBaseURL = errors.New("xquisito: missing base url")

// APIError is a non-success answer from the platform. Message is the
// server-provided text, safe to show to the customer.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("xquisito: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("xquisito: %s: status %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage is the server-provided message.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client talks to the Xquisito API.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithServiceKey authenticates calls as the checkout backend.
func WithServiceKey(key string) ClientOption {
	return func(c *Client) { c.serviceKey = strings.TrimSpace(key) }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// NewClient constructs an API client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type call struct {
	op             string
	method         string
	path           []string
	query          url.Values
	customer       *models.CustomerIdentity
	idempotencyKey string
	body           any
}

// do executes c and decodes the envelope's data into out (when non-nil).
func (c *Client) do(ctx context.Context, req call, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, req.path...)
	if err != nil {
		return fmt.Errorf("xquisito: %s: %w", req.op, err)
	}
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("xquisito: %s: failed to encode request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("xquisito: %s: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.serviceKey != "" {
		httpReq.Header.Set(serviceKeyHeader, c.serviceKey)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(idempotencyHeader, req.idempotencyKey)
	}
	if cu := req.customer; cu != nil {
		if cu.UserID != "" {
			httpReq.Header.Set(userIDHeader, cu.UserID)
		}
		if cu.GuestID != "" {
			httpReq.Header.Set(guestIDHeader, cu.GuestID)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("xquisito: %s: %w", req.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("xquisito: %s: failed to read response: %w", req.op, err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 400 {
			return fmt.Errorf("xquisito: %s: failed to decode response: %w", req.op, err)
		}
	}

	if resp.StatusCode >= 400 || (env.Success != nil && !*env.Success) {
		return &APIError{Op: req.op, Status: resp.StatusCode, Message: env.message()}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("xquisito: %s: failed to decode data: %w", req.op, err)
	}
	return nil
}

func (e envelope) message() string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	return strings.TrimSpace(e.Error)
}

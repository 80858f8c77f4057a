// Package storefront is the HTTP client the shopper-facing checkout flow and
// the admin console use to talk to the backend.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"herbal_store/internal/domain"

	"github.com/sirupsen/logrus"
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates and keeps the session token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var auth domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &auth); err != nil {
		return nil, err
	}
	c.SetToken(auth.Token)
	return &auth, nil
}

func (c *Client) CreatePayment(ctx context.Context, input domain.CreatePaymentInput) (*domain.PaymentSession, error) {
	var session domain.PaymentSession
	if err := c.do(ctx, http.MethodPost, "/payment/create-order", input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) VerifyPayment(ctx context.Context, transactionID string) (*domain.PaymentVerification, error) {
	var result domain.PaymentVerification
	if err := c.do(ctx, http.MethodPost, "/payment/verify", map[string]string{"transactionId": transactionID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/my-orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+id+"/status", patch, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("StorefrontClient: %s %s failed: %v", method, path, err)
		return fmt.Errorf("failed to reach store api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		c.log.Warnf("StorefrontClient: %s %s returned %d: %s", method, path, resp.StatusCode, msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// Package commerce - Store API client
// One method per remote operation, one HTTP round trip per method. The
// backend scopes the cart to a session cookie, so the client carries a
// cookie jar and must be shared across every call of one checkout flow.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"challenge-checkout/internal/config"
	"challenge-checkout/internal/errors"
	"challenge-checkout/internal/logging"
)

// Store API endpoints, relative to the backend base URL.
const (
	endpointCart         = "/wp-json/wc/store/cart"
	endpointAddItem      = "/wp-json/wc/store/cart/add-item"
	endpointUpdateItem   = "/wp-json/wc/store/cart/update-item"
	endpointRemoveItem   = "/wp-json/wc/store/cart/remove-item"
	endpointApplyCoupon  = "/wp-json/wc/store/cart/apply-coupon"
	endpointRemoveCoupon = "/wp-json/wc/store/cart/remove-coupon"
	endpointCheckout     = "/wp-json/wc/store/checkout"
	endpointRules        = "/wp-json/custom/v1/challenge-rules"
)

// Client talks to the commerce backend's Store API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	consumerKey    string
	consumerSecret string
	log            *zap.Logger
}

// NewClient creates a Store API client for the configured backend
func NewClient(cfg config.CommerceConfig) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New(errors.TypeConfig, "commerce base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errors.Config("invalid commerce base URL", err)
	}

	// The backend identifies the cart by session cookie
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "creating cookie jar", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	agent := cfg.UserAgent
	if agent == "" {
		agent = "challenge-checkout"
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: userAgentTransport{agent: agent, base: http.DefaultTransport},
		},
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		log:            logging.With(zap.String("component", "commerce_client")),
	}, nil
}

// Cart fetches the current session cart
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, endpointCart, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem adds a product to the cart and returns the updated cart
func (c *Client) AddItem(ctx context.Context, productID int64, quantity int) (*Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var cart Cart
	err := c.do(ctx, http.MethodPost, endpointAddItem, addItemRequest{ID: productID, Quantity: quantity}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateItem changes the quantity of a line item
func (c *Client) UpdateItem(ctx context.Context, itemKey string, quantity int) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, http.MethodPost, endpointUpdateItem, updateItemRequest{Key: itemKey, Quantity: quantity}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveItem removes a line item by key
func (c *Client) RemoveItem(ctx context.Context, itemKey string) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, http.MethodPost, endpointRemoveItem, removeItemRequest{Key: itemKey}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties the cart. The Store API has no atomic clear, so this is
// a fetch followed by one remove per item; a failure part-way leaves the
// remote cart partially cleared.
func (c *Client) ClearCart(ctx context.Context) error {
	cart, err := c.Cart(ctx)
	if err != nil {
		return err
	}
	for _, item := range cart.Items {
		if _, err := c.RemoveItem(ctx, item.Key); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCoupon applies a coupon code to the cart
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, http.MethodPost, endpointApplyCoupon, couponRequest{Code: code}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveCoupon removes an applied coupon code
func (c *Client) RemoveCoupon(ctx context.Context, code string) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, http.MethodPost, endpointRemoveCoupon, couponRequest{Code: code}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Checkout submits billing details and the chosen payment method
func (c *Client) Checkout(ctx context.Context, billing BillingAddress, paymentMethod string) (*CheckoutResponse, error) {
	var resp CheckoutResponse
	req := CheckoutRequest{BillingAddress: billing, PaymentMethod: paymentMethod}
	if err := c.do(ctx, http.MethodPost, endpointCheckout, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChallengeRules fetches the display rules for a challenge tier
func (c *Client) ChallengeRules(ctx context.Context, rulesKey string) (Rules, error) {
	var rules Rules
	path := endpointRules + "/" + url.PathEscape(rulesKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// do issues a single JSON round trip against the backend
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Transport("rate limiter wait", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.TypeInternal, "encoding request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.consumerKey != "" {
		req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("path", path), zap.Error(err))
		return errors.Wrapf(errors.TypeTransport, err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.TypeTransport, err, "decoding %s response", path)
	}
	return nil
}

// statusError maps a non-2xx response to a typed error. Client errors with
// a decodable backend message become business rejections carrying that
// message verbatim; everything else is a transport failure.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" &&
		resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return errors.Business(apiErr.Message).
			WithContext("status", resp.StatusCode).
			WithContext("code", apiErr.Code)
	}

	return errors.Newf(errors.TypeTransport, "%s %s returned status %d", method, path, resp.StatusCode).
		WithContext("status", resp.StatusCode).
		WithContext("body", strings.TrimSpace(string(data)))
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

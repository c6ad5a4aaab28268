package commerce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"challenge-checkout/core/commerce"
	"challenge-checkout/core/commerce/commercetest"
	"challenge-checkout/internal/config"
	"challenge-checkout/internal/errors"
)

func newTestClient(t *testing.T, baseURL string) *commerce.Client {
	t.Helper()
	client, err := commerce.NewClient(config.CommerceConfig{
		BaseURL:           baseURL,
		TimeoutSeconds:    5,
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := commerce.NewClient(config.CommerceConfig{})
	if err == nil {
		t.Fatal("Expected error for empty base URL")
	}
	if !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestAddItemSharesSession(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	cart, err := client.AddItem(ctx, 101, 1)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Name != "One-Step Challenge $10K" {
		t.Errorf("Unexpected item name %q", cart.Items[0].Name)
	}
	if !cart.Items[0].Price.Equal(decimal.RequireFromString("99.00")) {
		t.Errorf("Unexpected price %s", cart.Items[0].Price)
	}

	// The cookie jar must carry the session to the next call
	cart, err = client.Cart(ctx)
	if err != nil {
		t.Fatalf("Cart failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("Session not shared across calls: cart has %d items", len(cart.Items))
	}
}

func TestClearCartRemovesEveryItem(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	if _, err := client.AddItem(ctx, 101, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := client.AddItem(ctx, 201, 1); err != nil {
		t.Fatal(err)
	}

	if err := client.ClearCart(ctx); err != nil {
		t.Fatalf("ClearCart failed: %v", err)
	}
	if got := backend.Calls(commercetest.OpRemoveItem); got != 2 {
		t.Errorf("Expected one remove call per item (2), got %d", got)
	}

	cart, err := client.Cart(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}
}

func TestApplyCouponDiscountsTotals(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	backend.SetProduct(301, "Plain Challenge", "100.00")
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	if _, err := client.AddItem(ctx, 301, 1); err != nil {
		t.Fatal(err)
	}
	cart, err := client.ApplyCoupon(ctx, "SAVE10")
	if err != nil {
		t.Fatalf("ApplyCoupon failed: %v", err)
	}

	if !cart.Totals.TotalDiscount.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected discount 10.00, got %s", cart.Totals.TotalDiscount)
	}
	if !cart.Totals.TotalPrice.Equal(decimal.RequireFromString("90.00")) {
		t.Errorf("Expected total 90.00, got %s", cart.Totals.TotalPrice)
	}
	if len(cart.Coupons) != 1 || cart.Coupons[0].Code != "SAVE10" {
		t.Errorf("Expected SAVE10 in coupons, got %+v", cart.Coupons)
	}
}

func TestInvalidCouponIsBusinessRejection(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	if _, err := client.AddItem(ctx, 101, 1); err != nil {
		t.Fatal(err)
	}
	_, err := client.ApplyCoupon(ctx, "NOPE")
	if err == nil {
		t.Fatal("Expected error for invalid coupon")
	}
	if !errors.IsType(err, errors.TypeBusiness) {
		t.Errorf("Expected business error, got %v", err)
	}
	// Backend message surfaces verbatim
	if e, ok := err.(*errors.Error); !ok || e.Message != "The coupon code is not valid or has expired" {
		t.Errorf("Expected verbatim backend message, got %v", err)
	}
}

func TestServerFailureIsTransportError(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	backend.FailNext(commercetest.OpCart, http.StatusInternalServerError)
	_, err := client.Cart(ctx)
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !errors.IsType(err, errors.TypeTransport) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestChallengeRules(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	rules, err := client.ChallengeRules(ctx, "one_step_10k")
	if err != nil {
		t.Fatalf("ChallengeRules failed: %v", err)
	}
	if rules["profitTarget"] == "" {
		t.Errorf("Expected profitTarget rule, got %v", rules)
	}

	if _, err := client.ChallengeRules(ctx, "missing_key"); err == nil {
		t.Error("Expected error for unknown rules key")
	}
}

func TestCheckoutReturnsRedirect(t *testing.T) {
	backend := commercetest.NewSeeded()
	defer backend.Close()
	client := newTestClient(t, backend.URL())
	ctx := context.Background()

	if _, err := client.AddItem(ctx, 101, 1); err != nil {
		t.Fatal(err)
	}

	billing := commerce.BillingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+44 20 0000 0000",
		Country:   "GB",
	}
	resp, err := client.Checkout(ctx, billing, "stripe")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if resp.OrderID == 0 {
		t.Error("Expected non-zero order id")
	}
	if resp.Redirect() == "" {
		t.Error("Expected a redirect URL")
	}
}

// TestWireShapes pins the exact request bodies sent to the backend.
func TestWireShapes(t *testing.T) {
	type captured struct {
		method string
		path   string
		body   map[string]interface{}
	}
	var calls []captured

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls = append(calls, captured{method: r.Method, path: r.URL.Path, body: body})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[],"totals":{"total_price":"0","total_discount":"0","currency_code":"USD"},"coupons":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	if _, err := client.AddItem(ctx, 101, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := client.UpdateItem(ctx, "k1", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := client.RemoveItem(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.ApplyCoupon(ctx, "SAVE10"); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		path string
		body map[string]interface{}
	}{
		{"/wp-json/wc/store/cart/add-item", map[string]interface{}{"id": float64(101), "quantity": float64(1)}},
		{"/wp-json/wc/store/cart/update-item", map[string]interface{}{"key": "k1", "quantity": float64(2)}},
		{"/wp-json/wc/store/cart/remove-item", map[string]interface{}{"key": "k1"}},
		{"/wp-json/wc/store/cart/apply-coupon", map[string]interface{}{"code": "SAVE10"}},
	}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d calls, got %d", len(want), len(calls))
	}
	for i, w := range want {
		if calls[i].method != http.MethodPost {
			t.Errorf("call %d: expected POST, got %s", i, calls[i].method)
		}
		if calls[i].path != w.path {
			t.Errorf("call %d: expected path %s, got %s", i, w.path, calls[i].path)
		}
		for k, v := range w.body {
			if calls[i].body[k] != v {
				t.Errorf("call %d: field %s = %v, want %v", i, k, calls[i].body[k], v)
			}
		}
	}
}

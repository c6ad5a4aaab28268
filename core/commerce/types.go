// Package commerce - Commerce backend client types
// Wire shapes of the backend's Store API. Monetary fields arrive as JSON
// strings and are parsed into decimals; the backend remains authoritative
// for every amount.
package commerce

import (
	"github.com/shopspring/decimal"
)

// CartItem is a single line item in the remote cart
type CartItem struct {
	// Key is the backend-assigned line item key
	Key string `json:"key"`

	// ID is the remote product id
	ID int64 `json:"id"`

	// Quantity is the line quantity
	Quantity int `json:"quantity"`

	// Name is the product display name
	Name string `json:"name"`

	// Price is the unit price
	Price decimal.Decimal `json:"price"`
}

// CartTotals holds the backend-computed totals
type CartTotals struct {
	// TotalPrice is the amount due after discounts
	TotalPrice decimal.Decimal `json:"total_price"`

	// TotalDiscount is the applied discount amount
	TotalDiscount decimal.Decimal `json:"total_discount"`

	// CurrencyCode is the ISO currency code
	CurrencyCode string `json:"currency_code"`
}

// CouponTotals holds per-coupon discount totals
type CouponTotals struct {
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// Coupon is an applied coupon as reported by the backend
type Coupon struct {
	Code         string       `json:"code"`
	DiscountType string       `json:"discount_type"`
	Totals       CouponTotals `json:"totals"`
}

// Cart is the remote session cart. It is owned by the backend; callers hold
// read-only snapshots refreshed after every mutating call.
type Cart struct {
	Items   []CartItem `json:"items"`
	Totals  CartTotals `json:"totals"`
	Coupons []Coupon   `json:"coupons"`
}

// ProductIDs returns the product ids of all line items in order
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// HasItems reports whether the cart holds at least one line item
func (c *Cart) HasItems() bool {
	return c != nil && len(c.Items) > 0
}

// BillingAddress is the checkout billing block
type BillingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// CheckoutRequest is the body of a checkout submission
type CheckoutRequest struct {
	BillingAddress BillingAddress `json:"billing_address"`
	PaymentMethod  string         `json:"payment_method"`
}

// PaymentResult carries the payment gateway hand-off
type PaymentResult struct {
	RedirectURL string `json:"redirect_url"`
}

// CheckoutResponse is the backend's reply to a checkout submission
type CheckoutResponse struct {
	OrderID       int64          `json:"order_id"`
	Status        string         `json:"status"`
	PaymentResult *PaymentResult `json:"payment_result,omitempty"`
	RedirectURL   string         `json:"redirect_url,omitempty"`
}

// Redirect returns the URL the flow must hand off to: the payment gateway
// redirect when present, otherwise the post-purchase redirect. Empty when
// the backend supplied neither.
func (r *CheckoutResponse) Redirect() string {
	if r.PaymentResult != nil && r.PaymentResult.RedirectURL != "" {
		return r.PaymentResult.RedirectURL
	}
	return r.RedirectURL
}

// Rules maps a rule name to its display string for a challenge tier
type Rules map[string]string

// apiError is the backend's error envelope
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Request bodies for cart mutations.

type addItemRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type updateItemRequest struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

type removeItemRequest struct {
	Key string `json:"key"`
}

type couponRequest struct {
	Code string `json:"code"`
}

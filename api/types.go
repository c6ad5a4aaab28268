// Package api - Storefront session API types
// These types define the contract between the presentation layer and the
// checkout engine. The API holds no business logic; it proxies sessions to
// reconcilers.
package api

import (
	"challenge-checkout/core/catalog"
	"challenge-checkout/core/checkout"
)

// CreateSessionResponse is the reply to POST /sessions
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SelectionRequest is the body of PUT /sessions/{id}/selection
type SelectionRequest struct {
	ChallengeType   string         `json:"challenge_type"`
	ChallengeAmount string         `json:"challenge_amount"`
	Platform        string         `json:"platform,omitempty"`
	Addons          []string       `json:"addons,omitempty"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	Billing         BillingRequest `json:"billing,omitempty"`
}

// BillingRequest carries buyer details
type BillingRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// CouponRequest is the body of POST /sessions/{id}/coupon
type CouponRequest struct {
	Code string `json:"code"`
}

// SessionState is the reply to GET /sessions/{id}
type SessionState struct {
	SessionID string                `json:"session_id"`
	Selection checkout.Selection    `json:"selection"`
	Syncing   bool                  `json:"syncing"`
	Summary   checkout.OrderSummary `json:"summary"`
	Rules     map[string]string     `json:"rules,omitempty"`
	Notices   []checkout.Notice     `json:"notices,omitempty"`
}

// CheckoutResponse is the reply to POST /sessions/{id}/checkout
type CheckoutResponse struct {
	OrderID     int64  `json:"order_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
}

// CatalogResponse is the reply to GET /catalog
type CatalogResponse struct {
	Challenges []CatalogChallenge       `json:"challenges"`
	Addons     []catalog.AddonMapping   `json:"addons"`
	Gateways   []catalog.PaymentGateway `json:"gateways"`
}

// CatalogChallenge is one purchasable challenge tier
type CatalogChallenge struct {
	ChallengeType   string `json:"challenge_type"`
	ChallengeAmount string `json:"challenge_amount"`
	ProductID       int64  `json:"product_id"`
	RulesKey        string `json:"rules_key"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error code and message
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// toBilling converts the wire shape to the domain shape
func (b BillingRequest) toBilling() checkout.Billing {
	return checkout.Billing{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Email:     b.Email,
		Phone:     b.Phone,
		Country:   b.Country,
	}
}

// Package checkout - Selection-to-cart reconciliation
// Owns the local order configuration and keeps the remote session cart
// mirroring it. The remote cart is the single shared resource; this package
// never mutates its own snapshot without a round trip.
package checkout

import (
	"strings"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/commerce"
	"challenge-checkout/internal/errors"
)

// Billing holds the buyer details submitted at checkout
type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// Validate checks that every required billing field is present. It runs
// before any network call; a failure blocks the checkout locally.
func (b Billing) Validate() error {
	var missing []string
	if strings.TrimSpace(b.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(b.LastName) == "" {
		missing = append(missing, "last name")
	}
	if strings.TrimSpace(b.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(b.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(b.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return errors.Newf(errors.TypeValidation, "missing required billing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// address converts to the backend wire shape
func (b Billing) address() commerce.BillingAddress {
	return commerce.BillingAddress{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Email:     b.Email,
		Phone:     b.Phone,
		Country:   b.Country,
	}
}

// Selection is the current order configuration. It is transient state;
// nothing here is persisted.
type Selection struct {
	ChallengeType   catalog.ChallengeType   `json:"challenge_type"`
	ChallengeAmount catalog.ChallengeAmount `json:"challenge_amount"`
	Platform        catalog.Platform        `json:"platform"`
	Addons          []string                `json:"addons"`
	PaymentMethod   string                  `json:"payment_method"`
	Billing         Billing                 `json:"billing"`
}

// WithAddonToggled returns a copy with the add-on added or removed
func (s Selection) WithAddonToggled(id string) Selection {
	out := s
	out.Addons = make([]string, 0, len(s.Addons)+1)
	found := false
	for _, a := range s.Addons {
		if a == id {
			found = true
			continue
		}
		out.Addons = append(out.Addons, a)
	}
	if !found {
		out.Addons = append(out.Addons, id)
	}
	return out
}

// cartEqual reports whether two selections resolve to the same cart
// contents. Platform, payment method and billing do not affect the cart.
func (s Selection) cartEqual(o Selection) bool {
	if s.ChallengeType != o.ChallengeType || s.ChallengeAmount != o.ChallengeAmount {
		return false
	}
	if len(s.Addons) != len(o.Addons) {
		return false
	}
	for i := range s.Addons {
		if s.Addons[i] != o.Addons[i] {
			return false
		}
	}
	return true
}

// clone deep-copies the selection so callers cannot alias internal state
func (s Selection) clone() Selection {
	out := s
	out.Addons = make([]string, len(s.Addons))
	copy(out.Addons, s.Addons)
	return out
}

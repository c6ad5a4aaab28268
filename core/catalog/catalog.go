// Package catalog - Authoritative product catalog
// Maps storefront selections (challenge type, account size, add-ons) to
// remote commerce product identifiers. This is the source of truth for
// what can be put in the cart.
package catalog

import (
	"github.com/shopspring/decimal"
)

// ChallengeType identifies the evaluation model of a challenge
type ChallengeType string

const (
	OneStep ChallengeType = "one-step"
	TwoStep ChallengeType = "two-step"
)

// String returns string representation
func (t ChallengeType) String() string {
	return string(t)
}

// Valid reports whether the type is a known challenge type
func (t ChallengeType) Valid() bool {
	return t == OneStep || t == TwoStep
}

// ChallengeAmount identifies the account size tier
type ChallengeAmount string

const (
	Amount10K  ChallengeAmount = "10k"
	Amount25K  ChallengeAmount = "25k"
	Amount50K  ChallengeAmount = "50k"
	Amount100K ChallengeAmount = "100k"
)

// String returns string representation
func (a ChallengeAmount) String() string {
	return string(a)
}

// Valid reports whether the amount is a known account size tier
func (a ChallengeAmount) Valid() bool {
	switch a {
	case Amount10K, Amount25K, Amount50K, Amount100K:
		return true
	}
	return false
}

// Platform identifies the trading platform delivered with a challenge
type Platform string

const (
	PlatformMT4     Platform = "mt4"
	PlatformMT5     Platform = "mt5"
	PlatformCTrader Platform = "ctrader"
)

// Valid reports whether the platform is supported
func (p Platform) Valid() bool {
	switch p {
	case PlatformMT4, PlatformMT5, PlatformCTrader:
		return true
	}
	return false
}

// ProductMapping maps a (type, amount) pair to a remote product
type ProductMapping struct {
	// ProductID is the commerce backend's product identifier
	ProductID int64 `json:"product_id"`

	// RulesKey selects the challenge rules served by the backend
	RulesKey string `json:"rules_key"`
}

// AddonMapping maps an add-on id to a remote product with display data
type AddonMapping struct {
	// ID is the storefront add-on identifier
	ID string `json:"id"`

	// ProductID is the commerce backend's product identifier
	ProductID int64 `json:"product_id"`

	// Name is the display name
	Name string `json:"name"`

	// Price is the display price; the backend's cart price is authoritative
	Price decimal.Decimal `json:"price"`
}

// PaymentGateway describes a selectable payment method
type PaymentGateway struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProductSelection is the result of resolving a storefront selection
type ProductSelection struct {
	// MainProduct is nil when the (type, amount) pair is unmapped
	MainProduct *ProductMapping

	// AddonProducts holds the resolvable add-ons in input order
	AddonProducts []AddonMapping

	// AllProductIDs lists every resolved product id, main first
	AllProductIDs []int64
}

// Catalog holds the product mapping tables
type Catalog struct {
	challenges map[ChallengeType]map[ChallengeAmount]ProductMapping
	addons     map[string]AddonMapping
	addonOrder []string
	gateways   []PaymentGateway
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		challenges: make(map[ChallengeType]map[ChallengeAmount]ProductMapping),
		addons:     make(map[string]AddonMapping),
	}
}

// RegisterChallenge adds or replaces a challenge product mapping
func (c *Catalog) RegisterChallenge(t ChallengeType, a ChallengeAmount, m ProductMapping) {
	if c.challenges[t] == nil {
		c.challenges[t] = make(map[ChallengeAmount]ProductMapping)
	}
	c.challenges[t][a] = m
}

// RegisterAddon adds or replaces an add-on mapping
func (c *Catalog) RegisterAddon(m AddonMapping) {
	if _, exists := c.addons[m.ID]; !exists {
		c.addonOrder = append(c.addonOrder, m.ID)
	}
	c.addons[m.ID] = m
}

// RegisterGateway adds a payment gateway
func (c *Catalog) RegisterGateway(g PaymentGateway) {
	c.gateways = append(c.gateways, g)
}

// Challenge returns the mapping for a (type, amount) pair
func (c *Catalog) Challenge(t ChallengeType, a ChallengeAmount) (ProductMapping, bool) {
	m, ok := c.challenges[t][a]
	return m, ok
}

// Addon returns the mapping for an add-on id
func (c *Catalog) Addon(id string) (AddonMapping, bool) {
	m, ok := c.addons[id]
	return m, ok
}

// Addons returns all add-ons in registration order
func (c *Catalog) Addons() []AddonMapping {
	result := make([]AddonMapping, 0, len(c.addonOrder))
	for _, id := range c.addonOrder {
		result = append(result, c.addons[id])
	}
	return result
}

// Gateways returns all payment gateways in registration order
func (c *Catalog) Gateways() []PaymentGateway {
	return c.gateways
}

// Gateway returns the gateway with the given id
func (c *Catalog) Gateway(id string) (PaymentGateway, bool) {
	for _, g := range c.gateways {
		if g.ID == id {
			return g, true
		}
	}
	return PaymentGateway{}, false
}

// Resolve maps a storefront selection to remote products. It fails softly:
// an unmapped (type, amount) pair yields a nil MainProduct and unknown
// add-on ids are dropped, preserving the order of the rest.
func (c *Catalog) Resolve(t ChallengeType, a ChallengeAmount, addons []string) ProductSelection {
	sel := ProductSelection{}

	if m, ok := c.Challenge(t, a); ok {
		sel.MainProduct = &m
		sel.AllProductIDs = append(sel.AllProductIDs, m.ProductID)
	}

	for _, id := range addons {
		if addon, ok := c.addons[id]; ok {
			sel.AddonProducts = append(sel.AddonProducts, addon)
			sel.AllProductIDs = append(sel.AllProductIDs, addon.ProductID)
		}
	}

	return sel
}

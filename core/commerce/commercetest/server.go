// Package commercetest provides an in-memory commerce backend speaking the
// same Store API surface the real backend does. It backs the integration
// tests and the CLI demo mode; it is not a production server.
package commercetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"challenge-checkout/core/commerce"
)

// Operation names used for call counting and failure injection.
const (
	OpCart         = "cart"
	OpAddItem      = "add-item"
	OpUpdateItem   = "update-item"
	OpRemoveItem   = "remove-item"
	OpApplyCoupon  = "apply-coupon"
	OpRemoveCoupon = "remove-coupon"
	OpCheckout     = "checkout"
	OpRules        = "rules"
)

const sessionCookie = "cart_session"

// product is a purchasable item
type product struct {
	name  string
	price decimal.Decimal
}

// coupon is a redeemable discount
type coupon struct {
	discountType string // "fixed_cart" or "percent"
	amount       decimal.Decimal
}

// lineItem is one cart line
type lineItem struct {
	key       string
	productID int64
	quantity  int
}

// session is one cookie-scoped cart
type session struct {
	items   []lineItem
	coupons []string
}

// Server is the fake backend
type Server struct {
	mu       sync.Mutex
	products map[int64]product
	coupons  map[string]coupon
	rules    map[string]commerce.Rules
	sessions map[string]*session
	failures map[string][]int
	calls    map[string]int
	added    []int64
	orderSeq int64

	httpServer *httptest.Server
}

// New starts a fake backend with an empty catalog
func New() *Server {
	s := &Server{
		products: make(map[int64]product),
		coupons:  make(map[string]coupon),
		rules:    make(map[string]commerce.Rules),
		sessions: make(map[string]*session),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
		orderSeq: 1000,
	}
	s.httpServer = httptest.NewServer(s.handler())
	return s
}

// NewSeeded starts a fake backend preloaded with the default challenge and
// add-on products, a SAVE10 percent coupon, and rules for every tier.
func NewSeeded() *Server {
	s := New()
	s.SetProduct(101, "One-Step Challenge $10K", "99.00")
	s.SetProduct(102, "One-Step Challenge $25K", "189.00")
	s.SetProduct(103, "One-Step Challenge $50K", "299.00")
	s.SetProduct(104, "One-Step Challenge $100K", "499.00")
	s.SetProduct(105, "Two-Step Challenge $10K", "79.00")
	s.SetProduct(106, "Two-Step Challenge $25K", "159.00")
	s.SetProduct(107, "Two-Step Challenge $50K", "249.00")
	s.SetProduct(108, "Two-Step Challenge $100K", "399.00")
	s.SetProduct(201, "Expert Advisor Support", "25.00")
	s.SetProduct(202, "Weekend Holding", "15.00")
	s.SetProduct(203, "One-Time Reset", "35.00")
	s.SetCoupon("SAVE10", "percent", "10")
	for _, key := range []string{
		"one_step_10k", "one_step_25k", "one_step_50k", "one_step_100k",
		"two_step_10k", "two_step_25k", "two_step_50k", "two_step_100k",
	} {
		s.SetRules(key, commerce.Rules{
			"profitTarget":   "8%",
			"maxDrawdown":    "10%",
			"dailyDrawdown":  "5%",
			"tradingPeriod":  "Unlimited",
			"minTradingDays": "5 days",
		})
	}
	return s
}

// URL returns the backend base URL
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the backend down
func (s *Server) Close() {
	s.httpServer.Close()
}

// SetProduct registers a purchasable product
func (s *Server) SetProduct(id int64, name, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = product{name: name, price: decimal.RequireFromString(price)}
}

// SetCoupon registers a redeemable coupon. discountType is "fixed_cart" or
// "percent"; amount is a currency amount or a percentage accordingly.
func (s *Server) SetCoupon(code, discountType, amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[strings.ToUpper(code)] = coupon{discountType: discountType, amount: decimal.RequireFromString(amount)}
}

// SetRules registers challenge rules for a rules key
func (s *Server) SetRules(key string, rules commerce.Rules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[key] = rules
}

// FailNext makes the next call to the named operation fail with the status
func (s *Server) FailNext(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], status)
}

// Calls returns how many times an operation has been invoked
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// AddedProducts returns every product id passed to add-item, in call order
func (s *Server) AddedProducts() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.added))
	copy(out, s.added)
	return out
}

// ResetCounters clears call counts and the add-item record
func (s *Server) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
	s.added = nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wc/store/cart", s.handleCart)
	mux.HandleFunc("POST /wp-json/wc/store/cart/add-item", s.handleAddItem)
	mux.HandleFunc("POST /wp-json/wc/store/cart/update-item", s.handleUpdateItem)
	mux.HandleFunc("POST /wp-json/wc/store/cart/remove-item", s.handleRemoveItem)
	mux.HandleFunc("POST /wp-json/wc/store/cart/apply-coupon", s.handleApplyCoupon)
	mux.HandleFunc("POST /wp-json/wc/store/cart/remove-coupon", s.handleRemoveCoupon)
	mux.HandleFunc("POST /wp-json/wc/store/checkout", s.handleCheckout)
	mux.HandleFunc("GET /wp-json/custom/v1/challenge-rules/{key}", s.handleRules)
	return mux
}

// begin records the call, resolves the session, and applies any injected
// failure. It returns nil when the request has already been answered.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, op string) *session {
	s.mu.Lock()
	s.calls[op]++
	if statuses := s.failures[op]; len(statuses) > 0 {
		status := statuses[0]
		s.failures[op] = statuses[1:]
		s.mu.Unlock()
		writeError(w, status, "injected_failure", "injected failure")
		return nil
	}

	id := ""
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = cookie.Value
	}
	if id == "" || s.sessions[id] == nil {
		if id == "" {
			id = uuid.NewString()
		}
		s.sessions[id] = &session{}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/"})
	}
	sess := s.sessions[id]
	s.mu.Unlock()
	return sess
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpCart)
	if sess == nil {
		return
	}
	s.writeCart(w, sess)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpAddItem)
	if sess == nil {
		return
	}
	var req struct {
		ID       int64 `json:"id"`
		Quantity int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s.mu.Lock()
	if _, ok := s.products[req.ID]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "product_not_found", "product does not exist")
		return
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	s.added = append(s.added, req.ID)
	sess.items = append(sess.items, lineItem{key: uuid.NewString(), productID: req.ID, quantity: qty})
	s.mu.Unlock()

	s.writeCart(w, sess)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpUpdateItem)
	if sess == nil {
		return
	}
	var req struct {
		Key      string `json:"key"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s.mu.Lock()
	found := false
	for i := range sess.items {
		if sess.items[i].key == req.Key {
			sess.items[i].quantity = req.Quantity
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "item_not_found", "cart item does not exist")
		return
	}
	s.writeCart(w, sess)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpRemoveItem)
	if sess == nil {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s.mu.Lock()
	kept := sess.items[:0]
	for _, item := range sess.items {
		if item.key != req.Key {
			kept = append(kept, item)
		}
	}
	sess.items = kept
	s.mu.Unlock()

	s.writeCart(w, sess)
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpApplyCoupon)
	if sess == nil {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	s.mu.Lock()
	if _, ok := s.coupons[code]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid_coupon", "The coupon code is not valid or has expired")
		return
	}
	already := false
	for _, applied := range sess.coupons {
		if applied == code {
			already = true
			break
		}
	}
	if !already {
		sess.coupons = append(sess.coupons, code)
	}
	s.mu.Unlock()

	s.writeCart(w, sess)
}

func (s *Server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpRemoveCoupon)
	if sess == nil {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	s.mu.Lock()
	kept := sess.coupons[:0]
	for _, applied := range sess.coupons {
		if applied != code {
			kept = append(kept, applied)
		}
	}
	sess.coupons = kept
	s.mu.Unlock()

	s.writeCart(w, sess)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := s.begin(w, r, OpCheckout)
	if sess == nil {
		return
	}
	var req commerce.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s.mu.Lock()
	if len(sess.items) == 0 {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "empty_cart", "Cannot check out an empty cart")
		return
	}
	if req.BillingAddress.Email == "" || req.BillingAddress.FirstName == "" {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "missing_billing", "Billing details are incomplete")
		return
	}
	if req.PaymentMethod == "" {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "missing_payment", "A payment method is required")
		return
	}
	s.orderSeq++
	orderID := s.orderSeq
	sess.items = nil
	sess.coupons = nil
	s.mu.Unlock()

	resp := commerce.CheckoutResponse{
		OrderID: orderID,
		Status:  "pending",
		PaymentResult: &commerce.PaymentResult{
			RedirectURL: s.httpServer.URL + "/pay/" + req.PaymentMethod,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls[OpRules]++
	if statuses := s.failures[OpRules]; len(statuses) > 0 {
		status := statuses[0]
		s.failures[OpRules] = statuses[1:]
		s.mu.Unlock()
		writeError(w, status, "injected_failure", "injected failure")
		return
	}
	rules, ok := s.rules[r.PathValue("key")]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "no_rules", "Challenge rules not found")
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// writeCart renders the session cart with backend-computed totals
func (s *Server) writeCart(w http.ResponseWriter, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := commerce.Cart{Items: []commerce.CartItem{}, Coupons: []commerce.Coupon{}}
	subtotal := decimal.Zero
	for _, item := range sess.items {
		p := s.products[item.productID]
		lineTotal := p.price.Mul(decimal.NewFromInt(int64(item.quantity)))
		subtotal = subtotal.Add(lineTotal)
		cart.Items = append(cart.Items, commerce.CartItem{
			Key:      item.key,
			ID:       item.productID,
			Quantity: item.quantity,
			Name:     p.name,
			Price:    p.price,
		})
	}

	discount := decimal.Zero
	for _, code := range sess.coupons {
		c := s.coupons[code]
		var d decimal.Decimal
		if c.discountType == "percent" {
			d = subtotal.Mul(c.amount).Div(decimal.NewFromInt(100)).Round(2)
		} else {
			d = c.amount
		}
		discount = discount.Add(d)
		cart.Coupons = append(cart.Coupons, commerce.Coupon{
			Code:         code,
			DiscountType: c.discountType,
			Totals:       commerce.CouponTotals{TotalDiscount: d},
		})
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	cart.Totals = commerce.CartTotals{
		TotalPrice:    subtotal.Sub(discount),
		TotalDiscount: discount,
		CurrencyCode:  "USD",
	}
	writeJSON(w, http.StatusOK, cart)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}

package checkout

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/commerce"
	"challenge-checkout/internal/errors"
	"challenge-checkout/internal/logging"
)

// Backend is the remote cart as seen by the reconciler: a single external
// resource shared across the whole session. Implementations must not assume
// request affinity beyond the session cookie they carry.
type Backend interface {
	Cart(ctx context.Context) (*commerce.Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) (*commerce.Cart, error)
	UpdateItem(ctx context.Context, itemKey string, quantity int) (*commerce.Cart, error)
	RemoveItem(ctx context.Context, itemKey string) (*commerce.Cart, error)
	ApplyCoupon(ctx context.Context, code string) (*commerce.Cart, error)
	RemoveCoupon(ctx context.Context, code string) (*commerce.Cart, error)
	Checkout(ctx context.Context, billing commerce.BillingAddress, paymentMethod string) (*commerce.CheckoutResponse, error)
	ChallengeRules(ctx context.Context, rulesKey string) (commerce.Rules, error)
}

// Reconciler keeps the remote cart mirroring the local selection and derives
// the displayed order summary from the last fetched snapshot.
//
// Every reconciliation run captures a generation number at start. A run's
// snapshot is applied only while its generation is still the latest, and a
// run abandons its remaining cart mutations as soon as it observes a newer
// generation. That keeps a stale run's late responses from overwriting the
// state produced by a newer one, including a stale clear landing after a
// newer add.
type Reconciler struct {
	backend Backend
	catalog *catalog.Catalog
	log     *zap.Logger

	mu         sync.Mutex
	notifier   Notifier
	sel        Selection
	cart       *commerce.Cart
	rules      commerce.Rules
	rulesKey   string
	rulesCache map[string]commerce.Rules
	generation uint64
	syncing    int

	wg sync.WaitGroup
}

// NewReconciler creates a reconciler over a backend and catalog
func NewReconciler(backend Backend, cat *catalog.Catalog) *Reconciler {
	return &Reconciler{
		backend:    backend,
		catalog:    cat,
		log:        logging.With(zap.String("component", "reconciler")),
		rulesCache: make(map[string]commerce.Rules),
	}
}

// OnNotice installs the notice callback
func (r *Reconciler) OnNotice(fn Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = fn
}

// Start loads the initial cart snapshot and reconciles the given selection.
// It corresponds to mounting the checkout flow.
func (r *Reconciler) Start(ctx context.Context, sel Selection) {
	r.mu.Lock()
	r.sel = sel.clone()
	r.mu.Unlock()

	if cart, err := r.backend.Cart(ctx); err != nil {
		r.log.Warn("initial cart load failed", zap.Error(err))
		r.notify(NoticeError, "Error", "Failed to load cart data")
	} else {
		r.mu.Lock()
		r.cart = cart
		r.mu.Unlock()
	}

	r.startSync(ctx)
	r.startRulesFetch(ctx)
}

// SetSelection replaces the selection and triggers whatever the change
// requires: a cart reconciliation when the resolved products changed, a
// rules refetch when the challenge tier changed.
func (r *Reconciler) SetSelection(ctx context.Context, sel Selection) {
	r.mu.Lock()
	prev := r.sel
	r.sel = sel.clone()
	r.mu.Unlock()

	if !prev.cartEqual(sel) {
		r.startSync(ctx)
	}
	if prev.ChallengeType != sel.ChallengeType || prev.ChallengeAmount != sel.ChallengeAmount {
		r.startRulesFetch(ctx)
	}
}

// Selection returns a copy of the current selection
func (r *Reconciler) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel.clone()
}

// Syncing reports whether a reconciliation run is in flight
func (r *Reconciler) Syncing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncing > 0
}

// Cart returns the last fetched cart snapshot, nil before the first fetch
func (r *Reconciler) Cart() *commerce.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cart
}

// Summary derives the order summary from the last cart snapshot
func (r *Reconciler) Summary() OrderSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return summarize(r.cart)
}

// Rules returns the challenge rules for the current tier, nil when the
// fetch failed or has not completed
func (r *Reconciler) Rules() commerce.Rules {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules
}

// Wait blocks until every in-flight reconciliation and rules fetch settles
func (r *Reconciler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startSync launches a reconciliation run under a fresh generation
func (r *Reconciler) startSync(ctx context.Context) {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	sel := r.sel.clone()
	r.syncing++
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, gen, sel)
}

// run executes one reconciliation: clear the remote cart, add the resolved
// main product, add each addon in order, then fetch and store the snapshot.
func (r *Reconciler) run(ctx context.Context, gen uint64, sel Selection) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		r.syncing--
		r.mu.Unlock()
	}()

	resolved := r.catalog.Resolve(sel.ChallengeType, sel.ChallengeAmount, sel.Addons)
	if resolved.MainProduct == nil {
		// Validation failure: no network call is issued
		r.log.Warn("no product mapped for selection",
			zap.String("type", sel.ChallengeType.String()),
			zap.String("amount", sel.ChallengeAmount.String()))
		r.failIfCurrent(gen, "Invalid selection", "No product is configured for this challenge")
		return
	}

	cart, err := r.backend.Cart(ctx)
	if err != nil {
		r.syncFailed(gen, err)
		return
	}
	for _, item := range cart.Items {
		if r.stale(gen) {
			return
		}
		if _, err := r.backend.RemoveItem(ctx, item.Key); err != nil {
			r.syncFailed(gen, err)
			return
		}
	}

	if r.stale(gen) {
		return
	}
	if _, err := r.backend.AddItem(ctx, resolved.MainProduct.ProductID, 1); err != nil {
		r.syncFailed(gen, err)
		return
	}
	for _, addon := range resolved.AddonProducts {
		if r.stale(gen) {
			return
		}
		if _, err := r.backend.AddItem(ctx, addon.ProductID, 1); err != nil {
			r.syncFailed(gen, err)
			return
		}
	}

	fresh, err := r.backend.Cart(ctx)
	if err != nil {
		r.syncFailed(gen, err)
		return
	}
	if !r.applyCart(gen, fresh) {
		return
	}
	r.notify(NoticeInfo, "Cart Updated", "Your selection has been updated in the cart")
}

// stale reports whether a newer reconciliation has started since gen
func (r *Reconciler) stale(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen != r.generation
}

// applyCart stores the snapshot unless the run is stale
func (r *Reconciler) applyCart(gen uint64, cart *commerce.Cart) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	r.cart = cart
	return true
}

// syncFailed handles a failed run: the previous snapshot stays in place and
// exactly one failure notice is produced, unless a newer run owns the
// outcome by now.
func (r *Reconciler) syncFailed(gen uint64, err error) {
	r.log.Warn("cart reconciliation failed", zap.Uint64("generation", gen), zap.Error(err))
	r.failIfCurrent(gen, "Error", "Failed to update cart")
}

func (r *Reconciler) failIfCurrent(gen uint64, title, message string) {
	if r.stale(gen) {
		return
	}
	r.notify(NoticeError, title, message)
}

// startRulesFetch loads the challenge rules for the current tier
func (r *Reconciler) startRulesFetch(ctx context.Context) {
	r.mu.Lock()
	sel := r.sel
	r.mu.Unlock()

	resolved := r.catalog.Resolve(sel.ChallengeType, sel.ChallengeAmount, nil)
	if resolved.MainProduct == nil {
		return
	}
	key := resolved.MainProduct.RulesKey

	r.mu.Lock()
	if cached, ok := r.rulesCache[key]; ok {
		r.rules = cached
		r.rulesKey = key
		r.mu.Unlock()
		return
	}
	r.rulesKey = key
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		rules, err := r.backend.ChallengeRules(ctx, key)
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			// Rules degrade silently to the static fallback
			r.log.Debug("challenge rules fetch failed", zap.String("rules_key", key), zap.Error(err))
			if r.rulesKey == key {
				r.rules = nil
			}
			return
		}
		r.rulesCache[key] = rules
		if r.rulesKey == key {
			r.rules = rules
		}
	}()
}

// ApplyCoupon applies a coupon code. Empty or whitespace input is never
// sent to the backend; it only clears the currently applied coupons.
func (r *Reconciler) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return r.RemoveCoupons(ctx)
	}

	if _, err := r.backend.ApplyCoupon(ctx, code); err != nil {
		r.log.Warn("coupon apply failed", zap.String("code", code), zap.Error(err))
		r.notify(NoticeError, "Invalid Coupon", backendMessage(err))
		return err
	}
	r.refresh(ctx)
	r.notify(NoticeInfo, "Coupon Applied", "Discount applied successfully")
	return nil
}

// RemoveCoupons issues one removal per currently applied coupon code
func (r *Reconciler) RemoveCoupons(ctx context.Context) error {
	r.mu.Lock()
	var codes []string
	if r.cart != nil {
		for _, c := range r.cart.Coupons {
			codes = append(codes, c.Code)
		}
	}
	r.mu.Unlock()

	if len(codes) == 0 {
		return nil
	}
	for _, code := range codes {
		if _, err := r.backend.RemoveCoupon(ctx, code); err != nil {
			r.log.Warn("coupon removal failed", zap.String("code", code), zap.Error(err))
			r.notify(NoticeError, "Error", "Failed to remove coupon")
			return err
		}
	}
	r.refresh(ctx)
	r.notify(NoticeInfo, "Coupon Removed", "Discount has been removed")
	return nil
}

// Checkout validates locally, submits the order, and returns the backend's
// response. A redirect URL in the response ends the flow: the caller hands
// the buyer off to the payment gateway or thank-you page.
func (r *Reconciler) Checkout(ctx context.Context) (*commerce.CheckoutResponse, error) {
	r.mu.Lock()
	sel := r.sel.clone()
	cart := r.cart
	r.mu.Unlock()

	if err := sel.Billing.Validate(); err != nil {
		r.notify(NoticeError, "Checkout Error", err.(*errors.Error).Message)
		return nil, err
	}
	if sel.PaymentMethod == "" {
		err := errors.Validation("a payment method is required")
		r.notify(NoticeError, "Checkout Error", err.Message)
		return nil, err
	}
	if !cart.HasItems() {
		err := errors.Validation("cart is empty")
		r.notify(NoticeError, "Checkout Error", err.Message)
		return nil, err
	}

	resp, err := r.backend.Checkout(ctx, sel.Billing.address(), sel.PaymentMethod)
	if err != nil {
		r.log.Warn("checkout failed", zap.Error(err))
		r.notify(NoticeError, "Checkout Error", backendMessage(err))
		return nil, err
	}

	r.log.Info("checkout accepted",
		zap.Int64("order_id", resp.OrderID),
		zap.String("status", resp.Status))
	return resp, nil
}

// refresh re-fetches the cart snapshot after a coupon change. The snapshot
// is discarded if a reconciliation started in the meantime.
func (r *Reconciler) refresh(ctx context.Context) {
	r.mu.Lock()
	gen := r.generation
	r.mu.Unlock()

	cart, err := r.backend.Cart(ctx)
	if err != nil {
		r.log.Warn("cart refresh failed", zap.Error(err))
		return
	}
	r.applyCart(gen, cart)
}

// notify delivers a notice to the installed callback
func (r *Reconciler) notify(level NoticeLevel, title, message string) {
	r.mu.Lock()
	fn := r.notifier
	r.mu.Unlock()
	if fn != nil {
		fn(Notice{Level: level, Title: title, Message: message})
	}
}

// backendMessage extracts the backend's message for business rejections,
// falling back to a generic notice for transport failures.
func backendMessage(err error) string {
	if e, ok := err.(*errors.Error); ok && e.Type == errors.TypeBusiness {
		return e.Message
	}
	return "The request could not be completed. Please try again."
}

var _ Backend = (*commerce.Client)(nil)

package checkout_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"challenge-checkout/core/commerce"
)

// scriptedBackend is an in-process Backend whose Cart calls can be gated,
// so tests can freeze one reconciliation run while another proceeds.
type scriptedBackend struct {
	mu           sync.Mutex
	items        []commerce.CartItem
	addedIDs     []int64
	nCart        int
	nCheckout    int
	keySeq       int
	gates        []chan struct{}
	blockedCarts int
}

// gateNextCart makes the next Cart call block until the channel is closed
func (b *scriptedBackend) gateNextCart() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	gate := make(chan struct{})
	b.gates = append(b.gates, gate)
	return gate
}

func (b *scriptedBackend) waitForBlockedCart(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		blocked := b.blockedCarts
		b.mu.Unlock()
		if blocked > 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for a blocked cart call")
}

func (b *scriptedBackend) waitForAdds(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(b.added()) >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d add calls, have %v", n, b.added())
}

func (b *scriptedBackend) added() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, len(b.addedIDs))
	copy(out, b.addedIDs)
	return out
}

func (b *scriptedBackend) itemIDs() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int64
	for _, item := range b.items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (b *scriptedBackend) cartCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nCart
}

func (b *scriptedBackend) checkoutCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nCheckout
}

// snapshot renders the current cart with trivially computed totals
func (b *scriptedBackend) snapshot() *commerce.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	cart := &commerce.Cart{Items: make([]commerce.CartItem, len(b.items))}
	copy(cart.Items, b.items)
	total := decimal.Zero
	for _, item := range b.items {
		total = total.Add(item.Price)
	}
	cart.Totals = commerce.CartTotals{TotalPrice: total, CurrencyCode: "USD"}
	return cart
}

func (b *scriptedBackend) Cart(ctx context.Context) (*commerce.Cart, error) {
	b.mu.Lock()
	b.nCart++
	var gate chan struct{}
	if len(b.gates) > 0 {
		gate = b.gates[0]
		b.gates = b.gates[1:]
		b.blockedCarts++
	}
	b.mu.Unlock()

	if gate != nil {
		<-gate
		b.mu.Lock()
		b.blockedCarts--
		b.mu.Unlock()
	}
	return b.snapshot(), nil
}

func (b *scriptedBackend) AddItem(ctx context.Context, productID int64, quantity int) (*commerce.Cart, error) {
	b.mu.Lock()
	b.keySeq++
	b.addedIDs = append(b.addedIDs, productID)
	b.items = append(b.items, commerce.CartItem{
		Key:      fmt.Sprintf("k%d", b.keySeq),
		ID:       productID,
		Quantity: quantity,
		Name:     fmt.Sprintf("product-%d", productID),
		Price:    decimal.NewFromInt(10),
	})
	b.mu.Unlock()
	return b.snapshot(), nil
}

func (b *scriptedBackend) UpdateItem(ctx context.Context, itemKey string, quantity int) (*commerce.Cart, error) {
	b.mu.Lock()
	for i := range b.items {
		if b.items[i].Key == itemKey {
			b.items[i].Quantity = quantity
		}
	}
	b.mu.Unlock()
	return b.snapshot(), nil
}

func (b *scriptedBackend) RemoveItem(ctx context.Context, itemKey string) (*commerce.Cart, error) {
	b.mu.Lock()
	kept := b.items[:0]
	for _, item := range b.items {
		if item.Key != itemKey {
			kept = append(kept, item)
		}
	}
	b.items = kept
	b.mu.Unlock()
	return b.snapshot(), nil
}

func (b *scriptedBackend) ApplyCoupon(ctx context.Context, code string) (*commerce.Cart, error) {
	return b.snapshot(), nil
}

func (b *scriptedBackend) RemoveCoupon(ctx context.Context, code string) (*commerce.Cart, error) {
	return b.snapshot(), nil
}

func (b *scriptedBackend) Checkout(ctx context.Context, billing commerce.BillingAddress, paymentMethod string) (*commerce.CheckoutResponse, error) {
	b.mu.Lock()
	b.nCheckout++
	b.mu.Unlock()
	return &commerce.CheckoutResponse{
		OrderID:     1,
		Status:      "pending",
		RedirectURL: "https://example.com/thank-you",
	}, nil
}

func (b *scriptedBackend) ChallengeRules(ctx context.Context, rulesKey string) (commerce.Rules, error) {
	return commerce.Rules{"profitTarget": "8%"}, nil
}

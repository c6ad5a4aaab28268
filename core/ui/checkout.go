// Package ui - Interactive checkout runner with live progress
package ui

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/checkout"
	"challenge-checkout/core/commerce"
)

// CheckoutRunner drives a checkout flow with live UI feedback
type CheckoutRunner struct {
	w          *Writer
	reconciler *checkout.Reconciler
}

// NewCheckoutRunner creates a runner
func NewCheckoutRunner(w *Writer, rec *checkout.Reconciler) *CheckoutRunner {
	return &CheckoutRunner{w: w, reconciler: rec}
}

// Sync applies a selection and waits for the cart to settle
func (r *CheckoutRunner) Sync(ctx context.Context, sel checkout.Selection) error {
	spinner := r.w.NewSpinner("Syncing cart...")
	spinner.Start()

	r.reconciler.SetSelection(ctx, sel)
	err := r.reconciler.Wait(ctx)

	spinner.Stop(err == nil)
	return err
}

// DisplaySelection shows the current selection
func (r *CheckoutRunner) DisplaySelection(sel checkout.Selection) {
	r.w.Header("Challenge Selection")
	table := r.w.NewTable("Field", "Value")
	table.AddRow("Type", string(sel.ChallengeType))
	table.AddRow("Account Size", string(sel.ChallengeAmount))
	if sel.Platform != "" {
		table.AddRow("Platform", string(sel.Platform))
	}
	if len(sel.Addons) > 0 {
		table.AddRow("Add-ons", strings.Join(sel.Addons, ", "))
	}
	if sel.PaymentMethod != "" {
		table.AddRow("Payment", sel.PaymentMethod)
	}
	table.Render()
}

// DisplaySummary shows the order summary
func (r *CheckoutRunner) DisplaySummary(summary checkout.OrderSummary) {
	r.w.Header("Order Summary")

	if len(summary.Items) == 0 {
		r.w.Info("Cart is empty")
		return
	}

	table := r.w.NewTable("Item", "Price")
	for _, item := range summary.Items {
		table.AddRow(item.Name, item.Price.StringFixed(2)+" "+summary.Currency)
	}
	table.Render()

	r.w.Println("")
	r.w.Println("  Subtotal: %s %s", summary.Subtotal.StringFixed(2), summary.Currency)
	if summary.Discount.IsPositive() {
		r.w.Println(r.w.color(Green, "  Discount: -%s %s (%d%%)"),
			summary.Discount.StringFixed(2), summary.Currency, summary.DiscountPercent())
	}
	r.w.Println(r.w.color(Bold, "  Total:    %s %s"), summary.Total.StringFixed(2), summary.Currency)
}

// DisplayRules shows challenge rules for the selected tier
func (r *CheckoutRunner) DisplayRules(rules commerce.Rules) {
	if len(rules) == 0 {
		return
	}

	r.w.Header("Challenge Rules")
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := r.w.NewTable("Rule", "Value")
	for _, k := range keys {
		table.AddRow(k, rules[k])
	}
	table.Render()
}

// DisplayCatalog shows purchasable challenges and add-ons
func (r *CheckoutRunner) DisplayCatalog(cat *catalog.Catalog) {
	r.w.Header("Available Challenges")
	table := r.w.NewTable("Type", "Account Size", "Product ID")
	for _, ct := range []catalog.ChallengeType{catalog.OneStep, catalog.TwoStep} {
		for _, amt := range []catalog.ChallengeAmount{catalog.Amount10K, catalog.Amount25K, catalog.Amount50K, catalog.Amount100K} {
			if m, ok := cat.Challenge(ct, amt); ok {
				table.AddRow(string(ct), string(amt), strconv.FormatInt(m.ProductID, 10))
			}
		}
	}
	table.Render()

	addons := cat.Addons()
	if len(addons) > 0 {
		r.w.Println("")
		r.w.SubHeader("Add-ons")
		addonTable := r.w.NewTable("ID", "Name", "Price")
		for _, a := range addons {
			addonTable.AddRow(a.ID, a.Name, a.Price.StringFixed(2))
		}
		addonTable.Render()
	}

	gateways := cat.Gateways()
	if len(gateways) > 0 {
		r.w.Println("")
		r.w.SubHeader("Payment Methods")
		for _, g := range gateways {
			r.w.Println("  %s - %s", g.ID, g.Title)
		}
	}
}

// Notice renders a reconciler notice
func (r *CheckoutRunner) Notice(n checkout.Notice) {
	switch n.Level {
	case checkout.NoticeError:
		r.w.Error("%s: %s", n.Title, n.Message)
	default:
		r.w.Info("%s: %s", n.Title, n.Message)
	}
}

// DisplayCheckoutResult shows the checkout hand-off
func (r *CheckoutRunner) DisplayCheckoutResult(resp *commerce.CheckoutResponse) {
	r.w.Println("")
	r.w.Success("Order #%d placed (%s)", resp.OrderID, resp.Status)
	if url := resp.Redirect(); url != "" {
		r.w.Println("")
		r.w.Println(r.w.color(Bold, "Complete payment at:"))
		r.w.Println("  %s", url)
	}
}

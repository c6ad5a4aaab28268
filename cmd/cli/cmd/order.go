// Package cmd - order command
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/checkout"
	"challenge-checkout/core/commerce"
	"challenge-checkout/core/commerce/commercetest"
	"challenge-checkout/core/ui"
	"challenge-checkout/internal/config"
)

var (
	orderType     string
	orderAmount   string
	orderPlatform string
	orderAddons   []string
	orderCoupon   string
	orderPayment  string
	orderCheckout bool
	orderDemo     bool

	billFirstName string
	billLastName  string
	billEmail     string
	billPhone     string
	billCountry   string
)

// orderCmd represents the order command
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Build and place a challenge order",
	Long: `Resolve a challenge selection to store products, sync the remote
cart, and optionally complete checkout.

Examples:
  challenge-checkout order --type one-step --amount 10k
  challenge-checkout order --type two-step --amount 50k --addons ea-support,reset-option
  challenge-checkout order --type one-step --amount 25k --coupon SAVE10 \
    --checkout --payment stripe --first-name Ada --last-name Lovelace \
    --email ada@example.com --phone +4400000 --country GB
  challenge-checkout order --demo --type one-step --amount 10k`,
	RunE: runOrder,
}

func init() {
	orderCmd.Flags().StringVarP(&orderType, "type", "t", "", "challenge type (one-step, two-step)")
	orderCmd.Flags().StringVarP(&orderAmount, "amount", "a", "", "account size (10k, 25k, 50k, 100k)")
	orderCmd.Flags().StringVarP(&orderPlatform, "platform", "p", "", "trading platform (mt4, mt5, ctrader)")
	orderCmd.Flags().StringSliceVar(&orderAddons, "addons", nil, "add-on IDs, comma separated")
	orderCmd.Flags().StringVar(&orderCoupon, "coupon", "", "coupon code to apply")
	orderCmd.Flags().StringVar(&orderPayment, "payment", "", "payment gateway ID")
	orderCmd.Flags().BoolVar(&orderCheckout, "checkout", false, "complete checkout after syncing")
	orderCmd.Flags().BoolVar(&orderDemo, "demo", false, "run against a local in-memory store")

	orderCmd.Flags().StringVar(&billFirstName, "first-name", "", "billing first name")
	orderCmd.Flags().StringVar(&billLastName, "last-name", "", "billing last name")
	orderCmd.Flags().StringVar(&billEmail, "email", "", "billing email")
	orderCmd.Flags().StringVar(&billPhone, "phone", "", "billing phone")
	orderCmd.Flags().StringVar(&billCountry, "country", "", "billing country code")

	orderCmd.MarkFlagRequired("type")
	orderCmd.MarkFlagRequired("amount")
}

func runOrder(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	w := ui.NewWriter(os.Stdout, noColor)
	if verbose {
		w.SetVerbosity(2)
	}

	sel := checkout.Selection{
		ChallengeType:   catalog.ChallengeType(strings.ToLower(orderType)),
		ChallengeAmount: catalog.ChallengeAmount(strings.ToLower(orderAmount)),
		Platform:        catalog.Platform(strings.ToLower(orderPlatform)),
		Addons:          orderAddons,
		PaymentMethod:   orderPayment,
		Billing: checkout.Billing{
			FirstName: billFirstName,
			LastName:  billLastName,
			Email:     billEmail,
			Phone:     billPhone,
			Country:   billCountry,
		},
	}
	if !sel.ChallengeType.Valid() {
		return fmt.Errorf("unknown challenge type %q (one-step, two-step)", orderType)
	}
	if !sel.ChallengeAmount.Valid() {
		return fmt.Errorf("unknown account size %q (10k, 25k, 50k, 100k)", orderAmount)
	}
	if orderPlatform != "" && !sel.Platform.Valid() {
		return fmt.Errorf("unknown platform %q (mt4, mt5, ctrader)", orderPlatform)
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	commerceCfg := config.Get().Commerce
	if orderDemo {
		store := commercetest.NewSeeded()
		defer store.Close()
		commerceCfg.BaseURL = store.URL()
		w.Info("Demo mode: using a local in-memory store")
	}

	client, err := commerce.NewClient(commerceCfg)
	if err != nil {
		return err
	}

	rec := checkout.NewReconciler(client, cat)
	runner := ui.NewCheckoutRunner(w, rec)
	rec.OnNotice(runner.Notice)

	runner.DisplaySelection(sel)
	if err := runner.Sync(ctx, sel); err != nil {
		return err
	}

	if orderCoupon != "" {
		if err := rec.ApplyCoupon(ctx, orderCoupon); err != nil {
			return err
		}
	}

	runner.DisplaySummary(rec.Summary())
	runner.DisplayRules(rec.Rules())

	if !orderCheckout {
		return nil
	}

	resp, err := rec.Checkout(ctx)
	if err != nil {
		return err
	}
	runner.DisplayCheckoutResult(resp)
	return nil
}

// Package cmd - rules command
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/commerce"
	"challenge-checkout/core/ui"
	"challenge-checkout/internal/config"
)

var (
	rulesType   string
	rulesAmount string
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show challenge rules for a tier",
	Long: `Fetch the trading rules for a challenge tier from the store.

Examples:
  challenge-checkout rules --type one-step --amount 10k
  challenge-checkout rules -t two-step -a 100k`,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesType, "type", "t", "", "challenge type (one-step, two-step)")
	rulesCmd.Flags().StringVarP(&rulesAmount, "amount", "a", "", "account size (10k, 25k, 50k, 100k)")
	rulesCmd.MarkFlagRequired("type")
	rulesCmd.MarkFlagRequired("amount")
}

func runRules(cmd *cobra.Command, args []string) error {
	ct := catalog.ChallengeType(strings.ToLower(rulesType))
	amt := catalog.ChallengeAmount(strings.ToLower(rulesAmount))
	if !ct.Valid() {
		return fmt.Errorf("unknown challenge type %q (one-step, two-step)", rulesType)
	}
	if !amt.Valid() {
		return fmt.Errorf("unknown account size %q (10k, 25k, 50k, 100k)", rulesAmount)
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	mapping, ok := cat.Challenge(ct, amt)
	if !ok {
		return fmt.Errorf("no product mapped for %s %s", ct, amt)
	}

	client, err := commerce.NewClient(config.Get().Commerce)
	if err != nil {
		return err
	}

	rules, err := client.ChallengeRules(context.Background(), mapping.RulesKey)
	if err != nil {
		return err
	}

	w := ui.NewWriter(os.Stdout, noColor)
	runner := ui.NewCheckoutRunner(w, nil)
	runner.DisplayRules(rules)
	return nil
}

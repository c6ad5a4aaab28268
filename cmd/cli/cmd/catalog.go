// Package cmd - catalog command
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"challenge-checkout/core/ui"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List purchasable challenges, add-ons, and payment methods",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		w := ui.NewWriter(os.Stdout, noColor)
		ui.NewCheckoutRunner(w, nil).DisplayCatalog(cat)
		return nil
	},
}

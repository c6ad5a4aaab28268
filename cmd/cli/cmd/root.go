// Package cmd provides the CLI commands for challenge-checkout.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"challenge-checkout/core/catalog"
	"challenge-checkout/internal/config"
	"challenge-checkout/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "challenge-checkout",
	Short: "Purchase trading challenge accounts",
	Long: `challenge-checkout drives the checkout flow for trading challenge
products against a WooCommerce store.

It resolves a challenge selection to store products, keeps the remote
cart in sync, applies coupons, and hands off to the payment gateway.

Examples:
  challenge-checkout catalog
  challenge-checkout rules --type one-step --amount 10k
  challenge-checkout order --type two-step --amount 50k --addons ea-support
  challenge-checkout serve --addr :8080`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.challenge-checkout.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Credentials commonly live in a .env next to the working directory
	_ = godotenv.Load()

	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + "/.challenge-checkout.json"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// loadCatalog returns the product catalog, with file overrides when
// configured
func loadCatalog() (*catalog.Catalog, error) {
	path := config.Get().Catalog.Path
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("challenge-checkout version %s\n", Version)
	},
}

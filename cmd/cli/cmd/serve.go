// Package cmd - serve command
package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"challenge-checkout/api"
	"challenge-checkout/core/commerce/commercetest"
	"challenge-checkout/internal/config"
	"challenge-checkout/internal/logging"
)

var (
	serveAddr string
	serveMock bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront API server",
	Long: `Serve the checkout session API over HTTP.

Examples:
  challenge-checkout serve
  challenge-checkout serve --addr :9090
  challenge-checkout serve --mock`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveMock, "mock", false, "serve against a local in-memory store")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	if serveMock {
		store := commercetest.NewSeeded()
		defer store.Close()
		cfg.Commerce.BaseURL = store.URL()
		logging.Info("mock mode: using a local in-memory store",
			zap.String("store", store.URL()))
	}

	server := api.NewServer(Version, cfg, cat)

	logging.Info("storefront API listening",
		zap.String("addr", addr),
		zap.String("backend", cfg.Commerce.BaseURL))
	fmt.Printf("Storefront API listening on %s\n", addr)

	return http.ListenAndServe(addr, server)
}

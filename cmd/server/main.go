// Package main - Entry point for the standalone storefront API server
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"challenge-checkout/api"
	"challenge-checkout/core/catalog"
	"challenge-checkout/internal/config"
	"challenge-checkout/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "Server address (default from config)")
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("initializing logging: %v", err)
	}
	defer logging.Sync()

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Fatalf("loading catalog: %v", err)
		}
	}

	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	apiServer := api.NewServer(version, cfg, cat)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	fmt.Printf("Challenge checkout server v%s\n", version)
	fmt.Printf("   API: http://localhost%s/api\n", listen)
	fmt.Println()

	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Fatal(err)
	}
}

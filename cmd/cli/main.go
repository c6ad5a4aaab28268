// Package main is the entry point for the challenge-checkout CLI.
package main

import (
	"os"

	"challenge-checkout/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

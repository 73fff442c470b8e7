// Package main provides the entry point for the Profile Reconciler.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile_agent",
	Short: "Canonical Profile Reconciler",
	Long:  "Profile Reconciler merges noisy work-history and skill fragments extracted from multiple documents into one deduplicated canonical profile per user.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/db"
	"github.com/jonathan/profile-reconciler/internal/observability"
	"github.com/spf13/cobra"
)

var (
	showUserID     string
	showConfigPath string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a user's stored canonical profile",
	Long:  `Read the last-persisted canonical profile for a user without recomputing it.`,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showUserID, "user", "", "User UUID (required)")
	showCmd.Flags().StringVar(&showConfigPath, "config", "", "Path to JSON config file")
	_ = showCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(showUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", showUserID, err)
	}

	cfg, err := loadMergedConfig(showConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	result, err := database.GetCanonicalProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintCanonicalExperiences(result.Experiences)
	printer.PrintCanonicalSkills(result.Skills)
	return nil
}

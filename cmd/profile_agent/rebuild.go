package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/observability"
	"github.com/spf13/cobra"
)

var (
	rebuildUserID     string
	rebuildConfigPath string
	rebuildVerbose    bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild one user's canonical profile",
	Long:  `Fetch all raw experience and skill fragments for a user, run entity resolution, and replace the stored canonical profile.`,
	RunE:  runRebuild,
}

func init() {
	rebuildCmd.Flags().StringVar(&rebuildUserID, "user", "", "User UUID (required)")
	rebuildCmd.Flags().StringVar(&rebuildConfigPath, "config", "", "Path to JSON config file")
	rebuildCmd.Flags().BoolVar(&rebuildVerbose, "verbose", false, "Print detailed rebuild summary")
	_ = rebuildCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(rebuildUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", rebuildUserID, err)
	}

	cfg, err := loadMergedConfig(rebuildConfigPath)
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

	database, embedder, rebuilder, err := openRebuilder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRebuilderDeps(database, embedder)

	result, err := rebuilder.CanonicalizeProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("rebuild failed for %s: %w", userID, err)
	}

	printer := observability.NewPrinter(os.Stdout)
	if rebuildVerbose || cfg.Verbose {
		printer.PrintCanonicalExperiences(result.Experiences)
		printer.PrintCanonicalSkills(result.Skills)
	}
	printer.PrintRebuildSummary(result)
	return nil
}

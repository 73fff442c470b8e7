package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/observability"
	"github.com/jonathan/profile-reconciler/internal/schemas"
	"github.com/jonathan/profile-reconciler/internal/types"
	"github.com/spf13/cobra"
)

var (
	ingestUserID     string
	ingestFilePath   string
	ingestConfigPath string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Bulk-load raw fragments from a JSON file and rebuild",
	Long:  `Validate a raw profile import file, insert its experiences and skills as raw fragments for the user, then rebuild the canonical profile once.`,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUserID, "user", "", "User UUID (required)")
	ingestCmd.Flags().StringVar(&ingestFilePath, "file", "", "Path to import JSON file (required)")
	ingestCmd.Flags().StringVar(&ingestConfigPath, "config", "", "Path to JSON config file")
	_ = ingestCmd.MarkFlagRequired("user")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(ingestUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", ingestUserID, err)
	}

	data, err := os.ReadFile(ingestFilePath)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	if err := schemas.ValidateRawImport(data); err != nil {
		return err
	}

	var doc types.RawImport
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(doc.Experiences) == 0 && len(doc.Skills) == 0 {
		return fmt.Errorf("import file contains no experiences or skills")
	}

	cfg, err := loadMergedConfig(ingestConfigPath)
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

	if err := database.EnsureUser(ctx, userID); err != nil {
		return err
	}
	for i := range doc.Experiences {
		if _, err := database.CreateRawExperience(ctx, userID, &doc.Experiences[i]); err != nil {
			return fmt.Errorf("failed to insert experience %d: %w", i, err)
		}
	}
	for i := range doc.Skills {
		if _, err := database.CreateRawSkill(ctx, userID, &doc.Skills[i]); err != nil {
			return fmt.Errorf("failed to insert skill %d: %w", i, err)
		}
	}
	fmt.Printf("Loaded %d experiences and %d skills for %s\n",
		len(doc.Experiences), len(doc.Skills), userID)

	result, err := rebuilder.CanonicalizeProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("rebuild failed for %s: %w", userID, err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRebuildSummary(result)
	return nil
}

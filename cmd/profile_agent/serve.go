package main

import (
	"fmt"
	"os"

	"github.com/jonathan/profile-reconciler/internal/config"
	"github.com/jonathan/profile-reconciler/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes profile rebuild and read endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	srv, err := server.New(server.Config{
		Port:                servePort,
		DatabaseURL:         cfg.DatabaseURL,
		APIKey:              cfg.APIKey,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MaxBullets:          cfg.MaxBullets,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// loadMergedConfig layers the optional config file under environment variables.
// Env vars win for secrets.
func loadMergedConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	env := config.Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	}
	merged := env.MergeWithDefaults(*cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

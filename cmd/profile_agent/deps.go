package main

import (
	"context"

	"github.com/jonathan/profile-reconciler/internal/canonicalize"
	"github.com/jonathan/profile-reconciler/internal/config"
	"github.com/jonathan/profile-reconciler/internal/db"
	"github.com/jonathan/profile-reconciler/internal/dedupe"
	"github.com/jonathan/profile-reconciler/internal/llm"
	"github.com/jonathan/profile-reconciler/internal/profile"
)

// openRebuilder wires the database, optional embedder, and grouping engine for
// one-shot CLI commands. Callers own closing the returned database and embedder.
func openRebuilder(ctx context.Context, cfg *config.Config) (*db.DB, llm.Embedder, *profile.Rebuilder, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var embedder llm.Embedder
	if cfg.APIKey != "" {
		embedder, err = llm.NewEmbedder(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			database.Close()
			return nil, nil, nil, err
		}
	}

	engine := canonicalize.NewEngine(dedupe.NewEmbeddingDeduper())
	if cfg.SimilarityThreshold > 0 {
		engine.SimilarityThreshold = cfg.SimilarityThreshold
	}
	if cfg.MaxBullets > 0 {
		engine.MaxBullets = cfg.MaxBullets
	}

	return database, embedder, profile.NewRebuilder(database, engine, embedder), nil
}

func closeRebuilderDeps(database *db.DB, embedder llm.Embedder) {
	if embedder != nil {
		_ = embedder.Close()
	}
	database.Close()
}

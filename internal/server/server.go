// Package server provides the HTTP REST API for the profile reconciler.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/canonicalize"
	"github.com/jonathan/profile-reconciler/internal/db"
	"github.com/jonathan/profile-reconciler/internal/dedupe"
	"github.com/jonathan/profile-reconciler/internal/llm"
	"github.com/jonathan/profile-reconciler/internal/profile"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// ProfileService is the rebuild surface the handlers talk to.
// *profile.Rebuilder satisfies it.
type ProfileService interface {
	CanonicalizeProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error)
	GetCanonicalProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error)
	AddExperience(ctx context.Context, userID uuid.UUID, req *types.CreateExperienceRequest) (*types.RawExperience, *types.CanonicalProfile, error)
	RemoveExperience(ctx context.Context, experienceID uuid.UUID) (*types.CanonicalProfile, error)
	AddSkill(ctx context.Context, userID uuid.UUID, req *types.CreateSkillRequest) (*types.RawSkill, *types.CanonicalProfile, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	db         *db.DB
	svc        ProfileService
	embedder   llm.Embedder
}

// Config holds server configuration
type Config struct {
	Port                int
	DatabaseURL         string
	APIKey              string // optional; empty disables embedding backfill
	SimilarityThreshold float64
	MaxBullets          int
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var embedder llm.Embedder
	if cfg.APIKey != "" {
		embedder, err = llm.NewEmbedder(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	} else {
		log.Println("No API key configured; bullets will be persisted without embeddings")
	}

	engine := canonicalize.NewEngine(dedupe.NewEmbeddingDeduper())
	if cfg.SimilarityThreshold > 0 {
		engine.SimilarityThreshold = cfg.SimilarityThreshold
	}
	if cfg.MaxBullets > 0 {
		engine.MaxBullets = cfg.MaxBullets
	}

	s := &Server{
		db:       database,
		svc:      profile.NewRebuilder(database, engine, embedder),
		embedder: embedder,
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Canonical profile endpoints
	mux.HandleFunc("POST /users/{id}/profile/rebuild", s.handleRebuildProfile)
	mux.HandleFunc("GET /users/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("GET /users/{id}/profile/experiences", s.handleGetProfileExperiences)
	mux.HandleFunc("GET /users/{id}/profile/skills", s.handleGetProfileSkills)

	// Manual raw-record edits (each triggers a rebuild)
	mux.HandleFunc("POST /users/{id}/experiences", s.handleCreateExperience)
	mux.HandleFunc("DELETE /experiences/{id}", s.handleDeleteExperience)
	mux.HandleFunc("POST /users/{id}/skills", s.handleCreateSkill)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // rebuilds call out to the embedding provider
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.embedder != nil {
		_ = s.embedder.Close()
	}
	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profile-reconciler/internal/types"
)

var validate = validator.New()

// handleRebuildProfile recomputes and replaces the user's canonical profile
func (s *Server) handleRebuildProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := s.svc.CanonicalizeProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Rebuild failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGetProfile returns the last-persisted canonical profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := s.svc.GetCanonicalProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGetProfileExperiences returns only the merged timeline
func (s *Server) handleGetProfileExperiences(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := s.svc.GetCanonicalProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"experiences": profile.Experiences,
		"count":       len(profile.Experiences),
	})
}

// handleGetProfileSkills returns only the weighted skill list
func (s *Server) handleGetProfileSkills(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := s.svc.GetCanonicalProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"skills": profile.Skills,
		"count":  len(profile.Skills),
	})
}

// handleCreateExperience records a manual experience edit and rebuilds
func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req types.CreateExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	exp, profile, err := s.svc.AddExperience(r.Context(), userID, &req)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to add experience: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"experience": exp,
		"profile":    profile,
	})
}

// handleDeleteExperience deletes a raw experience and rebuilds the owner's profile
func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	experienceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid experience ID")
		return
	}

	profile, err := s.svc.RemoveExperience(r.Context(), experienceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.errorResponse(w, http.StatusNotFound, "Experience not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete experience: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleCreateSkill records a manual skill edit and rebuilds
func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req types.CreateSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	skill, profile, err := s.svc.AddSkill(r.Context(), userID, &req)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to add skill: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"skill":   skill,
		"profile": profile,
	})
}

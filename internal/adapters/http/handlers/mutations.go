package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/longregen/gepa/internal/application/services"
	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

// MutationsHandler exposes the mutation pipeline over HTTP.
type MutationsHandler struct {
	service *services.MutationService
	repo    ports.MutationRoundRepository
}

func NewMutationsHandler(service *services.MutationService, repo ports.MutationRoundRepository) *MutationsHandler {
	return &MutationsHandler{service: service, repo: repo}
}

type createMutationRequest struct {
	Prompt     string             `json:"prompt"`
	Reflection string             `json:"reflection"`
	Format     string             `json:"format,omitempty"`
	Task       *models.TaskConfig `json:"task,omitempty"`
}

// Create runs one mutation round for the given prompt and reflection.
func (h *MutationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[createMutationRequest](r, w)
	if !ok {
		return
	}
	if req.Prompt == "" {
		respondError(w, "invalid_request", "prompt is required", http.StatusBadRequest)
		return
	}
	if req.Reflection == "" {
		respondError(w, "invalid_request", "reflection is required", http.StatusBadRequest)
		return
	}

	format := models.FormatText
	if req.Format == string(models.FormatJSON) {
		format = models.FormatJSON
	}
	resp := models.ReflectionResponse{
		Content:   req.Reflection,
		Format:    format,
		Timestamp: time.Now().UTC(),
	}

	round, err := h.service.RunRound(r.Context(), req.Prompt, resp, req.Task)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPrompt) || errors.Is(err, domain.ErrJSONParse) ||
			errors.Is(err, domain.ErrInsufficientSuggestions) {
			respondError(w, "unprocessable", err.Error(), http.StatusUnprocessableEntity)
			return
		}
		var de *domain.DomainError
		if errors.As(err, &de) && de.Code != "" {
			respondError(w, de.Code, de.Message, http.StatusInternalServerError)
			return
		}
		respondError(w, "internal_error", "mutation round failed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, round, http.StatusCreated)
}

// Get returns one round by id.
func (h *MutationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, "not_configured", "round persistence is not configured", http.StatusNotImplemented)
		return
	}

	id := chi.URLParam(r, "id")
	round, err := h.repo.GetRound(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRoundNotFound) {
			respondError(w, "not_found", "round not found", http.StatusNotFound)
			return
		}
		respondError(w, "internal_error", "failed to load round", http.StatusInternalServerError)
		return
	}
	respondJSON(w, round, http.StatusOK)
}

// List returns recent rounds, optionally filtered by status.
func (h *MutationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, "not_configured", "round persistence is not configured", http.StatusNotImplemented)
		return
	}

	opts := ports.ListRoundsOptions{
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	}
	rounds, err := h.repo.ListRounds(r.Context(), opts)
	if err != nil {
		respondError(w, "internal_error", "failed to list rounds", http.StatusInternalServerError)
		return
	}
	respondJSON(w, rounds, http.StatusOK)
}

// Best returns the highest-fitness completed round.
func (h *MutationsHandler) Best(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, "not_configured", "round persistence is not configured", http.StatusNotImplemented)
		return
	}

	round, err := h.repo.GetBestRound(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRoundNotFound) {
			respondError(w, "not_found", "no completed rounds", http.StatusNotFound)
			return
		}
		respondError(w, "internal_error", "failed to load round", http.StatusInternalServerError)
		return
	}
	respondJSON(w, round, http.StatusOK)
}

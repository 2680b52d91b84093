package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/service"
)

// OnboardingHandler обрабатывает эндпоинты мастера онбординга
type OnboardingHandler struct {
	onboardingService *service.OnboardingService
}

// NewOnboardingHandler создает новый OnboardingHandler
func NewOnboardingHandler(onboardingService *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
	}
}

// AdvanceRequest представляет ответы текущего шага
type AdvanceRequest struct {
	Answers map[string]any `json:"answers"`
}

// State обрабатывает GET /members/{id}/onboarding
func (h *OnboardingHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.onboardingService.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, state)
}

// Advance обрабатывает POST /members/{id}/onboarding/advance. Пустое тело допустимо
func (h *OnboardingHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.onboardingService.Advance(r.Context(), actor(r), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, state)
}

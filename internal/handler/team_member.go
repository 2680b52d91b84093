package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/service"
)

// TeamMemberHandler обрабатывает эндпоинты сотрудников участников
type TeamMemberHandler struct {
	teamService *service.TeamMemberService
}

// NewTeamMemberHandler создает новый TeamMemberHandler
func NewTeamMemberHandler(teamService *service.TeamMemberService) *TeamMemberHandler {
	return &TeamMemberHandler{
		teamService: teamService,
	}
}

// ListByOwner обрабатывает GET /members/{id}/team-members
func (h *TeamMemberHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	members, err := h.teamService.ListByOwner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"data": members})
}

// Create обрабатывает POST /members/{id}/team-members
func (h *TeamMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTeamMemberInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tm, err := h.teamService.Create(r.Context(), actor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, tm)
}

// List обрабатывает GET /team-members
func (h *TeamMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.teamService.List(r.Context(), listFilterFromQuery(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Update обрабатывает PATCH /team-members/{id}
func (h *TeamMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}

	tm, err := h.teamService.Update(r.Context(), actor(r), chi.URLParam(r, "id"), fields)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, tm)
}

// Delete обрабатывает DELETE /team-members/{id}
func (h *TeamMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

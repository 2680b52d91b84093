package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/service"
)

// MemberHandler обрабатывает эндпоинты участников
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler создает новый MemberHandler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// List обрабатывает GET /members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.memberService.List(r.Context(), listFilterFromQuery(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Get обрабатывает GET /members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, member)
}

// Create обрабатывает POST /members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMemberInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.memberService.Create(r.Context(), actor(r), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, member)
}

// Update обрабатывает PATCH /members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}

	member, err := h.memberService.Update(r.Context(), actor(r), chi.URLParam(r, "id"), fields)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, member)
}

// Delete обрабатывает DELETE /members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.memberService.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cancel обрабатывает POST /members/{id}/cancel
func (h *MemberHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req service.CancelInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cancellation, err := h.memberService.Cancel(r.Context(), actor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, cancellation)
}

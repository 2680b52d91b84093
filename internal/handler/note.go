package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/service"
)

// NoteHandler обрабатывает эндпоинты заметок
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler создает новый NoteHandler
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
	}
}

// List обрабатывает GET /notes?member_id=...|application_id=...
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := h.noteService.List(r.Context(), q.Get("member_id"), q.Get("application_id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{"data": notes})
}

// Create обрабатывает POST /notes. Автор берется из JWT
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNoteInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), actor(r), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, note)
}

// Delete обрабатывает DELETE /notes/{id}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.noteService.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

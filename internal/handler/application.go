package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/service"
)

// ApplicationHandler обрабатывает эндпоинты заявок
type ApplicationHandler struct {
	appService *service.ApplicationService
}

// NewApplicationHandler создает новый ApplicationHandler
func NewApplicationHandler(appService *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		appService: appService,
	}
}

// UpdateStatusRequest представляет тело запроса на смену статуса
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=2000"`
}

// ConvertResponse представляет ответ на конвертацию заявки
type ConvertResponse struct {
	Member      *domain.BusinessOwner `json:"member"`
	Application *domain.Application   `json:"application"`
}

// List обрабатывает GET /applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.appService.List(r.Context(), listFilterFromQuery(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Get обрабатывает GET /applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.appService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, app)
}

// Create обрабатывает POST /applications
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateApplicationInput
	if !decodeAndValidate(w, r, &req) {
		return
	}

	app, err := h.appService.Create(r.Context(), actor(r), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, app)
}

// Update обрабатывает PATCH /applications/{id}
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}

	app, err := h.appService.Update(r.Context(), actor(r), chi.URLParam(r, "id"), fields)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, app)
}

// UpdateStatus обрабатывает PATCH /applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	app, err := h.appService.UpdateStatus(r.Context(), actor(r), chi.URLParam(r, "id"), domain.ApplicationStatus(req.Status), req.Reason)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, app)
}

// Convert обрабатывает POST /applications/{id}/convert
func (h *ApplicationHandler) Convert(w http.ResponseWriter, r *http.Request) {
	member, app, err := h.appService.Convert(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, ConvertResponse{Member: member, Application: app})
}

// Delete обрабатывает DELETE /applications/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.appService.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

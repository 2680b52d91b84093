package handler

import (
	"net/http"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/service"
)

// ActivityHandler обрабатывает журнал активности и список отмен
type ActivityHandler struct {
	activityService *service.ActivityService
}

// NewActivityHandler создает новый ActivityHandler
func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// List обрабатывает GET /activity?entity_type=&entity_id=
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ActivityFilter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Page:       pageFromQuery(r),
	}

	result, err := h.activityService.List(r.Context(), filter)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Cancellations обрабатывает GET /cancellations
func (h *ActivityHandler) Cancellations(w http.ResponseWriter, r *http.Request) {
	result, err := h.activityService.Cancellations(r.Context(), pageFromQuery(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

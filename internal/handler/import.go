package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/service"
)

// maxImportSize ограничивает размер загружаемого CSV
const maxImportSize = 10 << 20

// ImportHandler обрабатывает загрузку CSV
type ImportHandler struct {
	importService *service.ImportService
}

// NewImportHandler создает новый ImportHandler
func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// Upload обрабатывает POST /import/{kind} с multipart полем file
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := domain.ImportKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeBadRequest), "kind must be one of members, applications, team_members")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondWithError(w, r, http.StatusRequestEntityTooLarge, string(domain.CodeBadRequest), "file too large")
			return
		}
		RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeBadRequest), "multipart field file is required")
		return
	}
	defer file.Close()

	history, err := h.importService.Import(r.Context(), actor(r), kind, header.Filename, file)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, history)
}

// History обрабатывает GET /import/history
func (h *ImportHandler) History(w http.ResponseWriter, r *http.Request) {
	result, err := h.importService.History(r.Context(), pageFromQuery(r))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

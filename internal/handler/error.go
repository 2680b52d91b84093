package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/middleware"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки.
// Fields заполняется только для ошибок валидации: поле -> нарушенное правило
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// RespondWithValidationError отправляет 400 со списком невалидных полей
func RespondWithValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    string(domain.CodeValidation),
			Message: "request validation failed",
			Fields:  fields,
		},
	})
}

// statusForCode возвращает HTTP статус для кода ошибки API
func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// HandleError преобразует доменные ошибки в HTTP ответы.
// Неизвестные ошибки логируются, клиент получает общий текст
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)
	status := statusForCode(code)

	if status == http.StatusInternalServerError {
		middleware.LoggerFromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		RespondWithError(w, r, status, string(code), "internal server error")
		return
	}

	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		message = "resource not found"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken):
		message = "unauthorized"
	}
	RespondWithError(w, r, status, string(code), message)
}

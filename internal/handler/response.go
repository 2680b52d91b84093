package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/middleware"
	"github.com/aidar/member-crm/internal/validator"
)

// maxJSONBody ограничивает размер тела REST запросов
const maxJSONBody = 1 << 20

// RespondWithJSON отправляет JSON ответ с указанным статус кодом
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}

// decodeJSON читает тело запроса в dst. Ошибка уже отправлена клиенту, если вернулось false
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			RespondWithError(w, r, http.StatusRequestEntityTooLarge, string(domain.CodeBadRequest), "request body too large")
		case errors.Is(err, io.EOF):
			RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeBadRequest), "request body is empty")
		default:
			RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeBadRequest), "invalid request body")
		}
		return false
	}
	return true
}

// decodeAndValidate читает тело и проверяет validate теги
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if fields := validator.Validate(dst); fields != nil {
		RespondWithValidationError(w, r, fields)
		return false
	}
	return true
}

// pageFromQuery читает page и limit. Нечисловые значения заменяются значениями
// по умолчанию, выход за границы обрезается
func pageFromQuery(r *http.Request) domain.Page {
	q := r.URL.Query()
	return domain.NewPage(intParam(q.Get("page")), intParam(q.Get("limit")))
}

// listFilterFromQuery читает search, status и пагинацию
func listFilterFromQuery(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	return domain.ListFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: q.Get("status"),
		Page:   pageFromQuery(r),
	}
}

// intParam возвращает 0 для пустого или нечислового значения
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// actor возвращает email сотрудника из JWT
func actor(r *http.Request) string {
	return middleware.GetStaffEmailFromContext(r.Context())
}

package domain

import "errors"

// Доменные ошибки, которые handler переводит в HTTP ответы
var (
	// ErrNotFound возвращается когда ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrEmailExists возвращается при попытке создать запись с уже занятым email
	ErrEmailExists = errors.New("email already exists")

	// ErrDuplicate возвращается при нарушении прочих ограничений уникальности
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidStatus возвращается когда статус не входит в допустимый набор
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNoFields возвращается когда в PATCH запросе нет ни одного разрешенного поля
	ErrNoFields = errors.New("no updatable fields provided")

	// ErrAlreadyConverted возвращается при повторной конвертации заявки
	ErrAlreadyConverted = errors.New("application already converted")

	// ErrCannotConvert возвращается когда заявку нельзя конвертировать в текущем статусе
	ErrCannotConvert = errors.New("application cannot be converted in current status")

	// ErrAlreadyCancelled возвращается при повторной отмене членства
	ErrAlreadyCancelled = errors.New("membership already cancelled")

	// ErrStepNotReady возвращается когда шаг онбординга нельзя завершить
	ErrStepNotReady = errors.New("onboarding step is not ready")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidSignature возвращается когда подпись вебхука не совпала
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload возвращается когда тело вебхука не прошло проверку схемы
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeEmailExists      ErrorCode = "EMAIL_EXISTS"
	CodeDuplicate        ErrorCode = "DUPLICATE"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeNoFields         ErrorCode = "NO_FIELDS"
	CodeAlreadyConverted ErrorCode = "ALREADY_CONVERTED"
	CodeCannotConvert    ErrorCode = "CANNOT_CONVERT"
	CodeAlreadyCancelled ErrorCode = "ALREADY_CANCELLED"
	CodeStepNotReady     ErrorCode = "STEP_NOT_READY"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrEmailExists):
		return CodeEmailExists
	case errors.Is(err, ErrDuplicate):
		return CodeDuplicate
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrNoFields):
		return CodeNoFields
	case errors.Is(err, ErrAlreadyConverted):
		return CodeAlreadyConverted
	case errors.Is(err, ErrCannotConvert):
		return CodeCannotConvert
	case errors.Is(err, ErrAlreadyCancelled):
		return CodeAlreadyCancelled
	case errors.Is(err, ErrStepNotReady):
		return CodeStepNotReady
	case errors.Is(err, ErrInvalidInput):
		return CodeBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidSignature):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidPayload
	default:
		return CodeInternal
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/service"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

const (
	// StaffIDKey ключ контекста для ID сотрудника
	StaffIDKey ContextKey = "staff_id"
	// StaffEmailKey ключ контекста для email сотрудника
	StaffEmailKey ContextKey = "staff_email"
	// StaffRoleKey ключ контекста для роли сотрудника
	StaffRoleKey ContextKey = "staff_role"
)

// AuthMiddleware создает middleware для валидации JWT токенов
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			// Проверяем формат Bearer
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "invalid authorization header format")
				return
			}

			// Валидируем токен
			claims, err := authService.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			// Добавляем claims в контекст
			ctx := context.WithValue(r.Context(), StaffIDKey, claims.StaffID)
			ctx = context.WithValue(ctx, StaffEmailKey, claims.Email)
			ctx = context.WithValue(ctx, StaffRoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}

// GetStaffIDFromContext извлекает ID сотрудника из контекста
func GetStaffIDFromContext(ctx context.Context) string {
	staffID, ok := ctx.Value(StaffIDKey).(string)
	if !ok {
		return ""
	}
	return staffID
}

// GetStaffEmailFromContext извлекает email сотрудника из контекста.
// Email используется как автор заметок и actor в журнале активности.
func GetStaffEmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(StaffEmailKey).(string)
	if !ok {
		return ""
	}
	return email
}

// GetStaffRoleFromContext извлекает роль сотрудника из контекста
func GetStaffRoleFromContext(ctx context.Context) domain.StaffRole {
	role, ok := ctx.Value(StaffRoleKey).(domain.StaffRole)
	if !ok {
		return ""
	}
	return role
}

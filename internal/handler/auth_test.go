package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/service"
)

type staffStub struct {
	users map[string]*domain.StaffUser
}

func (s *staffStub) Create(_ context.Context, u *domain.StaffUser) error {
	s.users[u.Email] = u
	return nil
}

func (s *staffStub) GetByEmail(_ context.Context, email string) (*domain.StaffUser, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &staffStub{users: map[string]*domain.StaffUser{
		"ops@example.com": {ID: "s-1", Email: "ops@example.com", Role: domain.RoleStaff, PasswordHash: string(hash)},
	}}
	return NewAuthHandler(service.NewAuthService(repo, "secret", time.Hour))
}

func TestAuthHandler_Login(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ops@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	h := newAuthHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong password", `{"email":"ops@example.com","password":"nope"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown user", `{"email":"who@example.com","password":"password123"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing password", `{"email":"ops@example.com"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", `{"email":`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestAuthHandler_ValidationFields(t *testing.T) {
	h := newAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-email","password":""}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	detail := decodeError(t, rec)
	assert.Equal(t, "email", detail.Fields["email"])
	assert.Equal(t, "required", detail.Fields["password"])
}

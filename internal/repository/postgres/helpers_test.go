package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/member-crm/internal/domain"
)

func TestBuildUpdate(t *testing.T) {
	allowed := []string{"first_name", "email", "status"}

	query, args, err := buildUpdate("business_owners", allowed, map[string]any{
		"status":     "active",
		"first_name": "Jane",
		"id":         "ignored",
		"password":   "ignored",
	}, "m-1", "id")
	require.NoError(t, err)

	assert.Equal(t, "UPDATE business_owners SET first_name = $1, status = $2, updated_at = NOW() WHERE id = $3 RETURNING id", query)
	assert.Equal(t, []any{"Jane", "active", "m-1"}, args)
}

func TestBuildUpdate_NoAllowedFields(t *testing.T) {
	_, _, err := buildUpdate("applications", []string{"email"}, map[string]any{"status": "x"}, "a-1", "id")
	assert.ErrorIs(t, err, domain.ErrNoFields)
}

func TestWhereBuilder(t *testing.T) {
	var w whereBuilder
	w.search("jan_e", "first_name", "email")
	w.add("status = ?", "new")

	assert.Equal(t, " WHERE (first_name ILIKE $1 OR email ILIKE $1) AND status = $2", w.sql())

	suffix, args := w.page(domain.NewPage(2, 10))
	assert.Equal(t, " LIMIT $3 OFFSET $4", suffix)
	assert.Equal(t, []any{`%jan\_e%`, "new", 10, 10}, args)
	assert.Len(t, w.args, 2)
}

func TestWhereBuilder_Empty(t *testing.T) {
	var w whereBuilder
	w.search("   ", "email")
	assert.Equal(t, "", w.sql())
}

func TestMapWriteError(t *testing.T) {
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "business_owners_email_key"}), domain.ErrEmailExists)
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "applications_external_id_key"}), domain.ErrDuplicate)
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23503"}), domain.ErrNotFound)
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "22P02"}), domain.ErrNotFound)

	plain := errors.New("boom")
	assert.Equal(t, plain, mapWriteError(plain))
}

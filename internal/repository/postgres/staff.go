package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

// StaffRepository реализует repository.StaffRepository для PostgreSQL
type StaffRepository struct {
	db *pgxpool.Pool
}

// NewStaffRepository создает новый экземпляр StaffRepository
func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create создает нового сотрудника
func (r *StaffRepository) Create(ctx context.Context, user *domain.StaffUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}

	query := `
		INSERT INTO staff_users (id, email, name, password_hash, role)
		VALUES ($1, LOWER(TRIM($2)), $3, $4, $5)
		RETURNING email, created_at
	`

	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.Role).
		Scan(&user.Email, &user.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByEmail получает сотрудника по email
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM staff_users
		WHERE email = LOWER(TRIM($1))
	`

	var user domain.StaffUser
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

const teamMemberColumns = `
	id, business_owner_id, first_name, last_name, email, phone, role, status, created_at, updated_at`

// TeamMemberRepository реализует repository.TeamMemberRepository для PostgreSQL
type TeamMemberRepository struct {
	db *pgxpool.Pool
}

// NewTeamMemberRepository создает новый экземпляр TeamMemberRepository
func NewTeamMemberRepository(db *pgxpool.Pool) *TeamMemberRepository {
	return &TeamMemberRepository{db: db}
}

func scanTeamMember(row rowScanner) (*domain.TeamMember, error) {
	var tm domain.TeamMember
	err := row.Scan(
		&tm.ID,
		&tm.BusinessOwnerID,
		&tm.FirstName,
		&tm.LastName,
		&tm.Email,
		&tm.Phone,
		&tm.Role,
		&tm.Status,
		&tm.CreatedAt,
		&tm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tm, nil
}

func collectTeamMembers(rows pgx.Rows) ([]*domain.TeamMember, error) {
	defer rows.Close()

	var members []*domain.TeamMember
	for rows.Next() {
		tm, err := scanTeamMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, tm)
	}
	return members, rows.Err()
}

// Create создает сотрудника участника
func (r *TeamMemberRepository) Create(ctx context.Context, tm *domain.TeamMember) error {
	if tm.ID == "" {
		tm.ID = uuid.NewString()
	}
	if tm.Status == "" {
		tm.Status = domain.TeamMemberInvited
	}

	query := `
		INSERT INTO team_members (id, business_owner_id, first_name, last_name, email, phone, role, status)
		VALUES ($1, $2, $3, $4, LOWER(TRIM($5)), $6, $7, $8)
		RETURNING ` + teamMemberColumns

	created, err := scanTeamMember(r.db.QueryRow(ctx, query,
		tm.ID, tm.BusinessOwnerID, tm.FirstName, tm.LastName, tm.Email, tm.Phone, tm.Role, tm.Status,
	))
	if err != nil {
		// 23503 означает что участника уже нет
		return mapWriteError(err)
	}

	*tm = *created
	return nil
}

// GetByID получает сотрудника по ID
func (r *TeamMemberRepository) GetByID(ctx context.Context, id string) (*domain.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + ` FROM team_members WHERE id = $1`
	return scanTeamMember(r.db.QueryRow(ctx, query, id))
}

// ListByOwner возвращает всех сотрудников участника
func (r *TeamMemberRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + `
		FROM team_members
		WHERE business_owner_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collectTeamMembers(rows)
}

// List возвращает страницу сотрудников всех участников
func (r *TeamMemberRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.TeamMember, int, error) {
	var w whereBuilder
	w.search(filter.Search, "first_name", "last_name", "email", "phone", "role")
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM team_members`+w.sql(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	suffix, args := w.page(filter.Page)
	query := `SELECT ` + teamMemberColumns + ` FROM team_members` + w.sql() +
		` ORDER BY created_at DESC, id` + suffix

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	members, err := collectTeamMembers(rows)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Update обновляет разрешенные поля сотрудника
func (r *TeamMemberRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.TeamMember, error) {
	query, args, err := buildUpdate("team_members", domain.TeamMemberUpdatableFields, fields, id, teamMemberColumns)
	if err != nil {
		return nil, err
	}

	tm, err := scanTeamMember(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return tm, nil
}

// Delete удаляет сотрудника
func (r *TeamMemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

// ActivityRepository реализует repository.ActivityRepository для PostgreSQL
type ActivityRepository struct {
	db *pgxpool.Pool
}

// NewActivityRepository создает новый экземпляр ActivityRepository
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create добавляет запись в журнал
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Details == nil {
		a.Details = map[string]any{}
	}
	if a.Actor == "" {
		a.Actor = "system"
	}

	query := `
		INSERT INTO activity_log (id, entity_type, entity_id, action, actor, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return r.db.QueryRow(ctx, query, a.ID, a.EntityType, a.EntityID, a.Action, a.Actor, a.Details).
		Scan(&a.CreatedAt)
}

// List возвращает страницу журнала, новые записи первыми
func (r *ActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, int, error) {
	var w whereBuilder
	if filter.EntityType != "" {
		w.add("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		w.add("entity_id = ?", filter.EntityID)
	}

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM activity_log`+w.sql(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	suffix, args := w.page(filter.Page)
	query := `
		SELECT id, entity_type, entity_id, action, actor, details, created_at
		FROM activity_log` + w.sql() + `
		ORDER BY created_at DESC, id` + suffix

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.Action, &a.Actor, &a.Details, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

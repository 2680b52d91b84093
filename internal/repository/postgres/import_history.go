package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

// ImportRepository реализует repository.ImportRepository для PostgreSQL
type ImportRepository struct {
	db *pgxpool.Pool
}

// NewImportRepository создает новый экземпляр ImportRepository
func NewImportRepository(db *pgxpool.Pool) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create сохраняет результат импорта
func (r *ImportRepository) Create(ctx context.Context, h *domain.ImportHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Errors == nil {
		h.Errors = []domain.ImportRowError{}
	}

	query := `
		INSERT INTO import_history (id, kind, filename, total_rows, imported, skipped, failed, errors, imported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return r.db.QueryRow(ctx, query,
		h.ID, h.Kind, h.Filename, h.TotalRows, h.Imported, h.Skipped, h.Failed, h.Errors, h.ImportedBy,
	).Scan(&h.CreatedAt)
}

// List возвращает страницу истории импорта
func (r *ImportRepository) List(ctx context.Context, page domain.Page) ([]*domain.ImportHistory, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM import_history`)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, kind, filename, total_rows, imported, skipped, failed, errors, imported_by, created_at
		FROM import_history
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.ImportHistory
	for rows.Next() {
		var h domain.ImportHistory
		if err := rows.Scan(
			&h.ID, &h.Kind, &h.Filename, &h.TotalRows, &h.Imported, &h.Skipped, &h.Failed,
			&h.Errors, &h.ImportedBy, &h.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

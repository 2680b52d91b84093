package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

// CancellationRepository реализует repository.CancellationRepository для PostgreSQL
type CancellationRepository struct {
	db *pgxpool.Pool
}

// NewCancellationRepository создает новый экземпляр CancellationRepository
func NewCancellationRepository(db *pgxpool.Pool) *CancellationRepository {
	return &CancellationRepository{db: db}
}

// List возвращает страницу отмен вместе с именем и email участника
func (r *CancellationRepository) List(ctx context.Context, page domain.Page) ([]*domain.Cancellation, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM cancellations`)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.business_owner_id, c.reason, c.feedback, c.effective_date, c.source,
		       c.processed_by, c.created_at,
		       TRIM(bo.first_name || ' ' || bo.last_name), bo.email
		FROM cancellations c
		JOIN business_owners bo ON bo.id = c.business_owner_id
		ORDER BY c.created_at DESC, c.id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.Cancellation
	for rows.Next() {
		var c domain.Cancellation
		if err := rows.Scan(
			&c.ID, &c.BusinessOwnerID, &c.Reason, &c.Feedback, &c.EffectiveDate, &c.Source,
			&c.ProcessedBy, &c.CreatedAt, &c.MemberName, &c.MemberEmail,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

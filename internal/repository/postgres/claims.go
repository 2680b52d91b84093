package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimStore реализует repository.ClaimStore поверх таблицы webhook_deliveries.
// Используется когда Redis не настроен.
type ClaimStore struct {
	db *pgxpool.Pool
}

// NewClaimStore создает новый экземпляр ClaimStore
func NewClaimStore(db *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{db: db}
}

// Claim занимает доставку. Записи старше ttl считаются истекшими и перезанимаются.
func (s *ClaimStore) Claim(ctx context.Context, provider, deliveryID string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO webhook_deliveries (provider, delivery_id, received_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (provider, delivery_id) DO UPDATE
		SET received_at = NOW()
		WHERE webhook_deliveries.received_at < NOW() - make_interval(secs => $3)
	`

	result, err := s.db.Exec(ctx, query, provider, deliveryID, ttl.Seconds())
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// Release освобождает claim
func (s *ClaimStore) Release(ctx context.Context, provider, deliveryID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM webhook_deliveries WHERE provider = $1 AND delivery_id = $2`, provider, deliveryID)
	return err
}

package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats represents dashboard counters
type Stats struct {
	ApplicationsByStatus    map[string]int `json:"applications_by_status"`
	MembersByStatus         map[string]int `json:"members_by_status"`
	PaymentsByStatus        map[string]int `json:"payments_by_status"`
	TeamMembersTotal        int            `json:"team_members_total"`
	CancellationsLast30Days int            `json:"cancellations_last_30_days"`
	OnboardingCompleted     int            `json:"onboarding_completed"`
	ApplicationsLast7Days   int            `json:"applications_last_7_days"`
}

// StatsService handles statistics queries
type StatsService struct {
	db *pgxpool.Pool
}

// NewStatsService creates a new StatsService
func NewStatsService(db *pgxpool.Pool) *StatsService {
	return &StatsService{db: db}
}

// GetStats returns overall statistics
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var err error

	if stats.ApplicationsByStatus, err = s.groupCount(ctx, `
		SELECT status, COUNT(*) FROM applications GROUP BY status
	`); err != nil {
		return nil, err
	}

	if stats.MembersByStatus, err = s.groupCount(ctx, `
		SELECT status, COUNT(*) FROM business_owners GROUP BY status
	`); err != nil {
		return nil, err
	}

	if stats.PaymentsByStatus, err = s.groupCount(ctx, `
		SELECT payment_status, COUNT(*) FROM business_owners GROUP BY payment_status
	`); err != nil {
		return nil, err
	}

	// Get single-value counters
	totalsQuery := `
		SELECT
			(SELECT COUNT(*) FROM team_members),
			(SELECT COUNT(*) FROM cancellations WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(*) FROM business_owners WHERE onboarding_completed_at IS NOT NULL),
			(SELECT COUNT(*) FROM applications WHERE created_at >= NOW() - INTERVAL '7 days')
	`

	if err := s.db.QueryRow(ctx, totalsQuery).Scan(
		&stats.TeamMembersTotal,
		&stats.CancellationsLast30Days,
		&stats.OnboardingCompleted,
		&stats.ApplicationsLast7Days,
	); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *StatsService) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

const memberColumns = `
	id, application_id, first_name, last_name, email, phone, business_name, status,
	onboarding_step, has_team, payment_status, samcart_order_id, whatsapp_joined,
	whatsapp_joined_at, slack_user_id, slack_joined, slack_welcome_posted,
	calendly_booked, onboarding_call_at, onboarding_completed_at, created_at, updated_at`

// MemberRepository реализует repository.MemberRepository для PostgreSQL
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository создает новый экземпляр MemberRepository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

func scanMember(row rowScanner) (*domain.BusinessOwner, error) {
	var m domain.BusinessOwner
	err := row.Scan(
		&m.ID,
		&m.ApplicationID,
		&m.FirstName,
		&m.LastName,
		&m.Email,
		&m.Phone,
		&m.BusinessName,
		&m.Status,
		&m.OnboardingStep,
		&m.HasTeam,
		&m.PaymentStatus,
		&m.SamCartOrderID,
		&m.WhatsAppJoined,
		&m.WhatsAppJoinedAt,
		&m.SlackUserID,
		&m.SlackJoined,
		&m.SlackWelcomePosted,
		&m.CalendlyBooked,
		&m.OnboardingCallAt,
		&m.OnboardingCompletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func collectMembers(rows pgx.Rows) ([]*domain.BusinessOwner, error) {
	defer rows.Close()

	var members []*domain.BusinessOwner
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// insertMember вставляет участника через пул или внутри транзакции
func insertMember(ctx context.Context, q querier, m *domain.BusinessOwner) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = domain.MemberOnboarding
	}
	if m.OnboardingStep == "" {
		m.OnboardingStep = domain.StepWelcome
	}
	if m.PaymentStatus == "" {
		m.PaymentStatus = domain.PaymentPending
	}

	query := `
		INSERT INTO business_owners (
			id, application_id, first_name, last_name, email, phone, business_name,
			status, onboarding_step, has_team, payment_status, samcart_order_id
		)
		VALUES ($1, $2, $3, $4, LOWER(TRIM($5)), $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + memberColumns

	created, err := scanMember(q.QueryRow(ctx, query,
		m.ID, m.ApplicationID, m.FirstName, m.LastName, m.Email, m.Phone, m.BusinessName,
		m.Status, m.OnboardingStep, m.HasTeam, m.PaymentStatus, m.SamCartOrderID,
	))
	if err != nil {
		return mapWriteError(err)
	}

	*m = *created
	return nil
}

// Create создает нового участника
func (r *MemberRepository) Create(ctx context.Context, member *domain.BusinessOwner) error {
	return insertMember(ctx, r.db, member)
}

// GetByID получает участника по ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.BusinessOwner, error) {
	query := `SELECT ` + memberColumns + ` FROM business_owners WHERE id = $1`
	return scanMember(r.db.QueryRow(ctx, query, id))
}

// List возвращает страницу участников и общее количество
func (r *MemberRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.BusinessOwner, int, error) {
	var w whereBuilder
	w.search(filter.Search, "first_name", "last_name", "email", "phone", "business_name")
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM business_owners`+w.sql(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	suffix, args := w.page(filter.Page)
	query := `SELECT ` + memberColumns + ` FROM business_owners` + w.sql() +
		` ORDER BY created_at DESC, id` + suffix

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	members, err := collectMembers(rows)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Update обновляет разрешенные поля участника
func (r *MemberRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.BusinessOwner, error) {
	query, args, err := buildUpdate("business_owners", domain.MemberUpdatableFields, fields, id, memberColumns)
	if err != nil {
		return nil, err
	}

	m, err := scanMember(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return m, nil
}

// Delete удаляет участника вместе с командой
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM business_owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByEmail ищет участников по email без учета регистра
func (r *MemberRepository) FindByEmail(ctx context.Context, email string) ([]*domain.BusinessOwner, error) {
	query := `SELECT ` + memberColumns + `
		FROM business_owners
		WHERE LOWER(email) = LOWER(TRIM($1))`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// FindByPhone ищет участников по последним цифрам телефона
func (r *MemberRepository) FindByPhone(ctx context.Context, digits string) ([]*domain.BusinessOwner, error) {
	query := `SELECT ` + memberColumns + `
		FROM business_owners
		WHERE phone <> '' AND regexp_replace(phone, '\D', '', 'g') LIKE '%' || $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, digits)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// FindByName ищет участников по имени и фамилии без учета регистра
func (r *MemberRepository) FindByName(ctx context.Context, firstName, lastName string) ([]*domain.BusinessOwner, error) {
	query := `SELECT ` + memberColumns + `
		FROM business_owners
		WHERE first_name ILIKE $1 AND last_name ILIKE $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, escapeLike(firstName), escapeLike(lastName))
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// SetPaymentStatus обновляет состояние оплаты и номер заказа.
// Пустой orderID оставляет прежний номер заказа.
func (r *MemberRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, orderID string) error {
	query := `
		UPDATE business_owners
		SET payment_status = $2,
		    samcart_order_id = COALESCE(NULLIF($3, ''), samcart_order_id),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, orderID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdvanceStep переводит участника с шага from на шаг to, возвращает false если шаг уже другой.
// Переход на complete активирует участника.
func (r *MemberRepository) AdvanceStep(ctx context.Context, id string, from, to domain.OnboardingStep) (bool, error) {
	query := `
		UPDATE business_owners
		SET onboarding_step = $3,
		    status = CASE WHEN $3 = 'complete' AND status = 'onboarding' THEN 'active' ELSE status END,
		    onboarding_completed_at = CASE WHEN $3 = 'complete' THEN NOW() ELSE onboarding_completed_at END,
		    updated_at = NOW()
		WHERE id = $1 AND onboarding_step = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// flipGuard выполняет условный UPDATE флага; true означает что флаг изменился именно этим вызовом
func (r *MemberRepository) flipGuard(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// MarkWhatsAppJoined выставляет whatsapp_joined один раз
func (r *MemberRepository) MarkWhatsAppJoined(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.flipGuard(ctx, `
		UPDATE business_owners
		SET whatsapp_joined = true, whatsapp_joined_at = $2, updated_at = NOW()
		WHERE id = $1 AND whatsapp_joined = false
	`, id, at)
}

// MarkSlackJoined выставляет slack_joined и slack_user_id один раз
func (r *MemberRepository) MarkSlackJoined(ctx context.Context, id, slackUserID string) (bool, error) {
	return r.flipGuard(ctx, `
		UPDATE business_owners
		SET slack_joined = true, slack_user_id = $2, updated_at = NOW()
		WHERE id = $1 AND slack_joined = false
	`, id, slackUserID)
}

// MarkSlackWelcomePosted выставляет slack_welcome_posted один раз
func (r *MemberRepository) MarkSlackWelcomePosted(ctx context.Context, id string) (bool, error) {
	return r.flipGuard(ctx, `
		UPDATE business_owners
		SET slack_welcome_posted = true, updated_at = NOW()
		WHERE id = $1 AND slack_welcome_posted = false
	`, id)
}

// MarkCalendlyBooked выставляет calendly_booked и время звонка один раз
func (r *MemberRepository) MarkCalendlyBooked(ctx context.Context, id string, callAt *time.Time) (bool, error) {
	return r.flipGuard(ctx, `
		UPDATE business_owners
		SET calendly_booked = true, onboarding_call_at = $2, updated_at = NOW()
		WHERE id = $1 AND calendly_booked = false
	`, id, callAt)
}

// ClearCalendlyBooked снимает флаг calendly_booked
func (r *MemberRepository) ClearCalendlyBooked(ctx context.Context, id string) error {
	query := `
		UPDATE business_owners
		SET calendly_booked = false, onboarding_call_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Cancel создает запись об отмене и переводит участника в статус cancelled
func (r *MemberRepository) Cancel(ctx context.Context, c *domain.Cancellation) error {
	// Start transaction
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	var status domain.MemberStatus
	err = tx.QueryRow(ctx, `SELECT status FROM business_owners WHERE id = $1 FOR UPDATE`, c.BusinessOwnerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if status == domain.MemberCancelled {
		return domain.ErrAlreadyCancelled
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.EffectiveDate.IsZero() {
		c.EffectiveDate = time.Now().UTC()
	}

	insert := `
		INSERT INTO cancellations (id, business_owner_id, reason, feedback, effective_date, source, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, insert,
		c.ID, c.BusinessOwnerID, c.Reason, c.Feedback, c.EffectiveDate, c.Source, c.ProcessedBy,
	).Scan(&c.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE business_owners SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, c.BusinessOwnerID); err != nil {
		return err
	}

	// Commit transaction
	return tx.Commit(ctx)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

const applicationColumns = `
	id, first_name, last_name, email, phone, business_name, business_type,
	annual_revenue, goals, source, external_id, status, reviewed_by, reviewed_at,
	rejection_reason, converted_member_id, slack_notified, created_at, updated_at`

// ApplicationRepository реализует repository.ApplicationRepository для PostgreSQL
type ApplicationRepository struct {
	db *pgxpool.Pool
}

// NewApplicationRepository создает новый экземпляр ApplicationRepository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var a domain.Application
	err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.Phone,
		&a.BusinessName,
		&a.BusinessType,
		&a.AnnualRevenue,
		&a.Goals,
		&a.Source,
		&a.ExternalID,
		&a.Status,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&a.RejectionReason,
		&a.ConvertedMemberID,
		&a.SlackNotified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectApplications(rows pgx.Rows) ([]*domain.Application, error) {
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Create создает новую заявку
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = domain.ApplicationNew
	}
	if app.Source == "" {
		app.Source = domain.SourceManual
	}

	query := `
		INSERT INTO applications (
			id, first_name, last_name, email, phone, business_name, business_type,
			annual_revenue, goals, source, external_id, status
		)
		VALUES ($1, $2, $3, LOWER(TRIM($4)), $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + applicationColumns

	created, err := scanApplication(r.db.QueryRow(ctx, query,
		app.ID, app.FirstName, app.LastName, app.Email, app.Phone, app.BusinessName,
		app.BusinessType, app.AnnualRevenue, app.Goals, app.Source, app.ExternalID, app.Status,
	))
	if err != nil {
		return mapWriteError(err)
	}

	*app = *created
	return nil
}

// GetByID получает заявку по ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(r.db.QueryRow(ctx, query, id))
}

// GetByExternalID получает заявку по ID ответа формы
func (r *ApplicationRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE external_id = $1`
	return scanApplication(r.db.QueryRow(ctx, query, externalID))
}

// List возвращает страницу заявок и общее количество
func (r *ApplicationRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Application, int, error) {
	var w whereBuilder
	w.search(filter.Search, "first_name", "last_name", "email", "phone", "business_name")
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM applications`+w.sql(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	suffix, args := w.page(filter.Page)
	query := `SELECT ` + applicationColumns + ` FROM applications` + w.sql() +
		` ORDER BY created_at DESC, id` + suffix

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// Update обновляет разрешенные поля заявки
func (r *ApplicationRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error) {
	query, args, err := buildUpdate("applications", domain.ApplicationUpdatableFields, fields, id, applicationColumns)
	if err != nil {
		return nil, err
	}

	app, err := scanApplication(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return app, nil
}

// UpdateStatus меняет статус заявки и фиксирует рецензента.
// Конвертированную заявку изменить нельзя.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, reviewedBy string, reason *string) (*domain.Application, error) {
	query := `
		UPDATE applications
		SET status = $2,
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    rejection_reason = CASE WHEN $2 = 'rejected' THEN $4 ELSE rejection_reason END,
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'converted'
		RETURNING ` + applicationColumns

	app, err := scanApplication(r.db.QueryRow(ctx, query, id, status, reviewedBy, reason))
	if errors.Is(err, domain.ErrNotFound) {
		// Различаем отсутствующую заявку и уже конвертированную
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == domain.ApplicationConverted {
			return nil, domain.ErrAlreadyConverted
		}
	}
	return app, err
}

// Convert создает участника из заявки и помечает заявку конвертированной в одной транзакции
func (r *ApplicationRepository) Convert(ctx context.Context, id string, member *domain.BusinessOwner) (*domain.Application, error) {
	// Start transaction
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	// Блокируем заявку, чтобы параллельная конвертация ждала
	var status domain.ApplicationStatus
	err = tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	switch status {
	case domain.ApplicationConverted:
		return nil, domain.ErrAlreadyConverted
	case domain.ApplicationRejected:
		return nil, domain.ErrCannotConvert
	}

	member.ApplicationID = &id
	if err := insertMember(ctx, tx, member); err != nil {
		return nil, err
	}

	query := `
		UPDATE applications
		SET status = 'converted', converted_member_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + applicationColumns

	app, err := scanApplication(tx.QueryRow(ctx, query, id, member.ID))
	if err != nil {
		return nil, fmt.Errorf("mark application converted: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return app, nil
}

// Delete удаляет заявку
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkSlackNotified выставляет флаг slack_notified, возвращает true если флаг изменился
func (r *ApplicationRepository) MarkSlackNotified(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE applications
		SET slack_notified = true, updated_at = NOW()
		WHERE id = $1 AND slack_notified = false
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// FindByEmail ищет заявки по email без учета регистра
func (r *ApplicationRepository) FindByEmail(ctx context.Context, email string) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE LOWER(email) = LOWER(TRIM($1))
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// FindByPhone ищет заявки по последним цифрам телефона
func (r *ApplicationRepository) FindByPhone(ctx context.Context, digits string) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE phone <> '' AND regexp_replace(phone, '\D', '', 'g') LIKE '%' || $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, digits)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

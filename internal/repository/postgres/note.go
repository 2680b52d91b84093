package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/member-crm/internal/domain"
)

// NoteRepository реализует repository.NoteRepository для PostgreSQL
type NoteRepository struct {
	db *pgxpool.Pool
}

// NewNoteRepository создает новый экземпляр NoteRepository
func NewNoteRepository(db *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create создает заметку
func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	query := `
		INSERT INTO notes (id, business_owner_id, application_id, author, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		note.ID, note.BusinessOwnerID, note.ApplicationID, note.Author, note.Content,
	).Scan(&note.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ListByMember возвращает заметки участника
func (r *NoteRepository) ListByMember(ctx context.Context, memberID string) ([]*domain.Note, error) {
	return r.list(ctx, `business_owner_id = $1`, memberID)
}

// ListByApplication возвращает заметки заявки
func (r *NoteRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.Note, error) {
	return r.list(ctx, `application_id = $1`, applicationID)
}

func (r *NoteRepository) list(ctx context.Context, cond string, arg string) ([]*domain.Note, error) {
	query := `
		SELECT id, business_owner_id, application_id, author, content, created_at
		FROM notes
		WHERE ` + cond + `
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.BusinessOwnerID, &n.ApplicationID, &n.Author, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// Delete удаляет заметку
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

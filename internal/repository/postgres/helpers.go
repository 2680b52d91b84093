package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidar/member-crm/internal/domain"
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// rowScanner общий интерфейс pgx.Row и pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// mapWriteError переводит ошибки ограничений PostgreSQL в доменные ошибки.
// Нарушение уникальности по email становится ErrEmailExists, остальные ErrDuplicate.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if strings.Contains(pgErr.ConstraintName, "email") {
			return domain.ErrEmailExists
		}
		return domain.ErrDuplicate
	case pgForeignKeyViolation, pgInvalidText:
		return domain.ErrNotFound
	case pgCheckViolation:
		return domain.ErrInvalidInput
	}
	return err
}

// buildUpdate собирает UPDATE только по разрешенным колонкам.
// Колонки сортируются в порядке allowed, чтобы запрос был детерминированным.
func buildUpdate(table string, allowed []string, fields map[string]any, id string, returning string) (string, []any, error) {
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for _, col := range allowed {
		val, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if len(sets) == 0 {
		return "", nil, domain.ErrNoFields
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args), returning,
	)
	return query, args, nil
}

// whereBuilder накапливает условия WHERE с позиционными параметрами
type whereBuilder struct {
	conds []string
	args  []any
}

// add добавляет условие; каждый "?" в cond заменяется следующим параметром
func (w *whereBuilder) add(cond string, vals ...any) {
	for _, v := range vals {
		w.args = append(w.args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

// search добавляет ILIKE поиск по нескольким колонкам
func (w *whereBuilder) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	w.args = append(w.args, "%"+escapeLike(term)+"%")
	n := len(w.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page добавляет LIMIT/OFFSET и возвращает суффикс запроса
func (w *whereBuilder) page(p domain.Page) (string, []any) {
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

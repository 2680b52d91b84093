package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/metrics"
	"github.com/aidar/member-crm/internal/repository"
	"github.com/aidar/member-crm/internal/validator"
)

// importColumns lists the required CSV headers per import kind
var importColumns = map[domain.ImportKind][]string{
	domain.ImportMembers:      {"first_name", "last_name", "email", "phone", "business_name"},
	domain.ImportApplications: {"first_name", "last_name", "email", "phone", "business_name"},
	domain.ImportTeamMembers:  {"first_name", "last_name", "email", "phone", "owner_email", "role"},
}

// maxImportErrors caps the per-row errors stored in the import history
const maxImportErrors = 200

// rowOutcome is the result of importing a single CSV row
type rowOutcome int

const (
	rowImported rowOutcome = iota
	rowSkipped
	rowFailed
)

// ImportService loads members, applications and team members from CSV files
type ImportService struct {
	memberRepo repository.MemberRepository
	appRepo    repository.ApplicationRepository
	teamRepo   repository.TeamMemberRepository
	importRepo repository.ImportRepository
	recorder   *Recorder
}

// NewImportService creates a new ImportService
func NewImportService(
	memberRepo repository.MemberRepository,
	appRepo repository.ApplicationRepository,
	teamRepo repository.TeamMemberRepository,
	importRepo repository.ImportRepository,
	recorder *Recorder,
) *ImportService {
	return &ImportService{
		memberRepo: memberRepo,
		appRepo:    appRepo,
		teamRepo:   teamRepo,
		importRepo: importRepo,
		recorder:   recorder,
	}
}

// History returns a page of past imports
func (s *ImportService) History(ctx context.Context, page domain.Page) (*domain.PageResult[*domain.ImportHistory], error) {
	items, total, err := s.importRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return domain.NewPageResult(items, page, total), nil
}

// Import reads a CSV file and creates one record per row. Rows without an email
// fail, rows whose email already exists are skipped. One history row is stored per call.
func (s *ImportService) Import(ctx context.Context, actor string, kind domain.ImportKind, filename string, r io.Reader) (*domain.ImportHistory, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown import kind %q", domain.ErrInvalidInput, kind)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	index, err := headerIndex(header, importColumns[kind])
	if err != nil {
		return nil, err
	}

	history := &domain.ImportHistory{
		Kind:       kind,
		Filename:   filename,
		ImportedBy: actor,
		Errors:     []domain.ImportRowError{},
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			history.TotalRows++
			history.Failed++
			addRowError(history, perr.Line, err.Error())
			continue
		}
		line, _ := reader.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}
		history.TotalRows++

		row := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}

		outcome, msg := s.importRow(ctx, kind, row)
		switch outcome {
		case rowImported:
			history.Imported++
		case rowSkipped:
			history.Skipped++
		case rowFailed:
			history.Failed++
			addRowError(history, line, msg)
		}
	}

	if err := s.importRepo.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("save import history: %w", err)
	}

	metrics.ImportRows.WithLabelValues(string(kind), "imported").Add(float64(history.Imported))
	metrics.ImportRows.WithLabelValues(string(kind), "skipped").Add(float64(history.Skipped))
	metrics.ImportRows.WithLabelValues(string(kind), "failed").Add(float64(history.Failed))

	s.recorder.Record(ctx, domain.EntityImport, history.ID, "imported", actor, map[string]any{
		"kind":     kind,
		"filename": filename,
		"imported": history.Imported,
		"skipped":  history.Skipped,
		"failed":   history.Failed,
	})
	return history, nil
}

func (s *ImportService) importRow(ctx context.Context, kind domain.ImportKind, row map[string]string) (rowOutcome, string) {
	email := domain.NormalizeEmail(row["email"])
	if email == "" {
		return rowFailed, "email is required"
	}
	if !validator.Var(email, "email") {
		return rowFailed, fmt.Sprintf("invalid email %q", email)
	}
	if row["first_name"] == "" {
		return rowFailed, "first_name is required"
	}

	var err error
	switch kind {
	case domain.ImportMembers:
		err = s.memberRepo.Create(ctx, &domain.BusinessOwner{
			FirstName:    row["first_name"],
			LastName:     row["last_name"],
			Email:        email,
			Phone:        row["phone"],
			BusinessName: row["business_name"],
		})
	case domain.ImportApplications:
		err = s.appRepo.Create(ctx, &domain.Application{
			FirstName:    row["first_name"],
			LastName:     row["last_name"],
			Email:        email,
			Phone:        row["phone"],
			BusinessName: row["business_name"],
			Source:       domain.SourceImport,
		})
	case domain.ImportTeamMembers:
		owners, findErr := s.memberRepo.FindByEmail(ctx, domain.NormalizeEmail(row["owner_email"]))
		if findErr != nil {
			return rowFailed, findErr.Error()
		}
		if len(owners) == 0 {
			return rowFailed, fmt.Sprintf("owner %q not found", row["owner_email"])
		}
		err = s.teamRepo.Create(ctx, &domain.TeamMember{
			BusinessOwnerID: owners[0].ID,
			FirstName:       row["first_name"],
			LastName:        row["last_name"],
			Email:           email,
			Phone:           row["phone"],
			Role:            row["role"],
		})
	}

	switch {
	case err == nil:
		return rowImported, ""
	case errors.Is(err, domain.ErrEmailExists):
		return rowSkipped, ""
	default:
		return rowFailed, err.Error()
	}
}

// headerIndex maps required column names to their position, ignoring case and a UTF-8 BOM
func headerIndex(header []string, required []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	index := make(map[string]int, len(required))
	var missing []string
	for _, col := range required {
		i, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return index, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func addRowError(h *domain.ImportHistory, line int, msg string) {
	if len(h.Errors) < maxImportErrors {
		h.Errors = append(h.Errors, domain.ImportRowError{Row: line, Message: msg})
	}
}

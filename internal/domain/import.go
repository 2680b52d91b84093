package domain

import "time"

// ImportKind представляет тип импортируемых записей
type ImportKind string

// Поддерживаемые типы импорта
const (
	ImportMembers      ImportKind = "members"
	ImportApplications ImportKind = "applications"
	ImportTeamMembers  ImportKind = "team_members"
)

// Valid проверяет, что тип импорта поддерживается
func (k ImportKind) Valid() bool {
	switch k {
	case ImportMembers, ImportApplications, ImportTeamMembers:
		return true
	}
	return false
}

// ImportRowError описывает ошибку в конкретной строке CSV
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportHistory представляет результат одной загрузки CSV
type ImportHistory struct {
	ID         string           `json:"id"`
	Kind       ImportKind       `json:"kind"`
	Filename   string           `json:"filename"`
	TotalRows  int              `json:"total_rows"`
	Imported   int              `json:"imported"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors"`
	ImportedBy string           `json:"imported_by"`
	CreatedAt  time.Time        `json:"created_at"`
}

package domain

import "time"

// EntityType представляет тип сущности в журнале активности
type EntityType string

// Типы сущностей
const (
	EntityApplication  EntityType = "application"
	EntityMember       EntityType = "member"
	EntityTeamMember   EntityType = "team_member"
	EntityNote         EntityType = "note"
	EntityCancellation EntityType = "cancellation"
	EntityImport       EntityType = "import"
	EntityWebhook      EntityType = "webhook"
)

// Activity представляет запись журнала активности
type Activity struct {
	ID         string         `json:"id"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActivityFilter содержит фильтры выборки журнала
type ActivityFilter struct {
	EntityType string
	EntityID   string
	Page       Page
}

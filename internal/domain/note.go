package domain

import "time"

// Note представляет заметку сотрудника к участнику или заявке
type Note struct {
	ID              string    `json:"id"`
	BusinessOwnerID *string   `json:"member_id,omitempty"`
	ApplicationID   *string   `json:"application_id,omitempty"`
	Author          string    `json:"author"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

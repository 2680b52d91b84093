package domain

import "time"

// TeamMemberStatus представляет статус сотрудника участника
type TeamMemberStatus string

// Возможные статусы сотрудника участника
const (
	TeamMemberInvited TeamMemberStatus = "invited"
	TeamMemberActive  TeamMemberStatus = "active"
	TeamMemberRemoved TeamMemberStatus = "removed"
)

// Valid проверяет, что статус входит в допустимый набор
func (s TeamMemberStatus) Valid() bool {
	switch s {
	case TeamMemberInvited, TeamMemberActive, TeamMemberRemoved:
		return true
	}
	return false
}

// TeamMember представляет сотрудника бизнеса, привязанного к участнику (business owner)
type TeamMember struct {
	ID              string           `json:"id"`
	BusinessOwnerID string           `json:"business_owner_id"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Role            string           `json:"role"`
	Status          TeamMemberStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TeamMemberUpdatableFields поля сотрудника участника, которые можно менять через PATCH
var TeamMemberUpdatableFields = []string{
	"first_name", "last_name", "email", "phone", "role", "status",
}

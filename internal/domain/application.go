package domain

import "time"

// ApplicationStatus представляет статус заявки
type ApplicationStatus string

// Возможные статусы заявки
const (
	ApplicationNew       ApplicationStatus = "new"
	ApplicationReviewing ApplicationStatus = "reviewing"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationConverted ApplicationStatus = "converted"
)

// Valid проверяет, что статус входит в допустимый набор
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationNew, ApplicationReviewing, ApplicationApproved, ApplicationRejected, ApplicationConverted:
		return true
	}
	return false
}

// ApplicationSource показывает откуда пришла заявка
type ApplicationSource string

// Источники заявок
const (
	SourceTypeform ApplicationSource = "typeform"
	SourceManual   ApplicationSource = "manual"
	SourceImport   ApplicationSource = "import"
	SourceSamCart  ApplicationSource = "samcart"
)

// Application представляет входящую заявку, ожидающую рассмотрения
type Application struct {
	ID                string            `json:"id"`
	FirstName         string            `json:"first_name"`
	LastName          string            `json:"last_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	BusinessName      string            `json:"business_name"`
	BusinessType      string            `json:"business_type"`
	AnnualRevenue     string            `json:"annual_revenue"`
	Goals             string            `json:"goals"`
	Source            ApplicationSource `json:"source"`
	ExternalID        *string           `json:"external_id,omitempty"`
	Status            ApplicationStatus `json:"status"`
	ReviewedBy        *string           `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time        `json:"reviewed_at,omitempty"`
	RejectionReason   *string           `json:"rejection_reason,omitempty"`
	ConvertedMemberID *string           `json:"converted_member_id,omitempty"`
	SlackNotified     bool              `json:"slack_notified"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// FullName возвращает имя и фамилию заявителя
func (a *Application) FullName() string {
	return joinName(a.FirstName, a.LastName)
}

// ApplicationUpdatableFields поля заявки, которые можно менять через PATCH
var ApplicationUpdatableFields = []string{
	"first_name", "last_name", "email", "phone",
	"business_name", "business_type", "annual_revenue", "goals",
}

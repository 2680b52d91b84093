package domain

import (
	"strings"
	"time"
)

// MemberStatus представляет статус участника
type MemberStatus string

// Возможные статусы участника
const (
	MemberOnboarding MemberStatus = "onboarding"
	MemberActive     MemberStatus = "active"
	MemberPaused     MemberStatus = "paused"
	MemberCancelled  MemberStatus = "cancelled"
)

// Valid проверяет, что статус входит в допустимый набор
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberOnboarding, MemberActive, MemberPaused, MemberCancelled:
		return true
	}
	return false
}

// PaymentStatus представляет состояние оплаты участника
type PaymentStatus string

// Возможные состояния оплаты
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid проверяет, что состояние оплаты входит в допустимый набор
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// BusinessOwner представляет участника программы (конвертированная или оплаченная запись)
type BusinessOwner struct {
	ID                    string         `json:"id"`
	ApplicationID         *string        `json:"application_id,omitempty"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Email                 string         `json:"email"`
	Phone                 string         `json:"phone"`
	BusinessName          string         `json:"business_name"`
	Status                MemberStatus   `json:"status"`
	OnboardingStep        OnboardingStep `json:"onboarding_step"`
	HasTeam               bool           `json:"has_team"`
	PaymentStatus         PaymentStatus  `json:"payment_status"`
	SamCartOrderID        string         `json:"samcart_order_id"`
	WhatsAppJoined        bool           `json:"whatsapp_joined"`
	WhatsAppJoinedAt      *time.Time     `json:"whatsapp_joined_at,omitempty"`
	SlackUserID           string         `json:"slack_user_id"`
	SlackJoined           bool           `json:"slack_joined"`
	SlackWelcomePosted    bool           `json:"slack_welcome_posted"`
	CalendlyBooked        bool           `json:"calendly_booked"`
	OnboardingCallAt      *time.Time     `json:"onboarding_call_at,omitempty"`
	OnboardingCompletedAt *time.Time     `json:"onboarding_completed_at,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// FullName возвращает имя и фамилию участника
func (m *BusinessOwner) FullName() string {
	return joinName(m.FirstName, m.LastName)
}

// MemberDetails представляет участника вместе с командой и заметками
type MemberDetails struct {
	*BusinessOwner
	TeamMembers []*TeamMember `json:"team_members"`
	Notes       []*Note       `json:"notes"`
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// MemberUpdatableFields поля участника, которые можно менять через PATCH
var MemberUpdatableFields = []string{
	"first_name", "last_name", "email", "phone",
	"business_name", "status", "has_team", "payment_status",
}

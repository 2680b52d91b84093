package domain

import "time"

// CancellationSource показывает кто инициировал отмену
type CancellationSource string

// Источники отмены
const (
	CancellationByStaff   CancellationSource = "staff"
	CancellationBySamCart CancellationSource = "samcart"
)

// Cancellation представляет запись об отмене членства
type Cancellation struct {
	ID              string             `json:"id"`
	BusinessOwnerID string             `json:"member_id"`
	Reason          string             `json:"reason"`
	Feedback        string             `json:"feedback"`
	EffectiveDate   time.Time          `json:"effective_date"`
	Source          CancellationSource `json:"source"`
	ProcessedBy     string             `json:"processed_by"`
	CreatedAt       time.Time          `json:"created_at"`

	// Заполняются при выборке списка
	MemberName  string `json:"member_name,omitempty"`
	MemberEmail string `json:"member_email,omitempty"`
}

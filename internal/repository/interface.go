package repository

import (
	"context"
	"time"

	"github.com/aidar/member-crm/internal/domain"
)

// StaffRepository определяет методы для работы с сотрудниками CRM
type StaffRepository interface {
	// Create создает нового сотрудника
	Create(ctx context.Context, user *domain.StaffUser) error

	// GetByEmail получает сотрудника по email
	GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
}

// ApplicationRepository определяет методы для работы с заявками
type ApplicationRepository interface {
	// Create создает новую заявку
	Create(ctx context.Context, app *domain.Application) error

	// GetByID получает заявку по ID
	GetByID(ctx context.Context, id string) (*domain.Application, error)

	// GetByExternalID получает заявку по ID ответа формы
	GetByExternalID(ctx context.Context, externalID string) (*domain.Application, error)

	// List возвращает страницу заявок и общее количество
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Application, int, error)

	// Update обновляет разрешенные поля заявки
	Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error)

	// UpdateStatus меняет статус заявки и фиксирует рецензента
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, reviewedBy string, reason *string) (*domain.Application, error)

	// Convert создает участника из заявки и помечает заявку конвертированной в одной транзакции
	Convert(ctx context.Context, id string, member *domain.BusinessOwner) (*domain.Application, error)

	// Delete удаляет заявку
	Delete(ctx context.Context, id string) error

	// MarkSlackNotified выставляет флаг slack_notified, возвращает true если флаг изменился
	MarkSlackNotified(ctx context.Context, id string) (bool, error)

	// FindByEmail ищет заявки по email без учета регистра
	FindByEmail(ctx context.Context, email string) ([]*domain.Application, error)

	// FindByPhone ищет заявки по последним цифрам телефона
	FindByPhone(ctx context.Context, digits string) ([]*domain.Application, error)
}

// MemberRepository определяет методы для работы с участниками (business owners)
type MemberRepository interface {
	// Create создает нового участника
	Create(ctx context.Context, member *domain.BusinessOwner) error

	// GetByID получает участника по ID
	GetByID(ctx context.Context, id string) (*domain.BusinessOwner, error)

	// List возвращает страницу участников и общее количество
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.BusinessOwner, int, error)

	// Update обновляет разрешенные поля участника
	Update(ctx context.Context, id string, fields map[string]any) (*domain.BusinessOwner, error)

	// Delete удаляет участника вместе с командой
	Delete(ctx context.Context, id string) error

	// FindByEmail ищет участников по email без учета регистра
	FindByEmail(ctx context.Context, email string) ([]*domain.BusinessOwner, error)

	// FindByPhone ищет участников по последним цифрам телефона
	FindByPhone(ctx context.Context, digits string) ([]*domain.BusinessOwner, error)

	// FindByName ищет участников по имени и фамилии без учета регистра
	FindByName(ctx context.Context, firstName, lastName string) ([]*domain.BusinessOwner, error)

	// SetPaymentStatus обновляет состояние оплаты и номер заказа
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus, orderID string) error

	// AdvanceStep переводит участника с шага from на шаг to, возвращает false если шаг уже другой
	AdvanceStep(ctx context.Context, id string, from, to domain.OnboardingStep) (bool, error)

	// MarkWhatsAppJoined выставляет whatsapp_joined один раз
	MarkWhatsAppJoined(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkSlackJoined выставляет slack_joined и slack_user_id один раз
	MarkSlackJoined(ctx context.Context, id, slackUserID string) (bool, error)

	// MarkSlackWelcomePosted выставляет slack_welcome_posted один раз
	MarkSlackWelcomePosted(ctx context.Context, id string) (bool, error)

	// MarkCalendlyBooked выставляет calendly_booked и время звонка один раз
	MarkCalendlyBooked(ctx context.Context, id string, callAt *time.Time) (bool, error)

	// ClearCalendlyBooked снимает флаг calendly_booked
	ClearCalendlyBooked(ctx context.Context, id string) error

	// Cancel создает запись об отмене и переводит участника в статус cancelled
	Cancel(ctx context.Context, c *domain.Cancellation) error
}

// TeamMemberRepository определяет методы для работы с сотрудниками участников
type TeamMemberRepository interface {
	// Create создает сотрудника участника
	Create(ctx context.Context, tm *domain.TeamMember) error

	// GetByID получает сотрудника по ID
	GetByID(ctx context.Context, id string) (*domain.TeamMember, error)

	// ListByOwner возвращает всех сотрудников участника
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.TeamMember, error)

	// List возвращает страницу сотрудников всех участников
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.TeamMember, int, error)

	// Update обновляет разрешенные поля сотрудника
	Update(ctx context.Context, id string, fields map[string]any) (*domain.TeamMember, error)

	// Delete удаляет сотрудника
	Delete(ctx context.Context, id string) error
}

// NoteRepository определяет методы для работы с заметками
type NoteRepository interface {
	// Create создает заметку
	Create(ctx context.Context, note *domain.Note) error

	// ListByMember возвращает заметки участника
	ListByMember(ctx context.Context, memberID string) ([]*domain.Note, error)

	// ListByApplication возвращает заметки заявки
	ListByApplication(ctx context.Context, applicationID string) ([]*domain.Note, error)

	// Delete удаляет заметку
	Delete(ctx context.Context, id string) error
}

// CancellationRepository определяет методы для чтения отмен
type CancellationRepository interface {
	// List возвращает страницу отмен, новые первыми
	List(ctx context.Context, page domain.Page) ([]*domain.Cancellation, int, error)
}

// ActivityRepository определяет методы для работы с журналом активности
type ActivityRepository interface {
	// Create добавляет запись в журнал
	Create(ctx context.Context, a *domain.Activity) error

	// List возвращает страницу журнала
	List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, int, error)
}

// ImportRepository определяет методы для работы с историей импорта
type ImportRepository interface {
	// Create сохраняет результат импорта
	Create(ctx context.Context, h *domain.ImportHistory) error

	// List возвращает страницу истории импорта
	List(ctx context.Context, page domain.Page) ([]*domain.ImportHistory, int, error)
}

// ClaimStore хранит claim'ы доставок вебхуков для однократной обработки
type ClaimStore interface {
	// Claim пытается занять доставку, возвращает false если она уже обработана
	Claim(ctx context.Context, provider, deliveryID string, ttl time.Duration) (bool, error)

	// Release освобождает claim, чтобы повтор провайдера мог пройти
	Release(ctx context.Context, provider, deliveryID string) error
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
)

type mockStaffRepo struct {
	mock.Mock
}

func (m *mockStaffRepo) Create(ctx context.Context, u *domain.StaffUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockStaffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffUser), args.Error(1)
}

type mockAppRepo struct {
	mock.Mock
}

func (m *mockAppRepo) Create(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *mockAppRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockAppRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Application, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockAppRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Application, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Application), args.Int(1), args.Error(2)
}

func (m *mockAppRepo) Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockAppRepo) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, reviewedBy string, reason *string) (*domain.Application, error) {
	args := m.Called(ctx, id, status, reviewedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockAppRepo) Convert(ctx context.Context, id string, member *domain.BusinessOwner) (*domain.Application, error) {
	args := m.Called(ctx, id, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockAppRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAppRepo) MarkSlackNotified(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAppRepo) FindByEmail(ctx context.Context, email string) ([]*domain.Application, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *mockAppRepo) FindByPhone(ctx context.Context, digits string) ([]*domain.Application, error) {
	args := m.Called(ctx, digits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

type mockMemberFinder struct {
	mock.Mock
	*memberStore
}

func (m *mockMemberFinder) FindByEmail(ctx context.Context, email string) ([]*domain.BusinessOwner, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]*domain.BusinessOwner), args.Error(1)
}

func (m *mockMemberFinder) FindByPhone(ctx context.Context, digits string) ([]*domain.BusinessOwner, error) {
	args := m.Called(ctx, digits)
	return args.Get(0).([]*domain.BusinessOwner), args.Error(1)
}

func (m *mockMemberFinder) FindByName(ctx context.Context, first, last string) ([]*domain.BusinessOwner, error) {
	args := m.Called(ctx, first, last)
	return args.Get(0).([]*domain.BusinessOwner), args.Error(1)
}

// memberStore is an in-memory MemberRepository with the same guard semantics
// as the postgres implementation.
type memberStore struct {
	mu            sync.Mutex
	members       map[string]*domain.BusinessOwner
	cancellations []*domain.Cancellation
}

func newMemberStore(members ...*domain.BusinessOwner) *memberStore {
	s := &memberStore{members: map[string]*domain.BusinessOwner{}}
	for _, m := range members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		s.members[m.ID] = m
	}
	return s
}

func (s *memberStore) get(id string) *domain.BusinessOwner {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

func (s *memberStore) Create(_ context.Context, m *domain.BusinessOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.Email == m.Email {
			return domain.ErrEmailExists
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = domain.MemberOnboarding
	}
	if m.OnboardingStep == "" {
		m.OnboardingStep = domain.StepWelcome
	}
	if m.PaymentStatus == "" {
		m.PaymentStatus = domain.PaymentPending
	}
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *memberStore) GetByID(_ context.Context, id string) (*domain.BusinessOwner, error) {
	if m := s.get(id); m != nil {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memberStore) List(_ context.Context, filter domain.ListFilter) ([]*domain.BusinessOwner, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BusinessOwner
	for _, m := range s.members {
		if filter.Status == "" || string(m.Status) == filter.Status {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (s *memberStore) Update(_ context.Context, id string, fields map[string]any) (*domain.BusinessOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	if m == nil {
		return nil, domain.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "business_name":
			m.BusinessName = v.(string)
		case "phone":
			m.Phone = v.(string)
		case "has_team":
			m.HasTeam = v.(bool)
		case "status":
			m.Status = domain.MemberStatus(v.(string))
		case "payment_status":
			m.PaymentStatus = domain.PaymentStatus(v.(string))
		case "first_name":
			m.FirstName = v.(string)
		case "last_name":
			m.LastName = v.(string)
		case "email":
			m.Email = v.(string)
		}
	}
	cp := *m
	return &cp, nil
}

func (s *memberStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *memberStore) find(match func(*domain.BusinessOwner) bool) []*domain.BusinessOwner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.BusinessOwner{}
	for _, m := range s.members {
		if match(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

func (s *memberStore) FindByEmail(_ context.Context, email string) ([]*domain.BusinessOwner, error) {
	return s.find(func(m *domain.BusinessOwner) bool { return domain.NormalizeEmail(m.Email) == email }), nil
}

func (s *memberStore) FindByPhone(_ context.Context, digits string) ([]*domain.BusinessOwner, error) {
	return s.find(func(m *domain.BusinessOwner) bool {
		p := domain.NormalizePhone(m.Phone)
		return p != "" && p == digits
	}), nil
}

func (s *memberStore) FindByName(_ context.Context, first, last string) ([]*domain.BusinessOwner, error) {
	return s.find(func(m *domain.BusinessOwner) bool {
		return m.FirstName == first && m.LastName == last
	}), nil
}

func (s *memberStore) SetPaymentStatus(_ context.Context, id string, status domain.PaymentStatus, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	if m == nil {
		return domain.ErrNotFound
	}
	m.PaymentStatus = status
	if orderID != "" {
		m.SamCartOrderID = orderID
	}
	return nil
}

func (s *memberStore) AdvanceStep(_ context.Context, id string, from, to domain.OnboardingStep) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	if m == nil || m.OnboardingStep != from {
		return false, nil
	}
	m.OnboardingStep = to
	if to == domain.StepComplete {
		now := time.Now()
		m.Status = domain.MemberActive
		m.OnboardingCompletedAt = &now
	}
	return true, nil
}

func (s *memberStore) flip(id string, flag func(*domain.BusinessOwner) *bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[id]
	if m == nil {
		return false, nil
	}
	f := flag(m)
	if *f {
		return false, nil
	}
	*f = true
	return true, nil
}

func (s *memberStore) MarkWhatsAppJoined(_ context.Context, id string, at time.Time) (bool, error) {
	flipped, err := s.flip(id, func(m *domain.BusinessOwner) *bool { return &m.WhatsAppJoined })
	if flipped {
		s.mu.Lock()
		s.members[id].WhatsAppJoinedAt = &at
		s.mu.Unlock()
	}
	return flipped, err
}

func (s *memberStore) MarkSlackJoined(_ context.Context, id, slackUserID string) (bool, error) {
	flipped, err := s.flip(id, func(m *domain.BusinessOwner) *bool { return &m.SlackJoined })
	if flipped {
		s.mu.Lock()
		s.members[id].SlackUserID = slackUserID
		s.mu.Unlock()
	}
	return flipped, err
}

func (s *memberStore) MarkSlackWelcomePosted(_ context.Context, id string) (bool, error) {
	return s.flip(id, func(m *domain.BusinessOwner) *bool { return &m.SlackWelcomePosted })
}

func (s *memberStore) MarkCalendlyBooked(_ context.Context, id string, callAt *time.Time) (bool, error) {
	flipped, err := s.flip(id, func(m *domain.BusinessOwner) *bool { return &m.CalendlyBooked })
	if flipped {
		s.mu.Lock()
		s.members[id].OnboardingCallAt = callAt
		s.mu.Unlock()
	}
	return flipped, err
}

func (s *memberStore) ClearCalendlyBooked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.members[id]; m != nil {
		m.CalendlyBooked = false
	}
	return nil
}

func (s *memberStore) Cancel(_ context.Context, c *domain.Cancellation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.members[c.BusinessOwnerID]
	if m == nil {
		return domain.ErrNotFound
	}
	if m.Status == domain.MemberCancelled {
		return domain.ErrAlreadyCancelled
	}
	c.ID = uuid.NewString()
	m.Status = domain.MemberCancelled
	s.cancellations = append(s.cancellations, c)
	return nil
}

// activityLog collects activity rows in memory
type activityLog struct {
	mu   sync.Mutex
	rows []*domain.Activity
}

func (l *activityLog) Create(_ context.Context, a *domain.Activity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, a)
	return nil
}

func (l *activityLog) List(_ context.Context, _ domain.ActivityFilter) ([]*domain.Activity, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows, len(l.rows), nil
}

func (l *activityLog) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, r.Action)
	}
	return out
}

// outbox collects notifications in memory
type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Name() string { return "outbox" }

func (o *outbox) Notify(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) subjects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.sent))
	for _, m := range o.sent {
		out = append(out, m.Subject)
	}
	return out
}

// memoryClaims is a ClaimStore without TTL expiry
type memoryClaims struct {
	mu       sync.Mutex
	keys     map[string]bool
	released int
}

func newMemoryClaims() *memoryClaims {
	return &memoryClaims{keys: map[string]bool{}}
}

func (c *memoryClaims) Claim(_ context.Context, provider, deliveryID string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := provider + ":" + deliveryID
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *memoryClaims) Release(_ context.Context, provider, deliveryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, provider+":"+deliveryID)
	c.released++
	return nil
}

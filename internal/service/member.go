package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository"
)

// CreateMemberInput is the payload for a manually created member
type CreateMemberInput struct {
	FirstName    string `json:"first_name" validate:"required,max=255"`
	LastName     string `json:"last_name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=50"`
	BusinessName string `json:"business_name" validate:"max=255"`
	HasTeam      bool   `json:"has_team"`
}

// CancelInput describes a membership cancellation
type CancelInput struct {
	Reason        string     `json:"reason" validate:"max=2000"`
	Feedback      string     `json:"feedback" validate:"max=5000"`
	EffectiveDate *time.Time `json:"effective_date"`
}

// MemberService handles business logic for business owners
type MemberService struct {
	memberRepo repository.MemberRepository
	teamRepo   repository.TeamMemberRepository
	noteRepo   repository.NoteRepository
	recorder   *Recorder
}

// NewMemberService creates a new MemberService
func NewMemberService(
	memberRepo repository.MemberRepository,
	teamRepo repository.TeamMemberRepository,
	noteRepo repository.NoteRepository,
	recorder *Recorder,
) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		teamRepo:   teamRepo,
		noteRepo:   noteRepo,
		recorder:   recorder,
	}
}

// List returns a page of members
func (s *MemberService) List(ctx context.Context, filter domain.ListFilter) (*domain.PageResult[*domain.BusinessOwner], error) {
	if filter.Status != "" && !domain.MemberStatus(filter.Status).Valid() {
		return nil, domain.ErrInvalidStatus
	}

	members, total, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return domain.NewPageResult(members, filter.Page, total), nil
}

// Get returns a member with team members and notes
func (s *MemberService) Get(ctx context.Context, id string) (*domain.MemberDetails, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.ListByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	notes, err := s.noteRepo.ListByMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	if team == nil {
		team = []*domain.TeamMember{}
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return &domain.MemberDetails{BusinessOwner: member, TeamMembers: team, Notes: notes}, nil
}

// Create stores a new member at the start of onboarding
func (s *MemberService) Create(ctx context.Context, actor string, in CreateMemberInput) (*domain.BusinessOwner, error) {
	member := &domain.BusinessOwner{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          domain.NormalizeEmail(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		BusinessName:   strings.TrimSpace(in.BusinessName),
		HasTeam:        in.HasTeam,
		Status:         domain.MemberOnboarding,
		OnboardingStep: domain.StepWelcome,
		PaymentStatus:  domain.PaymentPending,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, member.ID, "created", actor, nil)
	return member, nil
}

// Update changes allow-listed fields of a member
func (s *MemberService) Update(ctx context.Context, actor, id string, input map[string]any) (*domain.BusinessOwner, error) {
	fields, err := sanitizeFields(input, memberRules)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, id, "updated", actor, map[string]any{"fields": fieldNames(fields)})
	return member, nil
}

// Delete removes a member and its team
func (s *MemberService) Delete(ctx context.Context, actor, id string) error {
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, domain.EntityMember, id, "deleted", actor, nil)
	return nil
}

// Cancel records a cancellation requested by staff
func (s *MemberService) Cancel(ctx context.Context, actor, id string, in CancelInput) (*domain.Cancellation, error) {
	c := &domain.Cancellation{
		BusinessOwnerID: id,
		Reason:          strings.TrimSpace(in.Reason),
		Feedback:        strings.TrimSpace(in.Feedback),
		Source:          domain.CancellationByStaff,
		ProcessedBy:     actor,
	}
	if in.EffectiveDate != nil {
		c.EffectiveDate = *in.EffectiveDate
	}

	if err := s.memberRepo.Cancel(ctx, c); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, id, "cancelled", actor, map[string]any{
		"cancellation_id": c.ID,
		"source":          c.Source,
		"reason":          c.Reason,
	})
	s.recorder.Notify(ctx, notify.Message{
		Subject: "Membership cancelled",
		Text:    fmt.Sprintf("Member %s cancelled by %s: %s", id, actor, c.Reason),
	})
	return c, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/repository"
)

// CreateTeamMemberInput is the payload for adding a team member to a business owner
type CreateTeamMemberInput struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=50"`
	Role      string `json:"role" validate:"max=100"`
}

// TeamMemberService handles business logic for team members of business owners
type TeamMemberService struct {
	teamRepo   repository.TeamMemberRepository
	memberRepo repository.MemberRepository
	recorder   *Recorder
}

// NewTeamMemberService creates a new TeamMemberService
func NewTeamMemberService(teamRepo repository.TeamMemberRepository, memberRepo repository.MemberRepository, recorder *Recorder) *TeamMemberService {
	return &TeamMemberService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		recorder:   recorder,
	}
}

// ListByOwner returns all team members of a business owner
func (s *TeamMemberService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.TeamMember, error) {
	if _, err := s.memberRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	members, err := s.teamRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	return members, nil
}

// List returns a page of team members across all owners
func (s *TeamMemberService) List(ctx context.Context, filter domain.ListFilter) (*domain.PageResult[*domain.TeamMember], error) {
	if filter.Status != "" && !domain.TeamMemberStatus(filter.Status).Valid() {
		return nil, domain.ErrInvalidStatus
	}

	members, total, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return domain.NewPageResult(members, filter.Page, total), nil
}

// Create adds a team member to an existing business owner
func (s *TeamMemberService) Create(ctx context.Context, actor, ownerID string, in CreateTeamMemberInput) (*domain.TeamMember, error) {
	// Owner must exist
	if _, err := s.memberRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	tm := &domain.TeamMember{
		BusinessOwnerID: ownerID,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           domain.NormalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Role:            strings.TrimSpace(in.Role),
		Status:          domain.TeamMemberInvited,
	}

	if err := s.teamRepo.Create(ctx, tm); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityTeamMember, tm.ID, "created", actor, map[string]any{"member_id": ownerID})
	return tm, nil
}

// Update changes allow-listed fields of a team member
func (s *TeamMemberService) Update(ctx context.Context, actor, id string, input map[string]any) (*domain.TeamMember, error) {
	fields, err := sanitizeFields(input, teamMemberRules)
	if err != nil {
		return nil, err
	}

	tm, err := s.teamRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityTeamMember, id, "updated", actor, map[string]any{"fields": fieldNames(fields)})
	return tm, nil
}

// Delete removes a team member
func (s *TeamMemberService) Delete(ctx context.Context, actor, id string) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, domain.EntityTeamMember, id, "deleted", actor, nil)
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/repository"
)

// CreateNoteInput is the payload for a new note; exactly one target must be set
type CreateNoteInput struct {
	MemberID      string `json:"member_id" validate:"omitempty,uuid"`
	ApplicationID string `json:"application_id" validate:"omitempty,uuid"`
	Content       string `json:"content" validate:"required,max=10000"`
}

// NoteService handles notes attached to members or applications
type NoteService struct {
	noteRepo   repository.NoteRepository
	memberRepo repository.MemberRepository
	appRepo    repository.ApplicationRepository
	recorder   *Recorder
}

// NewNoteService creates a new NoteService
func NewNoteService(
	noteRepo repository.NoteRepository,
	memberRepo repository.MemberRepository,
	appRepo repository.ApplicationRepository,
	recorder *Recorder,
) *NoteService {
	return &NoteService{
		noteRepo:   noteRepo,
		memberRepo: memberRepo,
		appRepo:    appRepo,
		recorder:   recorder,
	}
}

func exactlyOne(memberID, applicationID string) error {
	if (memberID == "") == (applicationID == "") {
		return fmt.Errorf("%w: exactly one of member_id or application_id is required", domain.ErrInvalidInput)
	}
	return nil
}

// List returns notes of a member or of an application
func (s *NoteService) List(ctx context.Context, memberID, applicationID string) ([]*domain.Note, error) {
	if err := exactlyOne(memberID, applicationID); err != nil {
		return nil, err
	}
	if memberID != "" {
		return s.noteRepo.ListByMember(ctx, memberID)
	}
	return s.noteRepo.ListByApplication(ctx, applicationID)
}

// Create stores a note authored by the current staff user
func (s *NoteService) Create(ctx context.Context, author string, in CreateNoteInput) (*domain.Note, error) {
	if err := exactlyOne(in.MemberID, in.ApplicationID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	note := &domain.Note{Author: author, Content: content}
	entity, entityID := domain.EntityMember, in.MemberID

	// Target must exist
	if in.MemberID != "" {
		if _, err := s.memberRepo.GetByID(ctx, in.MemberID); err != nil {
			return nil, err
		}
		note.BusinessOwnerID = &in.MemberID
	} else {
		if _, err := s.appRepo.GetByID(ctx, in.ApplicationID); err != nil {
			return nil, err
		}
		note.ApplicationID = &in.ApplicationID
		entity, entityID = domain.EntityApplication, in.ApplicationID
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, entity, entityID, "note_added", author, map[string]any{"note_id": note.ID})
	return note, nil
}

// Delete removes a note
func (s *NoteService) Delete(ctx context.Context, actor, id string) error {
	if err := s.noteRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, domain.EntityNote, id, "deleted", actor, nil)
	return nil
}

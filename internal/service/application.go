package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository"
)

// CreateApplicationInput is the payload for a manually created application
type CreateApplicationInput struct {
	FirstName     string `json:"first_name" validate:"required,max=255"`
	LastName      string `json:"last_name" validate:"required,max=255"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"max=50"`
	BusinessName  string `json:"business_name" validate:"max=255"`
	BusinessType  string `json:"business_type" validate:"max=255"`
	AnnualRevenue string `json:"annual_revenue" validate:"max=100"`
	Goals         string `json:"goals" validate:"max=5000"`
}

// ApplicationService handles business logic for applications
type ApplicationService struct {
	appRepo  repository.ApplicationRepository
	recorder *Recorder
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(appRepo repository.ApplicationRepository, recorder *Recorder) *ApplicationService {
	return &ApplicationService{
		appRepo:  appRepo,
		recorder: recorder,
	}
}

// List returns a page of applications
func (s *ApplicationService) List(ctx context.Context, filter domain.ListFilter) (*domain.PageResult[*domain.Application], error) {
	if filter.Status != "" && !domain.ApplicationStatus(filter.Status).Valid() {
		return nil, domain.ErrInvalidStatus
	}

	apps, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return domain.NewPageResult(apps, filter.Page, total), nil
}

// Get returns a single application
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	return s.appRepo.GetByID(ctx, id)
}

// Create stores a manual application and announces it
func (s *ApplicationService) Create(ctx context.Context, actor string, in CreateApplicationInput) (*domain.Application, error) {
	app := &domain.Application{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         domain.NormalizeEmail(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		BusinessName:  strings.TrimSpace(in.BusinessName),
		BusinessType:  strings.TrimSpace(in.BusinessType),
		AnnualRevenue: strings.TrimSpace(in.AnnualRevenue),
		Goals:         strings.TrimSpace(in.Goals),
		Source:        domain.SourceManual,
		Status:        domain.ApplicationNew,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityApplication, app.ID, "created", actor, map[string]any{"source": app.Source})
	s.Announce(ctx, app)
	return app, nil
}

// Announce posts the "new application" message at most once per application
func (s *ApplicationService) Announce(ctx context.Context, app *domain.Application) {
	flipped, err := s.appRepo.MarkSlackNotified(ctx, app.ID)
	if err != nil {
		s.recorder.Logger().Sugar().Warnw("failed to set slack_notified", "application_id", app.ID, "error", err)
		return
	}
	if !flipped {
		return
	}
	app.SlackNotified = true

	text := fmt.Sprintf("%s <%s>", app.FullName(), app.Email)
	if app.BusinessName != "" {
		text += " from " + app.BusinessName
	}
	text += fmt.Sprintf(" (source: %s)", app.Source)
	s.recorder.Notify(ctx, notify.Message{Subject: "New application", Text: text})
}

// Update changes allow-listed fields of an application
func (s *ApplicationService) Update(ctx context.Context, actor, id string, input map[string]any) (*domain.Application, error) {
	fields, err := sanitizeFields(input, applicationRules)
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityApplication, id, "updated", actor, map[string]any{"fields": fieldNames(fields)})
	return app, nil
}

// UpdateStatus moves an application through the review states
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor, id string, status domain.ApplicationStatus, reason string) (*domain.Application, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	// Converted is reachable only through Convert
	if status == domain.ApplicationConverted {
		return nil, fmt.Errorf("%w: use the convert endpoint", domain.ErrInvalidStatus)
	}

	var reasonPtr *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonPtr = &r
	}

	app, err := s.appRepo.UpdateStatus(ctx, id, status, actor, reasonPtr)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityApplication, id, "status_changed", actor, map[string]any{
		"status": status,
		"reason": reason,
	})
	return app, nil
}

// Convert turns an application into a business owner in one transaction
func (s *ApplicationService) Convert(ctx context.Context, actor, id string) (*domain.BusinessOwner, *domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// Fast path checks; the repository re-checks under a row lock
	switch app.Status {
	case domain.ApplicationConverted:
		return nil, nil, domain.ErrAlreadyConverted
	case domain.ApplicationRejected:
		return nil, nil, domain.ErrCannotConvert
	}

	member := memberFromApplication(app)
	converted, err := s.appRepo.Convert(ctx, id, member)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.Record(ctx, domain.EntityApplication, id, "converted", actor, map[string]any{"member_id": member.ID})
	s.recorder.Record(ctx, domain.EntityMember, member.ID, "created", actor, map[string]any{"application_id": id})

	s.recorder.Notify(ctx, notify.Message{
		Subject: "Application converted",
		Text:    fmt.Sprintf("%s <%s> is now a member", member.FullName(), member.Email),
	})
	s.recorder.Notify(ctx, notify.Message{
		Subject: "Welcome aboard",
		Text:    fmt.Sprintf("Hi %s, welcome! Your onboarding starts now.", member.FirstName),
		To:      []string{member.Email},
	})

	return member, converted, nil
}

// Delete removes an application
func (s *ApplicationService) Delete(ctx context.Context, actor, id string) error {
	if err := s.appRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, domain.EntityApplication, id, "deleted", actor, nil)
	return nil
}

func memberFromApplication(app *domain.Application) *domain.BusinessOwner {
	return &domain.BusinessOwner{
		FirstName:      app.FirstName,
		LastName:       app.LastName,
		Email:          app.Email,
		Phone:          app.Phone,
		BusinessName:   app.BusinessName,
		Status:         domain.MemberOnboarding,
		OnboardingStep: domain.StepWelcome,
		PaymentStatus:  domain.PaymentPending,
	}
}

func fieldNames(fields map[string]any) []string {
	return slices.Sorted(maps.Keys(fields))
}

// isNotFound reports whether err means a missing record
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

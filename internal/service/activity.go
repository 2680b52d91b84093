package service

import (
	"context"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/repository"
)

// ActivityService exposes the activity log and the cancellation history
type ActivityService struct {
	activityRepo     repository.ActivityRepository
	cancellationRepo repository.CancellationRepository
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repository.ActivityRepository, cancellationRepo repository.CancellationRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo, cancellationRepo: cancellationRepo}
}

// List returns a page of the activity log
func (s *ActivityService) List(ctx context.Context, filter domain.ActivityFilter) (*domain.PageResult[*domain.Activity], error) {
	items, total, err := s.activityRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return domain.NewPageResult(items, filter.Page, total), nil
}

// Cancellations returns a page of cancellations, newest first
func (s *ActivityService) Cancellations(ctx context.Context, page domain.Page) (*domain.PageResult[*domain.Cancellation], error) {
	items, total, err := s.cancellationRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return domain.NewPageResult(items, page, total), nil
}

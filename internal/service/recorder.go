package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository"
)

// ActorSystem is recorded as the actor of automated changes.
const ActorSystem = "system"

// Recorder writes activity rows and sends notifications on a best-effort basis.
// Failures are logged and never returned to the caller.
type Recorder struct {
	activity repository.ActivityRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(activity repository.ActivityRepository, notifier notify.Notifier, logger *zap.Logger) *Recorder {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{activity: activity, notifier: notifier, logger: logger}
}

// Record appends an activity row
func (r *Recorder) Record(ctx context.Context, entity domain.EntityType, entityID, action, actor string, details map[string]any) {
	if actor == "" {
		actor = ActorSystem
	}
	a := &domain.Activity{
		EntityType: entity,
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
		Details:    details,
	}
	if err := r.activity.Create(ctx, a); err != nil {
		r.logger.Warn("failed to record activity",
			zap.String("entity_type", string(entity)),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Notify sends a message through the configured channels
func (r *Recorder) Notify(ctx context.Context, msg notify.Message) {
	if err := r.notifier.Notify(ctx, msg); err != nil {
		r.logger.Warn("notification failed",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

// Logger returns the underlying logger
func (r *Recorder) Logger() *zap.Logger {
	return r.logger
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/metrics"
	"github.com/aidar/member-crm/internal/repository"
	"github.com/aidar/member-crm/internal/webhook"
)

// Webhook result statuses returned to providers
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookUnmatched = "unmatched"
	WebhookIgnored   = "ignored"
	WebhookChallenge = "challenge"
)

// WebhookResult is the JSON body acknowledged to a provider
type WebhookResult struct {
	Status    string `json:"status"`
	EntityID  string `json:"entity_id,omitempty"`
	MatchedBy string `json:"matched_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// WebhookService translates third-party events into CRM changes.
// Each delivery is claimed before processing so side effects run at most once.
type WebhookService struct {
	claims       repository.ClaimStore
	claimTTL     time.Duration
	appRepo      repository.ApplicationRepository
	memberRepo   repository.MemberRepository
	applications *ApplicationService
	onboarding   *OnboardingService
	matcher      *Matcher
	recorder     *Recorder
	now          func() time.Time
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	claims repository.ClaimStore,
	claimTTL time.Duration,
	appRepo repository.ApplicationRepository,
	memberRepo repository.MemberRepository,
	applications *ApplicationService,
	onboarding *OnboardingService,
	matcher *Matcher,
	recorder *Recorder,
) *WebhookService {
	return &WebhookService{
		claims:       claims,
		claimTTL:     claimTTL,
		appRepo:      appRepo,
		memberRepo:   memberRepo,
		applications: applications,
		onboarding:   onboarding,
		matcher:      matcher,
		recorder:     recorder,
		now:          time.Now,
	}
}

// process claims a delivery and runs fn. On error the claim is released so a
// provider retry can go through.
func (s *WebhookService) process(ctx context.Context, provider webhook.Provider, deliveryID string, fn func(context.Context) (*WebhookResult, error)) (*WebhookResult, error) {
	claimed, err := s.claims.Claim(ctx, string(provider), deliveryID, s.claimTTL)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(provider), metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("claim delivery: %w", err)
	}
	if !claimed {
		metrics.WebhookEvents.WithLabelValues(string(provider), metrics.OutcomeDuplicate).Inc()
		return &WebhookResult{Status: WebhookDuplicate}, nil
	}

	res, err := fn(ctx)
	if err != nil {
		if relErr := s.claims.Release(context.WithoutCancel(ctx), string(provider), deliveryID); relErr != nil {
			s.recorder.Logger().Error("failed to release webhook claim",
				zap.String("provider", string(provider)),
				zap.String("delivery_id", deliveryID),
				zap.Error(relErr),
			)
		}
		metrics.WebhookEvents.WithLabelValues(string(provider), metrics.OutcomeFailed).Inc()
		return nil, err
	}

	metrics.WebhookEvents.WithLabelValues(string(provider), outcomeLabel(res.Status)).Inc()
	return res, nil
}

func outcomeLabel(status string) string {
	switch status {
	case WebhookUnmatched:
		return metrics.OutcomeUnmatched
	case WebhookIgnored:
		return metrics.OutcomeIgnored
	default:
		return metrics.OutcomeProcessed
	}
}

// unmatched records an event that could not be linked to any record
func (s *WebhookService) unmatched(ctx context.Context, provider webhook.Provider, event string, id domain.Identity) *WebhookResult {
	s.recorder.Record(ctx, domain.EntityWebhook, "", "unmatched", actorFor(provider), map[string]any{
		"provider":   provider,
		"event":      event,
		"email":      id.Email,
		"phone":      id.Phone,
		"first_name": id.FirstName,
		"last_name":  id.LastName,
	})
	return &WebhookResult{Status: WebhookUnmatched}
}

func ignored(reason string) *WebhookResult {
	return &WebhookResult{Status: WebhookIgnored, Reason: reason}
}

func processed(entityID string, method domain.MatchMethod) *WebhookResult {
	return &WebhookResult{Status: WebhookProcessed, EntityID: entityID, MatchedBy: string(method)}
}

func actorFor(provider webhook.Provider) string {
	return "webhook:" + string(provider)
}

// advance runs the onboarding machine after a flag change; failures are only logged
func (s *WebhookService) advance(ctx context.Context, memberID string) {
	if err := s.onboarding.AutoAdvance(ctx, memberID); err != nil {
		s.recorder.Logger().Warn("onboarding auto-advance failed",
			zap.String("member_id", memberID),
			zap.Error(err),
		)
	}
}

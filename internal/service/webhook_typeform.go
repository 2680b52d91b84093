package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/webhook"
)

// HandleTypeform turns a form_response into a new application
func (s *WebhookService) HandleTypeform(ctx context.Context, body []byte) (*WebhookResult, error) {
	var p webhook.TypeformPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	return s.process(ctx, webhook.ProviderTypeform, p.DeliveryID(), func(ctx context.Context) (*WebhookResult, error) {
		if p.EventType != "form_response" {
			return ignored("unsupported event " + p.EventType), nil
		}

		// Same form response delivered under a new event id
		existing, err := s.appRepo.GetByExternalID(ctx, p.FormResponse.Token)
		if err == nil {
			return &WebhookResult{Status: WebhookIgnored, EntityID: existing.ID, Reason: "response already stored"}, nil
		}
		if !isNotFound(err) {
			return nil, err
		}

		answers := p.AnswersByRef()
		email := domain.NormalizeEmail(answers["email"])
		if email == "" {
			s.recorder.Record(ctx, domain.EntityWebhook, p.FormResponse.Token, "typeform_missing_email", actorFor(webhook.ProviderTypeform), nil)
			return ignored("form response has no email answer"), nil
		}

		token := p.FormResponse.Token
		app := &domain.Application{
			FirstName:     answers["first_name"],
			LastName:      answers["last_name"],
			Email:         email,
			Phone:         answers["phone"],
			BusinessName:  answers["business_name"],
			BusinessType:  answers["business_type"],
			AnnualRevenue: answers["annual_revenue"],
			Goals:         answers["goals"],
			Source:        domain.SourceTypeform,
			ExternalID:    &token,
			Status:        domain.ApplicationNew,
		}
		if app.FirstName == "" && answers["name"] != "" {
			app.FirstName, app.LastName = domain.SplitName(answers["name"])
		}

		if err := s.appRepo.Create(ctx, app); err != nil {
			if errors.Is(err, domain.ErrEmailExists) {
				s.recorder.Record(ctx, domain.EntityWebhook, token, "typeform_duplicate_email", actorFor(webhook.ProviderTypeform), map[string]any{"email": email})
				return ignored("an application with this email already exists"), nil
			}
			if errors.Is(err, domain.ErrDuplicate) {
				return ignored("response already stored"), nil
			}
			return nil, err
		}

		s.recorder.Record(ctx, domain.EntityApplication, app.ID, "created", actorFor(webhook.ProviderTypeform), map[string]any{
			"source":      app.Source,
			"external_id": token,
		})
		s.applications.Announce(ctx, app)

		return processed(app.ID, ""), nil
	})
}

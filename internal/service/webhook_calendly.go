package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/webhook"
)

// Calendly event names
const (
	calendlyInviteeCreated  = "invitee.created"
	calendlyInviteeCanceled = "invitee.canceled"
)

// HandleCalendly tracks onboarding call bookings
func (s *WebhookService) HandleCalendly(ctx context.Context, body []byte) (*WebhookResult, error) {
	var p webhook.CalendlyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	return s.process(ctx, webhook.ProviderCalendly, p.DeliveryID(body), func(ctx context.Context) (*WebhookResult, error) {
		if p.Event != calendlyInviteeCreated && p.Event != calendlyInviteeCanceled {
			return ignored("unsupported event " + p.Event), nil
		}

		first, last := p.Names()
		identity := domain.Identity{Email: p.Payload.Email, Phone: p.Phone(), FirstName: first, LastName: last}

		member, method, err := s.matcher.MatchMember(ctx, identity)
		if isNotFound(err) {
			return s.unmatched(ctx, webhook.ProviderCalendly, p.Event, identity), nil
		}
		if err != nil {
			return nil, err
		}

		actor := actorFor(webhook.ProviderCalendly)

		if p.Event == calendlyInviteeCanceled {
			if err := s.memberRepo.ClearCalendlyBooked(ctx, member.ID); err != nil {
				return nil, err
			}
			s.recorder.Record(ctx, domain.EntityMember, member.ID, "call_canceled", actor, map[string]any{"matched_by": method})
			return processed(member.ID, method), nil
		}

		flipped, err := s.memberRepo.MarkCalendlyBooked(ctx, member.ID, p.Payload.ScheduledEvent.StartTime)
		if err != nil {
			return nil, err
		}
		if flipped {
			s.recorder.Record(ctx, domain.EntityMember, member.ID, "call_booked", actor, map[string]any{
				"matched_by": method,
				"start_time": p.Payload.ScheduledEvent.StartTime,
			})
			text := fmt.Sprintf("%s <%s> booked the onboarding call", member.FullName(), member.Email)
			if p.Payload.ScheduledEvent.StartTime != nil {
				text += " for " + p.Payload.ScheduledEvent.StartTime.UTC().Format("2006-01-02 15:04 MST")
			}
			s.recorder.Notify(ctx, notify.Message{Subject: "Onboarding call booked", Text: text})
			s.advance(ctx, member.ID)
		}

		return processed(member.ID, method), nil
	})
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/webhook"
)

// SamCart notification types
const (
	samcartOrder        = "Order"
	samcartRefund       = "Refund"
	samcartCancel       = "Cancel"
	samcartChargeFailed = "SubscriptionChargeFailed"
)

// HandleSamCart syncs payment status and cancellations
func (s *WebhookService) HandleSamCart(ctx context.Context, body []byte) (*WebhookResult, error) {
	var p webhook.SamCartPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	return s.process(ctx, webhook.ProviderSamCart, p.DeliveryID(body), func(ctx context.Context) (*WebhookResult, error) {
		identity := domain.Identity{
			Email:     p.Customer.Email,
			Phone:     p.Customer.PhoneNumber,
			FirstName: p.Customer.FirstName,
			LastName:  p.Customer.LastName,
		}

		switch p.Type {
		case samcartOrder:
			return s.samcartOrder(ctx, &p, identity)
		case samcartRefund:
			return s.samcartPayment(ctx, &p, identity, domain.PaymentRefunded)
		case samcartChargeFailed:
			return s.samcartPayment(ctx, &p, identity, domain.PaymentFailed)
		case samcartCancel:
			return s.samcartCancel(ctx, &p, identity)
		default:
			return ignored("unsupported type " + p.Type), nil
		}
	})
}

// samcartOrder marks a member paid. Without a member the matching application
// is converted, and without an application a member is created directly.
func (s *WebhookService) samcartOrder(ctx context.Context, p *webhook.SamCartPayload, identity domain.Identity) (*WebhookResult, error) {
	actor := actorFor(webhook.ProviderSamCart)
	orderID := p.OrderID()

	member, method, err := s.matcher.MatchMember(ctx, identity)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	if member == nil {
		member, method, err = s.memberFromOrder(ctx, identity)
		if err != nil {
			return nil, err
		}
	}

	if err := s.memberRepo.SetPaymentStatus(ctx, member.ID, domain.PaymentPaid, orderID); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, member.ID, "payment_received", actor, map[string]any{
		"order_id":   orderID,
		"matched_by": method,
	})
	s.recorder.Notify(ctx, notify.Message{
		Subject: "Payment received",
		Text:    fmt.Sprintf("%s <%s> paid (order %s)", member.FullName(), member.Email, orderID),
	})
	s.advance(ctx, member.ID)

	return processed(member.ID, method), nil
}

// memberFromOrder converts an open application or creates a member from the customer data
func (s *WebhookService) memberFromOrder(ctx context.Context, identity domain.Identity) (*domain.BusinessOwner, domain.MatchMethod, error) {
	actor := actorFor(webhook.ProviderSamCart)

	app, _, err := s.matcher.MatchApplication(ctx, identity)
	if err != nil && !isNotFound(err) {
		return nil, "", err
	}
	if app != nil && app.Status != domain.ApplicationConverted && app.Status != domain.ApplicationRejected {
		member, _, err := s.applications.Convert(ctx, actor, app.ID)
		switch {
		case err == nil:
			return member, "application", nil
		case errors.Is(err, domain.ErrAlreadyConverted), errors.Is(err, domain.ErrCannotConvert):
			// Lost a race with staff; fall through to direct creation
		default:
			return nil, "", err
		}
	}

	email := domain.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, "", fmt.Errorf("%w: order without customer email", domain.ErrInvalidPayload)
	}

	member := &domain.BusinessOwner{
		FirstName:      identity.FirstName,
		LastName:       identity.LastName,
		Email:          email,
		Phone:          identity.Phone,
		Status:         domain.MemberOnboarding,
		OnboardingStep: domain.StepWelcome,
		PaymentStatus:  domain.PaymentPending,
	}
	if app != nil {
		member.ApplicationID = &app.ID
		member.BusinessName = app.BusinessName
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, "", err
	}
	s.recorder.Record(ctx, domain.EntityMember, member.ID, "created", actor, map[string]any{"source": "samcart"})
	return member, "created", nil
}

func (s *WebhookService) samcartPayment(ctx context.Context, p *webhook.SamCartPayload, identity domain.Identity, status domain.PaymentStatus) (*WebhookResult, error) {
	member, method, err := s.matcher.MatchMember(ctx, identity)
	if isNotFound(err) {
		return s.unmatched(ctx, webhook.ProviderSamCart, p.Type, identity), nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.SetPaymentStatus(ctx, member.ID, status, p.OrderID()); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, member.ID, "payment_"+string(status), actorFor(webhook.ProviderSamCart), map[string]any{
		"order_id":   p.OrderID(),
		"matched_by": method,
	})
	s.recorder.Notify(ctx, notify.Message{
		Subject: "Payment " + string(status),
		Text:    fmt.Sprintf("%s <%s>: payment %s (order %s)", member.FullName(), member.Email, status, p.OrderID()),
	})
	return processed(member.ID, method), nil
}

func (s *WebhookService) samcartCancel(ctx context.Context, p *webhook.SamCartPayload, identity domain.Identity) (*WebhookResult, error) {
	member, method, err := s.matcher.MatchMember(ctx, identity)
	if isNotFound(err) {
		return s.unmatched(ctx, webhook.ProviderSamCart, p.Type, identity), nil
	}
	if err != nil {
		return nil, err
	}
	if member.Status == domain.MemberCancelled {
		return &WebhookResult{Status: WebhookIgnored, EntityID: member.ID, Reason: "already cancelled"}, nil
	}

	actor := actorFor(webhook.ProviderSamCart)
	c := &domain.Cancellation{
		BusinessOwnerID: member.ID,
		Reason:          "Cancelled in SamCart",
		Source:          domain.CancellationBySamCart,
		ProcessedBy:     actor,
		EffectiveDate:   s.now().UTC(),
	}
	if err := s.memberRepo.Cancel(ctx, c); err != nil {
		if errors.Is(err, domain.ErrAlreadyCancelled) {
			return &WebhookResult{Status: WebhookIgnored, EntityID: member.ID, Reason: "already cancelled"}, nil
		}
		return nil, err
	}

	s.recorder.Record(ctx, domain.EntityMember, member.ID, "cancelled", actor, map[string]any{
		"cancellation_id": c.ID,
		"source":          c.Source,
		"order_id":        p.OrderID(),
		"matched_by":      method,
	})
	s.recorder.Notify(ctx, notify.Message{
		Subject: "Membership cancelled",
		Text:    fmt.Sprintf("%s <%s> cancelled in SamCart", member.FullName(), member.Email),
	})
	return processed(member.ID, method), nil
}

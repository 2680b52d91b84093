package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/webhook"
)

// Wasender event names
const (
	wasenderGroupParticipants = "group-participants.update"
	wasenderMessageUpsert     = "messages.upsert"
)

// HandleWasender marks members as joined to the WhatsApp group
func (s *WebhookService) HandleWasender(ctx context.Context, body []byte) (*WebhookResult, error) {
	var p webhook.WasenderPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	var (
		phones     []string
		deliveryID = webhook.BodyDigest(body)
		skip       string
	)

	switch p.Event {
	case wasenderGroupParticipants:
		var g webhook.WasenderGroupUpdate
		if err := json.Unmarshal(p.Data, &g); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		if g.Action != "add" {
			skip = "participant action " + g.Action
		}
		phones = g.ParticipantPhones()
	case wasenderMessageUpsert:
		var m webhook.WasenderMessage
		if err := json.Unmarshal(p.Data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		key := m.Messages.Key
		if key.ID != "" {
			deliveryID = "message:" + key.ID
		}
		jid := key.RemoteJID
		if strings.HasSuffix(jid, "@g.us") {
			jid = key.Participant
		}
		if key.FromMe {
			skip = "outgoing message"
		}
		if jid != "" {
			phones = []string{webhook.JIDPhone(jid)}
		}
	default:
		skip = "unsupported event " + p.Event
	}

	return s.process(ctx, webhook.ProviderWasender, deliveryID, func(ctx context.Context) (*WebhookResult, error) {
		if skip != "" {
			return ignored(skip), nil
		}

		var result *WebhookResult
		for _, phone := range phones {
			identity := domain.Identity{Phone: phone}
			member, method, err := s.matcher.MatchMember(ctx, identity)
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := s.markWhatsAppJoined(ctx, member); err != nil {
				return nil, err
			}
			if result == nil {
				result = processed(member.ID, method)
			}
		}

		if result == nil {
			return s.unmatched(ctx, webhook.ProviderWasender, p.Event, domain.Identity{Phone: strings.Join(phones, ",")}), nil
		}
		return result, nil
	})
}

func (s *WebhookService) markWhatsAppJoined(ctx context.Context, member *domain.BusinessOwner) error {
	flipped, err := s.memberRepo.MarkWhatsAppJoined(ctx, member.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if !flipped {
		return nil
	}

	s.recorder.Record(ctx, domain.EntityMember, member.ID, "whatsapp_joined", actorFor(webhook.ProviderWasender), nil)
	s.recorder.Notify(ctx, notify.Message{
		Subject: "WhatsApp group joined",
		Text:    fmt.Sprintf("%s <%s> joined the WhatsApp group", member.FullName(), member.Email),
	})
	s.advance(ctx, member.ID)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/webhook"
)

// Slack Events API envelope and event types
const (
	slackURLVerification = "url_verification"
	slackEventCallback   = "event_callback"
	slackTeamJoin        = "team_join"
)

// HandleSlack answers URL verification and links new workspace users to members
func (s *WebhookService) HandleSlack(ctx context.Context, body []byte) (*WebhookResult, error) {
	var p webhook.SlackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	if p.Type == slackURLVerification {
		return &WebhookResult{Status: WebhookChallenge, Challenge: p.Challenge}, nil
	}

	deliveryID := p.EventID
	if deliveryID == "" {
		deliveryID = webhook.BodyDigest(body)
	}

	return s.process(ctx, webhook.ProviderSlack, deliveryID, func(ctx context.Context) (*WebhookResult, error) {
		if p.Type != slackEventCallback || p.Event.Type != slackTeamJoin {
			return ignored("unsupported event " + p.Type + "/" + p.Event.Type), nil
		}

		user := p.Event.User
		first, last := user.Profile.FirstName, user.Profile.LastName
		if first == "" && last == "" {
			name := user.Profile.RealName
			if name == "" {
				name = user.RealName
			}
			first, last = domain.SplitName(name)
		}
		identity := domain.Identity{Email: user.Profile.Email, Phone: user.Profile.Phone, FirstName: first, LastName: last}

		// Slack profiles are self-edited; only the email is trusted for linking
		member, method, err := s.matcher.MatchMember(ctx, domain.Identity{Email: identity.Email})
		if isNotFound(err) {
			return s.unmatched(ctx, webhook.ProviderSlack, p.Event.Type, identity), nil
		}
		if err != nil {
			return nil, err
		}

		actor := actorFor(webhook.ProviderSlack)

		joined, err := s.memberRepo.MarkSlackJoined(ctx, member.ID, user.ID)
		if err != nil {
			return nil, err
		}
		if joined {
			s.recorder.Record(ctx, domain.EntityMember, member.ID, "slack_joined", actor, map[string]any{
				"slack_user_id": user.ID,
				"matched_by":    method,
			})
		}

		posted, err := s.memberRepo.MarkSlackWelcomePosted(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		if posted {
			s.recorder.Notify(ctx, notify.Message{
				Subject: "New member in Slack",
				Text:    fmt.Sprintf("Please welcome <@%s> (%s from %s)!", user.ID, member.FullName(), businessLabel(member)),
			})
		}

		s.advance(ctx, member.ID)
		return processed(member.ID, method), nil
	})
}

func businessLabel(m *domain.BusinessOwner) string {
	if m.BusinessName != "" {
		return m.BusinessName
	}
	return "their business"
}

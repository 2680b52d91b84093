package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/notify"
	"github.com/aidar/member-crm/internal/repository"
)

// OnboardingService drives the onboarding wizard. Each step has a gate; a step
// can be left only when its gate is open or staff explicitly skip it.
type OnboardingService struct {
	memberRepo repository.MemberRepository
	recorder   *Recorder
}

// NewOnboardingService creates a new OnboardingService
func NewOnboardingService(memberRepo repository.MemberRepository, recorder *Recorder) *OnboardingService {
	return &OnboardingService{memberRepo: memberRepo, recorder: recorder}
}

// stepBlocker returns why the member cannot leave step, or "" when it can.
func stepBlocker(m *domain.BusinessOwner, step domain.OnboardingStep, answers map[string]any) string {
	if skipRequested(answers) && isSkippable(step) {
		return ""
	}

	switch step {
	case domain.StepProfile:
		if answerString(answers, "business_name") == "" && strings.TrimSpace(m.BusinessName) == "" {
			return "business_name is required"
		}
	case domain.StepPayment:
		if m.PaymentStatus != domain.PaymentPaid {
			return "payment has not been received"
		}
	case domain.StepWhatsApp:
		if !m.WhatsAppJoined {
			return "member has not joined the WhatsApp group"
		}
	case domain.StepSlack:
		if !m.SlackJoined {
			return "member has not joined Slack"
		}
	case domain.StepCall:
		if !m.CalendlyBooked {
			return "onboarding call is not booked"
		}
	case domain.StepComplete:
		return "onboarding already complete"
	}
	return ""
}

// isFlagGated reports steps that wait for an external system
func isFlagGated(step domain.OnboardingStep) bool {
	switch step {
	case domain.StepPayment, domain.StepWhatsApp, domain.StepSlack, domain.StepCall:
		return true
	}
	return false
}

// isSkippable reports steps staff may pass with "skip". Payment is never skippable.
func isSkippable(step domain.OnboardingStep) bool {
	return isFlagGated(step) && step != domain.StepPayment
}

// nextStep returns the step after current, skipping team for owners without a team
func nextStep(current domain.OnboardingStep, hasTeam bool) domain.OnboardingStep {
	next := current.Next()
	if next == domain.StepTeam && !hasTeam {
		next = next.Next()
	}
	return next
}

// State returns the position of a member in the wizard
func (s *OnboardingService) State(ctx context.Context, id string) (*domain.OnboardingState, error) {
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildState(m), nil
}

func buildState(m *domain.BusinessOwner) *domain.OnboardingState {
	current := m.OnboardingStep
	if current.Index() < 0 {
		current = domain.StepWelcome
	}

	state := &domain.OnboardingState{
		MemberID:       m.ID,
		CurrentStep:    current,
		CompletedSteps: []domain.OnboardingStep{},
		Completed:      current == domain.StepComplete,
	}
	for _, step := range domain.OnboardingSteps[:current.Index()] {
		if step == domain.StepTeam && !m.HasTeam {
			continue
		}
		state.CompletedSteps = append(state.CompletedSteps, step)
	}
	if !state.Completed {
		next := nextStep(current, m.HasTeam)
		state.NextStep = &next
		state.Blocker = stepBlocker(m, current, nil)
	}
	return state
}

// Advance completes the current step of a member. Profile answers
// (business_name, phone, has_team) are stored before the gate is checked.
func (s *OnboardingService) Advance(ctx context.Context, actor, id string, answers map[string]any) (*domain.OnboardingState, error) {
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.MemberCancelled {
		return nil, fmt.Errorf("%w: membership is cancelled", domain.ErrStepNotReady)
	}

	if m.OnboardingStep == domain.StepProfile {
		if m, err = s.saveProfileAnswers(ctx, actor, m, answers); err != nil {
			return nil, err
		}
	}

	if reason := stepBlocker(m, m.OnboardingStep, answers); reason != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrStepNotReady, reason)
	}

	if _, err := s.step(ctx, actor, m, skipRequested(answers) && isSkippable(m.OnboardingStep)); err != nil {
		return nil, err
	}
	return s.State(ctx, id)
}

// AutoAdvance moves a member past every flag-gated step whose gate is open.
// Webhook processors call it after flipping a flag.
func (s *OnboardingService) AutoAdvance(ctx context.Context, id string) error {
	for range domain.OnboardingSteps {
		m, err := s.memberRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m.Status == domain.MemberCancelled || !isFlagGated(m.OnboardingStep) {
			return nil
		}
		if stepBlocker(m, m.OnboardingStep, nil) != "" {
			return nil
		}
		moved, err := s.step(ctx, ActorSystem, m, false)
		if err != nil || !moved {
			return err
		}
	}
	return nil
}

// step performs one guarded transition. It returns false when another
// request changed the step first.
func (s *OnboardingService) step(ctx context.Context, actor string, m *domain.BusinessOwner, skipped bool) (bool, error) {
	from := m.OnboardingStep
	to := nextStep(from, m.HasTeam)

	moved, err := s.memberRepo.AdvanceStep(ctx, m.ID, from, to)
	if err != nil {
		return false, fmt.Errorf("advance onboarding: %w", err)
	}
	if !moved {
		if actor == ActorSystem {
			return false, nil
		}
		return false, fmt.Errorf("%w: step changed concurrently, reload and retry", domain.ErrStepNotReady)
	}

	s.recorder.Record(ctx, domain.EntityMember, m.ID, "onboarding_advanced", actor, map[string]any{
		"from":    from,
		"to":      to,
		"skipped": skipped,
	})

	if to == domain.StepComplete {
		s.recorder.Notify(ctx, notify.Message{
			Subject: "Onboarding complete",
			Text:    fmt.Sprintf("%s <%s> finished onboarding", m.FullName(), m.Email),
		})
	}
	return true, nil
}

func (s *OnboardingService) saveProfileAnswers(ctx context.Context, actor string, m *domain.BusinessOwner, answers map[string]any) (*domain.BusinessOwner, error) {
	input := map[string]any{}
	for _, key := range []string{"business_name", "phone", "has_team"} {
		if v, ok := answers[key]; ok {
			input[key] = v
		}
	}
	if len(input) == 0 {
		return m, nil
	}

	fields, err := sanitizeFields(input, memberRules)
	if err != nil {
		return nil, err
	}
	updated, err := s.memberRepo.Update(ctx, m.ID, fields)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, domain.EntityMember, m.ID, "profile_answered", actor, map[string]any{"fields": fieldNames(fields)})
	return updated, nil
}

func skipRequested(answers map[string]any) bool {
	skip, _ := answers["skip"].(bool)
	return skip
}

func answerString(answers map[string]any, key string) string {
	s, _ := answers[key].(string)
	return strings.TrimSpace(s)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/domain"
)

func newOnboardingFixture(members ...*domain.BusinessOwner) (*OnboardingService, *memberStore, *activityLog, *outbox) {
	store := newMemberStore(members...)
	log := &activityLog{}
	out := &outbox{}
	return NewOnboardingService(store, NewRecorder(log, out, zap.NewNop())), store, log, out
}

func TestOnboarding_ProfileRequiresBusinessName(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{ID: "m1", OnboardingStep: domain.StepProfile})

	_, err := svc.Advance(context.Background(), "staff@example.com", "m1", nil)

	require.ErrorIs(t, err, domain.ErrStepNotReady)
	assert.Contains(t, err.Error(), "business_name")
}

func TestOnboarding_ProfileAnswersSkipTeamStep(t *testing.T) {
	svc, store, log, _ := newOnboardingFixture(&domain.BusinessOwner{ID: "m1", OnboardingStep: domain.StepProfile})

	state, err := svc.Advance(context.Background(), "staff@example.com", "m1", map[string]any{
		"business_name": "Acme",
		"has_team":      false,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, state.CurrentStep)
	assert.Equal(t, []domain.OnboardingStep{domain.StepWelcome, domain.StepProfile}, state.CompletedSteps)
	assert.Equal(t, "Acme", store.get("m1").BusinessName)
	assert.Contains(t, log.actions(), "profile_answered")
	assert.Contains(t, log.actions(), "onboarding_advanced")
}

func TestOnboarding_TeamStepWhenOwnerHasTeam(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{ID: "m1", OnboardingStep: domain.StepProfile})

	state, err := svc.Advance(context.Background(), "staff@example.com", "m1", map[string]any{
		"business_name": "Acme",
		"has_team":      true,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StepTeam, state.CurrentStep)
}

func TestOnboarding_PaymentGate(t *testing.T) {
	svc, store, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		OnboardingStep: domain.StepPayment,
		PaymentStatus:  domain.PaymentPending,
	})

	_, err := svc.Advance(context.Background(), "staff@example.com", "m1", nil)
	require.ErrorIs(t, err, domain.ErrStepNotReady)

	require.NoError(t, store.SetPaymentStatus(context.Background(), "m1", domain.PaymentPaid, "o-1"))

	state, err := svc.Advance(context.Background(), "staff@example.com", "m1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StepWhatsApp, state.CurrentStep)
}

func TestOnboarding_StaffSkipOverridesFlagGate(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{ID: "m1", OnboardingStep: domain.StepWhatsApp})

	state, err := svc.Advance(context.Background(), "staff@example.com", "m1", map[string]any{"skip": true})

	require.NoError(t, err)
	assert.Equal(t, domain.StepSlack, state.CurrentStep)
}

func TestOnboarding_SkipDoesNotBypassProfile(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{ID: "m1", OnboardingStep: domain.StepProfile})

	_, err := svc.Advance(context.Background(), "staff@example.com", "m1", map[string]any{"skip": true})

	assert.ErrorIs(t, err, domain.ErrStepNotReady)
}

func TestOnboarding_SkipDoesNotBypassPayment(t *testing.T) {
	svc, store, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		OnboardingStep: domain.StepPayment,
		PaymentStatus:  domain.PaymentPending,
	})

	_, err := svc.Advance(context.Background(), "staff@example.com", "m1", map[string]any{"skip": true})

	require.ErrorIs(t, err, domain.ErrStepNotReady)
	assert.Equal(t, domain.StepPayment, store.get("m1").OnboardingStep)
}

func TestOnboarding_CompleteActivatesMember(t *testing.T) {
	svc, store, _, out := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		OnboardingStep: domain.StepCall,
		CalendlyBooked: true,
	})

	state, err := svc.Advance(context.Background(), "staff@example.com", "m1", nil)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Nil(t, state.NextStep)
	m := store.get("m1")
	assert.Equal(t, domain.MemberActive, m.Status)
	assert.NotNil(t, m.OnboardingCompletedAt)
	assert.Contains(t, out.subjects(), "Onboarding complete")

	_, err = svc.Advance(context.Background(), "staff@example.com", "m1", nil)
	assert.ErrorIs(t, err, domain.ErrStepNotReady)
}

func TestOnboarding_CancelledMemberCannotAdvance(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		Status:         domain.MemberCancelled,
		OnboardingStep: domain.StepWelcome,
	})

	_, err := svc.Advance(context.Background(), "staff@example.com", "m1", nil)

	assert.ErrorIs(t, err, domain.ErrStepNotReady)
}

func TestOnboarding_AutoAdvanceRunsThroughOpenGates(t *testing.T) {
	svc, store, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		Status:         domain.MemberOnboarding,
		OnboardingStep: domain.StepPayment,
		PaymentStatus:  domain.PaymentPaid,
		WhatsAppJoined: true,
	})

	require.NoError(t, svc.AutoAdvance(context.Background(), "m1"))

	assert.Equal(t, domain.StepSlack, store.get("m1").OnboardingStep)
}

func TestOnboarding_AutoAdvanceLeavesHumanStepsAlone(t *testing.T) {
	svc, store, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		OnboardingStep: domain.StepWelcome,
		PaymentStatus:  domain.PaymentPaid,
	})

	require.NoError(t, svc.AutoAdvance(context.Background(), "m1"))

	assert.Equal(t, domain.StepWelcome, store.get("m1").OnboardingStep)
}

func TestOnboarding_State(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture(&domain.BusinessOwner{
		ID:             "m1",
		OnboardingStep: domain.StepSlack,
		HasTeam:        true,
	})

	state, err := svc.State(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, domain.StepSlack, state.CurrentStep)
	assert.Equal(t, []domain.OnboardingStep{
		domain.StepWelcome, domain.StepProfile, domain.StepTeam, domain.StepPayment, domain.StepWhatsApp,
	}, state.CompletedSteps)
	require.NotNil(t, state.NextStep)
	assert.Equal(t, domain.StepCall, *state.NextStep)
	assert.Equal(t, "member has not joined Slack", state.Blocker)
}

func TestOnboarding_StateUnknownMember(t *testing.T) {
	svc, _, _, _ := newOnboardingFixture()

	_, err := svc.State(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package domain

// OnboardingStep представляет шаг мастера онбординга
type OnboardingStep string

// Шаги онбординга в порядке прохождения
const (
	StepWelcome  OnboardingStep = "welcome"
	StepProfile  OnboardingStep = "profile"
	StepTeam     OnboardingStep = "team"
	StepPayment  OnboardingStep = "payment"
	StepWhatsApp OnboardingStep = "whatsapp"
	StepSlack    OnboardingStep = "slack"
	StepCall     OnboardingStep = "call"
	StepComplete OnboardingStep = "complete"
)

// OnboardingSteps порядок шагов
var OnboardingSteps = []OnboardingStep{
	StepWelcome,
	StepProfile,
	StepTeam,
	StepPayment,
	StepWhatsApp,
	StepSlack,
	StepCall,
	StepComplete,
}

// Index возвращает позицию шага или -1 для неизвестного шага
func (s OnboardingStep) Index() int {
	for i, step := range OnboardingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next возвращает следующий шаг; для complete возвращает complete
func (s OnboardingStep) Next() OnboardingStep {
	i := s.Index()
	if i < 0 || i >= len(OnboardingSteps)-1 {
		return StepComplete
	}
	return OnboardingSteps[i+1]
}

// OnboardingState описывает положение участника в мастере
type OnboardingState struct {
	MemberID       string           `json:"member_id"`
	CurrentStep    OnboardingStep   `json:"current_step"`
	CompletedSteps []OnboardingStep `json:"completed_steps"`
	NextStep       *OnboardingStep  `json:"next_step,omitempty"`
	Completed      bool             `json:"completed"`
	Blocker        string           `json:"blocker,omitempty"`
}

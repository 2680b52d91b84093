package service

import (
	"fmt"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/validator"
)

// fieldRule converts a decoded JSON value into a column value or rejects it.
type fieldRule func(v any) (any, error)

func textRule(required bool, max int) fieldRule {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string", domain.ErrInvalidInput)
		}
		s = strings.TrimSpace(s)
		if required && s == "" {
			return nil, fmt.Errorf("%w: must not be empty", domain.ErrInvalidInput)
		}
		if len(s) > max {
			return nil, fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidInput, max)
		}
		return s, nil
	}
}

func emailRule(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string", domain.ErrInvalidInput)
	}
	s = domain.NormalizeEmail(s)
	if !validator.Var(s, "required,email") {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return s, nil
}

func boolRule(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: expected boolean", domain.ErrInvalidInput)
	}
	return b, nil
}

func enumRule(valid func(string) bool) fieldRule {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok || !valid(s) {
			return nil, domain.ErrInvalidStatus
		}
		return s, nil
	}
}

var (
	applicationRules = map[string]fieldRule{
		"first_name":     textRule(true, 255),
		"last_name":      textRule(true, 255),
		"email":          emailRule,
		"phone":          textRule(false, 50),
		"business_name":  textRule(false, 255),
		"business_type":  textRule(false, 255),
		"annual_revenue": textRule(false, 100),
		"goals":          textRule(false, 5000),
	}

	memberRules = map[string]fieldRule{
		"first_name":    textRule(true, 255),
		"last_name":     textRule(true, 255),
		"email":         emailRule,
		"phone":         textRule(false, 50),
		"business_name": textRule(false, 255),
		"status":        enumRule(func(s string) bool { return domain.MemberStatus(s).Valid() }),
		"has_team":      boolRule,
		"payment_status": enumRule(func(s string) bool {
			return domain.PaymentStatus(s).Valid()
		}),
	}

	teamMemberRules = map[string]fieldRule{
		"first_name": textRule(true, 255),
		"last_name":  textRule(false, 255),
		"email":      emailRule,
		"phone":      textRule(false, 50),
		"role":       textRule(false, 100),
		"status":     enumRule(func(s string) bool { return domain.TeamMemberStatus(s).Valid() }),
	}
)

// sanitizeFields keeps only fields with a rule and converts their values.
// Unknown fields are ignored; an input with no known field is rejected.
func sanitizeFields(input map[string]any, rules map[string]fieldRule) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for name, raw := range input {
		rule, ok := rules[name]
		if !ok {
			continue
		}
		val, err := rule(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = val
	}
	if len(out) == 0 {
		return nil, domain.ErrNoFields
	}
	return out, nil
}

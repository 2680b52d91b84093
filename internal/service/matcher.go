package service

import (
	"context"
	"strings"

	"github.com/aidar/member-crm/internal/domain"
	"github.com/aidar/member-crm/internal/repository"
)

// Matcher reconciles identities from third-party payloads with CRM records.
// The order is email, then phone, then name. Phone and name matches are only
// accepted when exactly one record qualifies.
type Matcher struct {
	memberRepo repository.MemberRepository
	appRepo    repository.ApplicationRepository
}

// NewMatcher creates a new Matcher
func NewMatcher(memberRepo repository.MemberRepository, appRepo repository.ApplicationRepository) *Matcher {
	return &Matcher{memberRepo: memberRepo, appRepo: appRepo}
}

// MatchMember finds the member an identity belongs to
func (m *Matcher) MatchMember(ctx context.Context, id domain.Identity) (*domain.BusinessOwner, domain.MatchMethod, error) {
	if email := domain.NormalizeEmail(id.Email); email != "" {
		found, err := m.memberRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		if len(found) > 0 {
			return found[0], domain.MatchByEmail, nil
		}
	}

	if digits := domain.NormalizePhone(id.Phone); digits != "" {
		found, err := m.memberRepo.FindByPhone(ctx, digits)
		if err != nil {
			return nil, "", err
		}
		if len(found) == 1 {
			return found[0], domain.MatchByPhone, nil
		}
	}

	first, last := strings.TrimSpace(id.FirstName), strings.TrimSpace(id.LastName)
	if first != "" && last != "" {
		found, err := m.memberRepo.FindByName(ctx, first, last)
		if err != nil {
			return nil, "", err
		}
		if len(found) == 1 {
			return found[0], domain.MatchByName, nil
		}
	}

	return nil, "", domain.ErrNotFound
}

// MatchApplication finds an application by email, then by an unambiguous phone
func (m *Matcher) MatchApplication(ctx context.Context, id domain.Identity) (*domain.Application, domain.MatchMethod, error) {
	if email := domain.NormalizeEmail(id.Email); email != "" {
		found, err := m.appRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		if len(found) > 0 {
			return found[0], domain.MatchByEmail, nil
		}
	}

	if digits := domain.NormalizePhone(id.Phone); digits != "" {
		found, err := m.appRepo.FindByPhone(ctx, digits)
		if err != nil {
			return nil, "", err
		}
		if len(found) == 1 {
			return found[0], domain.MatchByPhone, nil
		}
	}

	return nil, "", domain.ErrNotFound
}

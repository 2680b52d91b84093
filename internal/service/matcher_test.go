package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aidar/member-crm/internal/domain"
)

func TestMatcher_MatchMember_EmailFirst(t *testing.T) {
	repo := &mockMemberFinder{memberStore: newMemberStore()}
	owner := &domain.BusinessOwner{ID: "m1", Email: "jane@example.com"}
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return([]*domain.BusinessOwner{owner}, nil)

	m := NewMatcher(repo, nil)
	got, method, err := m.MatchMember(context.Background(), domain.Identity{
		Email: "  Jane@Example.com ",
		Phone: "+1 (555) 123-4567",
	})

	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, domain.MatchByEmail, method)
	repo.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcher_MatchMember_FallsBackToPhone(t *testing.T) {
	repo := &mockMemberFinder{memberStore: newMemberStore()}
	owner := &domain.BusinessOwner{ID: "m2"}
	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return([]*domain.BusinessOwner{}, nil)
	repo.On("FindByPhone", mock.Anything, "5551234567").Return([]*domain.BusinessOwner{owner}, nil)

	m := NewMatcher(repo, nil)
	got, method, err := m.MatchMember(context.Background(), domain.Identity{
		Email: "nobody@example.com",
		Phone: "+1 (555) 123-4567",
	})

	require.NoError(t, err)
	assert.Equal(t, "m2", got.ID)
	assert.Equal(t, domain.MatchByPhone, method)
}

func TestMatcher_MatchMember_AmbiguousPhoneFallsBackToName(t *testing.T) {
	repo := &mockMemberFinder{memberStore: newMemberStore()}
	repo.On("FindByPhone", mock.Anything, "5551234567").Return([]*domain.BusinessOwner{{ID: "a"}, {ID: "b"}}, nil)
	repo.On("FindByName", mock.Anything, "Jane", "Doe").Return([]*domain.BusinessOwner{{ID: "c"}}, nil)

	m := NewMatcher(repo, nil)
	got, method, err := m.MatchMember(context.Background(), domain.Identity{
		Phone:     "5551234567",
		FirstName: "Jane",
		LastName:  "Doe",
	})

	require.NoError(t, err)
	assert.Equal(t, "c", got.ID)
	assert.Equal(t, domain.MatchByName, method)
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestMatcher_MatchMember_AmbiguousNameIsNotFound(t *testing.T) {
	repo := &mockMemberFinder{memberStore: newMemberStore()}
	repo.On("FindByName", mock.Anything, "John", "Smith").Return([]*domain.BusinessOwner{{ID: "a"}, {ID: "b"}}, nil)

	m := NewMatcher(repo, nil)
	_, _, err := m.MatchMember(context.Background(), domain.Identity{FirstName: "John", LastName: "Smith"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatcher_MatchMember_ShortPhoneIgnored(t *testing.T) {
	repo := &mockMemberFinder{memberStore: newMemberStore()}

	m := NewMatcher(repo, nil)
	_, _, err := m.MatchMember(context.Background(), domain.Identity{Phone: "12-34"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
}

func TestMatcher_MatchApplication(t *testing.T) {
	appRepo := new(mockAppRepo)
	appRepo.On("FindByEmail", mock.Anything, "lead@example.com").Return([]*domain.Application{}, nil)
	appRepo.On("FindByPhone", mock.Anything, "5550001111").Return([]*domain.Application{{ID: "app-1"}}, nil)

	m := NewMatcher(nil, appRepo)
	app, method, err := m.MatchApplication(context.Background(), domain.Identity{
		Email: "lead@example.com",
		Phone: "555-000-1111",
	})

	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, domain.MatchByPhone, method)
	appRepo.AssertExpectations(t)
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryRole_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  Role
		ok    bool
	}{
		{"empty", nil, "", false},
		{"intern only", []Role{RoleIntern}, RoleIntern, true},
		{"employer beats intern", []Role{RoleIntern, RoleEmployer}, RoleEmployer, true},
		{"admin beats all", []Role{RoleIntern, RoleEmployer, RoleAdmin}, RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrimaryRole(tt.roles)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelfServiceRole(t *testing.T) {
	assert.Equal(t, RoleEmployer, SelfServiceRole("employer"))
	assert.Equal(t, RoleIntern, SelfServiceRole("Intern"))
	assert.Equal(t, RoleIntern, SelfServiceRole("Admin"), "admin is never self-assigned")
	assert.Equal(t, RoleIntern, SelfServiceRole(""))
	assert.Equal(t, RoleIntern, SelfServiceRole("owner"))
}

func TestInterviewStatus_CanTransition(t *testing.T) {
	assert.True(t, InterviewPlanned.CanTransition(InterviewCompleted))
	assert.True(t, InterviewPlanned.CanTransition(InterviewCanceled))
	assert.False(t, InterviewPlanned.CanTransition(InterviewPlanned))
	assert.False(t, InterviewCompleted.CanTransition(InterviewCanceled))
	assert.False(t, InterviewCanceled.CanTransition(InterviewPlanned))
}

func TestParseReviewStatus_RejectsPending(t *testing.T) {
	_, ok := ParseReviewStatus("Pending")
	assert.False(t, ok)
	st, ok := ParseReviewStatus("inreview")
	assert.True(t, ok)
	assert.Equal(t, ApplicationInReview, st)
}

func TestJobFilter_Matches(t *testing.T) {
	post := &InternshipPost{
		Title:           "Backend Intern",
		Description:     "Go and Postgres",
		City:            "Izmir",
		WorkType:        "Remote",
		EmployerProfile: &EmployerProfile{CompanyName: "Acme Labs"},
	}
	assert.True(t, JobFilter{}.Matches(post))
	assert.True(t, JobFilter{Text: "Postgres"}.Matches(post))
	assert.False(t, JobFilter{Text: "backend"}.Matches(post), "text match is case-sensitive")
	assert.True(t, JobFilter{City: "Izmir", WorkType: "Remote"}.Matches(post))
	assert.False(t, JobFilter{City: "Izm"}.Matches(post), "city is exact")
	assert.True(t, JobFilter{CompanyName: "Acme"}.Matches(post))
	assert.False(t, JobFilter{CompanyName: "Acme"}.Matches(&InternshipPost{Title: "x"}))
}

func TestValidationError_IsValidation(t *testing.T) {
	err := NewValidationError().Add("password", "too short").Add("password", "ignored")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "too short", err.Fields["password"])
	assert.Nil(t, NewValidationError().OrNil())

	assert.True(t, errors.Is(ErrAlreadyApplied, ErrConflict))
	assert.True(t, errors.Is(ErrInternProfileRequired, ErrValidation))
}

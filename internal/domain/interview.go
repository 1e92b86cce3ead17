package domain

import (
	"context"
	"strings"
	"time"
)

type InterviewStatus string

const (
	InterviewPlanned   InterviewStatus = "Planned"
	InterviewCompleted InterviewStatus = "Completed"
	InterviewCanceled  InterviewStatus = "Canceled"
)

const DefaultInterviewLocation = "Online"

func ParseInterviewStatus(s string) (InterviewStatus, bool) {
	for _, st := range []InterviewStatus{InterviewPlanned, InterviewCompleted, InterviewCanceled} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// CanTransition Planned → Completed|Canceled，终态不可再变
func (s InterviewStatus) CanTransition(to InterviewStatus) bool {
	return s == InterviewPlanned && (to == InterviewCompleted || to == InterviewCanceled)
}

type Interview struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	EmployerProfileID uint             `gorm:"index;not null" json:"employerProfileId"`
	EmployerProfile   *EmployerProfile `gorm:"constraint:OnDelete:CASCADE" json:"employer,omitempty"`
	InternProfileID   uint             `gorm:"index;not null" json:"internProfileId"`
	InternProfile     *InternProfile   `gorm:"constraint:OnDelete:CASCADE" json:"intern,omitempty"`
	InternshipPostID  uint             `gorm:"index;not null" json:"internshipPostId"`
	InternshipPost    *InternshipPost  `gorm:"constraint:OnDelete:CASCADE" json:"post,omitempty"`
	ScheduledAt       time.Time        `gorm:"not null" json:"scheduledAt"`
	Location          string           `gorm:"size:200" json:"location"`
	Note              string           `gorm:"size:500" json:"note"`
	Status            InterviewStatus  `gorm:"size:16;not null" json:"status"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type InterviewRepository interface {
	Create(ctx context.Context, iv *Interview) error
	FindForEmployer(ctx context.Context, id, employerProfileID uint) (*Interview, error)
	UpdateStatus(ctx context.Context, id uint, status InterviewStatus) error
	ListByEmployer(ctx context.Context, employerProfileID uint) ([]Interview, error)
	ListByIntern(ctx context.Context, internProfileID uint) ([]Interview, error)
}

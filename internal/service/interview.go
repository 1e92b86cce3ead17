package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"internship-portal/internal/domain"
)

type InterviewService struct {
	interviews domain.InterviewRepository
	profiles   domain.ProfileRepository
	posts      domain.PostRepository
	log        *zap.Logger
}

func NewInterviewService(interviews domain.InterviewRepository, profiles domain.ProfileRepository, posts domain.PostRepository, log *zap.Logger) *InterviewService {
	return &InterviewService{interviews: interviews, profiles: profiles, posts: posts, log: log}
}

type ScheduleInput struct {
	InternProfileID  uint      `json:"internProfileId" binding:"required"`
	InternshipPostID uint      `json:"internshipPostId" binding:"required"`
	ScheduledAt      time.Time `json:"scheduledAt"`
	Location         string    `json:"location"`
	Note             string    `json:"note"`
}

// Schedule 只有岗位所属雇主可安排；地点为空时默认 Online
func (s *InterviewService) Schedule(ctx context.Context, uid string, in ScheduleInput) (*domain.Interview, error) {
	ve := domain.NewValidationError()
	if in.ScheduledAt.IsZero() {
		ve.Add("scheduledAt", "is required")
	}
	checkLen(ve, "location", in.Location, 200)
	checkLen(ve, "note", in.Note, 500)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, domain.ErrEmployerProfileRequired
	}
	ip, err := s.profiles.FindInternByID(ctx, in.InternProfileID)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.posts.FindByID(ctx, in.InternshipPostID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.EmployerProfileID != ep.ID {
		return nil, domain.ErrForbidden
	}

	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		loc = domain.DefaultInterviewLocation
	}
	iv := &domain.Interview{
		EmployerProfileID: ep.ID,
		InternProfileID:   ip.ID,
		InternshipPostID:  p.ID,
		ScheduledAt:       in.ScheduledAt,
		Location:          loc,
		Note:              strings.TrimSpace(in.Note),
		Status:            domain.InterviewPlanned,
	}
	if err := s.interviews.Create(ctx, iv); err != nil {
		return nil, err
	}
	interviewsTotal.Inc()
	s.log.Info("interview scheduled", zap.Uint("interview", iv.ID), zap.Uint("post", p.ID))
	return iv, nil
}

// UpdateStatus 不属于调用者的面试一律 NotFound
func (s *InterviewService) UpdateStatus(ctx context.Context, uid string, id uint, status domain.InterviewStatus) error {
	status, ok := domain.ParseInterviewStatus(string(status))
	if !ok {
		return domain.Invalid("status", "must be one of Planned, Completed, Canceled")
	}
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return err
	}
	if ep == nil {
		return domain.ErrNotFound
	}
	iv, err := s.interviews.FindForEmployer(ctx, id, ep.ID)
	if err != nil {
		return err
	}
	if iv == nil {
		return domain.ErrNotFound
	}
	if iv.Status == status {
		return nil
	}
	if !iv.Status.CanTransition(status) {
		return domain.ErrInvalidTransition
	}
	return s.interviews.UpdateStatus(ctx, id, status)
}

func (s *InterviewService) EmployerInterviews(ctx context.Context, uid string) ([]domain.Interview, error) {
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return []domain.Interview{}, nil
	}
	return s.interviews.ListByEmployer(ctx, ep.ID)
}

func (s *InterviewService) InternInterviews(ctx context.Context, uid string) ([]domain.Interview, error) {
	ip, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return []domain.Interview{}, nil
	}
	return s.interviews.ListByIntern(ctx, ip.ID)
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"internship-portal/internal/domain"
)

type PostingService struct {
	posts    domain.PostRepository
	apps     domain.ApplicationRepository
	profiles domain.ProfileRepository
	messages domain.MessageRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewPostingService(
	posts domain.PostRepository,
	apps domain.ApplicationRepository,
	profiles domain.ProfileRepository,
	messages domain.MessageRepository,
	log *zap.Logger,
) *PostingService {
	return &PostingService{posts: posts, apps: apps, profiles: profiles, messages: messages, log: log, now: time.Now}
}

type PostInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	City        string     `json:"city" binding:"required"`
	WorkType    string     `json:"workType"`
	Duration    string     `json:"duration"`
	Deadline    *time.Time `json:"deadline"`
	IsActive    *bool      `json:"isActive"`
}

func (s *PostingService) CreatePost(ctx context.Context, uid string, in PostInput) (*domain.InternshipPost, error) {
	ve := domain.NewValidationError()
	if strings.TrimSpace(in.Title) == "" {
		ve.Add("title", "is required")
	}
	if strings.TrimSpace(in.City) == "" {
		ve.Add("city", "is required")
	}
	checkLen(ve, "title", in.Title, 200)
	checkLen(ve, "city", in.City, 100)
	checkLen(ve, "workType", in.WorkType, 50)
	checkLen(ve, "duration", in.Duration, 50)
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
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &domain.InternshipPost{
		EmployerProfileID: ep.ID,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		City:              strings.TrimSpace(in.City),
		WorkType:          strings.TrimSpace(in.WorkType),
		Duration:          strings.TrimSpace(in.Duration),
		Deadline:          in.Deadline,
		IsActive:          active,
		CreatedDate:       s.now(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	p.EmployerProfile = ep
	s.log.Info("post created", zap.Uint("post", p.ID), zap.Uint("employer", ep.ID))
	return p, nil
}

// ownPost 雇主资料缺失 → 校验错误；岗位不存在 → NotFound；非本人 → Forbidden
func (s *PostingService) ownPost(ctx context.Context, uid string, postID uint) (*domain.InternshipPost, *domain.EmployerProfile, error) {
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if ep == nil {
		return nil, nil, domain.ErrEmployerProfileRequired
	}
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, domain.ErrNotFound
	}
	if p.EmployerProfileID != ep.ID {
		return nil, nil, domain.ErrForbidden
	}
	return p, ep, nil
}

func (s *PostingService) SetPostActive(ctx context.Context, uid string, postID uint, active bool) error {
	if _, _, err := s.ownPost(ctx, uid, postID); err != nil {
		return err
	}
	return s.posts.SetActive(ctx, postID, active)
}

func (s *PostingService) DeleteOwnPost(ctx context.Context, uid string, postID uint) error {
	if _, _, err := s.ownPost(ctx, uid, postID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// DeletePost 管理端删除，连带投递与面试
func (s *PostingService) DeletePost(ctx context.Context, postID uint) error {
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.log.Info("post deleted", zap.Uint("post", postID))
	return nil
}

// SearchJobs 只返回开放岗位；city/workType 在库里过滤，子串条件在内存中区分大小写匹配
func (s *PostingService) SearchJobs(ctx context.Context, f domain.JobFilter) ([]domain.InternshipPost, error) {
	f = f.Normalize()
	posts, err := s.posts.ListActive(ctx, f.City, f.WorkType)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InternshipPost, 0, len(posts))
	for i := range posts {
		if f.Matches(&posts[i]) {
			out = append(out, posts[i])
		}
	}
	return out, nil
}

func (s *PostingService) Cities(ctx context.Context) ([]string, error) { return s.posts.Cities(ctx) }

func (s *PostingService) Companies(ctx context.Context) ([]string, error) {
	return s.posts.Companies(ctx)
}

type JobDetail struct {
	Post       *domain.InternshipPost `json:"post"`
	HasApplied bool                   `json:"hasApplied"`
}

// JobDetail 关闭的岗位对外不可见
func (s *PostingService) JobDetail(ctx context.Context, postID uint, viewerUID string) (*JobDetail, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, domain.ErrNotFound
	}
	out := &JobDetail{Post: p}
	if viewerUID == "" {
		return out, nil
	}
	ip, err := s.profiles.FindIntern(ctx, viewerUID)
	if err != nil {
		return nil, err
	}
	if ip != nil {
		if out.HasApplied, err = s.apps.Exists(ctx, postID, ip.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyToJob 失败原因可区分：无资料 / 岗位不存在 / 岗位关闭 / 重复投递
func (s *PostingService) ApplyToJob(ctx context.Context, postID uint, uid string) (*domain.Application, error) {
	a, err := s.apply(ctx, postID, uid)
	switch {
	case err == nil:
		applicationsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrAlreadyApplied):
		applicationsTotal.WithLabelValues("duplicate").Inc()
	default:
		applicationsTotal.WithLabelValues("rejected").Inc()
	}
	return a, err
}

func (s *PostingService) apply(ctx context.Context, postID uint, uid string) (*domain.Application, error) {
	ip, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, domain.ErrInternProfileRequired
	}
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if !p.IsActive {
		return nil, domain.ErrPostInactive
	}
	exists, err := s.apps.Exists(ctx, postID, ip.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyApplied
	}
	// 并发下 Exists 可能都为 false，由唯一索引兜底
	a := &domain.Application{
		InternshipPostID: postID,
		InternProfileID:  ip.ID,
		AppliedAt:        s.now(),
		Status:           domain.ApplicationPending,
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostingService) MyApplications(ctx context.Context, uid string) ([]domain.Application, error) {
	ip, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return []domain.Application{}, nil
	}
	return s.apps.ListByIntern(ctx, ip.ID)
}

// PostApplications 仅岗位所属雇主可查看
func (s *PostingService) PostApplications(ctx context.Context, uid string, postID uint) (*domain.InternshipPost, []domain.Application, error) {
	p, _, err := s.ownPost(ctx, uid, postID)
	if err != nil {
		return nil, nil, err
	}
	apps, err := s.apps.ListByPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return p, apps, nil
}

// SetApplicationStatus 状态之间无顺序，可相互覆盖；不允许回到 Pending
func (s *PostingService) SetApplicationStatus(ctx context.Context, appID uint, uid string, status domain.ApplicationStatus) error {
	status, ok := domain.ParseReviewStatus(string(status))
	if !ok {
		return domain.Invalid("status", "must be one of InReview, Accepted, Rejected")
	}
	a, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrNotFound
	}
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return err
	}
	if ep == nil || a.InternshipPost == nil || a.InternshipPost.EmployerProfileID != ep.ID {
		return domain.ErrForbidden
	}
	if err := s.apps.UpdateStatus(ctx, appID, status); err != nil {
		return err
	}
	s.log.Info("application status", zap.Uint("application", appID), zap.String("status", string(status)))
	return nil
}

// DeleteApplication 管理端
func (s *PostingService) DeleteApplication(ctx context.Context, id uint) error {
	return s.apps.Delete(ctx, id)
}

// CandidateDetail 只能查看投递过本雇主岗位的实习生
func (s *PostingService) CandidateDetail(ctx context.Context, uid string, internProfileID uint) (*domain.InternProfile, error) {
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, domain.ErrEmployerProfileRequired
	}
	ip, err := s.profiles.FindInternByID(ctx, internProfileID)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, domain.ErrNotFound
	}
	posts, err := s.posts.ListByEmployer(ctx, ep.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		for _, a := range p.Applications {
			if a.InternProfileID == ip.ID {
				return ip, nil
			}
		}
	}
	return nil, domain.ErrForbidden
}

type PostStats struct {
	PostID      uint      `json:"postId"`
	Title       string    `json:"title"`
	IsActive    bool      `json:"isActive"`
	CreatedDate time.Time `json:"createdDate"`
	Total       int       `json:"total"`
	Active      int       `json:"activeCandidates"`
	Awaiting    int       `json:"awaitingReview"`
	Reviewed    int       `json:"reviewed"`
	Hired       int       `json:"hired"`
}

type EmployerDashboard struct {
	Profile        *domain.EmployerProfile `json:"profile"`
	Posts          []PostStats             `json:"posts"`
	Totals         PostStats               `json:"totals"`
	UnreadMessages int64                   `json:"unreadMessages"`
}

func (s *PostingService) EmployerDashboard(ctx context.Context, uid string) (*EmployerDashboard, error) {
	ep, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, domain.ErrEmployerProfileRequired
	}
	posts, err := s.posts.ListByEmployer(ctx, ep.ID)
	if err != nil {
		return nil, err
	}
	out := &EmployerDashboard{Profile: ep, Posts: make([]PostStats, 0, len(posts))}
	for _, p := range posts {
		st := PostStats{PostID: p.ID, Title: p.Title, IsActive: p.IsActive, CreatedDate: p.CreatedDate}
		for _, a := range p.Applications {
			st.Total++
			if a.Status != domain.ApplicationRejected {
				st.Active++
			}
			switch a.Status {
			case domain.ApplicationPending:
				st.Awaiting++
			case domain.ApplicationAccepted:
				st.Reviewed++
				st.Hired++
			case domain.ApplicationRejected:
				st.Reviewed++
			}
		}
		out.Posts = append(out.Posts, st)
		out.Totals.Total += st.Total
		out.Totals.Active += st.Active
		out.Totals.Awaiting += st.Awaiting
		out.Totals.Reviewed += st.Reviewed
		out.Totals.Hired += st.Hired
	}
	if out.UnreadMessages, err = s.messages.CountUnread(ctx, uid); err != nil {
		return nil, err
	}
	return out, nil
}

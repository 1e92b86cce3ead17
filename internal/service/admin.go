package service

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"internship-portal/internal/core/logger"
	"internship-portal/internal/core/report"
	"internship-portal/internal/domain"
)

// LogSource 管理端日志页读取的文件
type LogSource struct {
	Fs   afero.Fs
	Path string
}

type AdminService struct {
	users    domain.UserRepository
	posts    domain.PostRepository
	apps     domain.ApplicationRepository
	identity *IdentityService
	posting  *PostingService
	logs     LogSource
	log      *zap.Logger
	now      func() time.Time

	sf singleflight.Group
}

func NewAdminService(
	users domain.UserRepository,
	posts domain.PostRepository,
	apps domain.ApplicationRepository,
	identity *IdentityService,
	posting *PostingService,
	logs LogSource,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		users: users, posts: posts, apps: apps,
		identity: identity, posting: posting,
		logs: logs, log: log, now: time.Now,
	}
}

type Dashboard struct {
	TotalUsers        int64                   `json:"totalUsers"`
	TotalInterns      int64                   `json:"totalInterns"`
	TotalEmployers    int64                   `json:"totalEmployers"`
	PendingApprovals  int64                   `json:"pendingApprovals"`
	TotalPosts        int64                   `json:"totalPosts"`
	TotalApplications int64                   `json:"totalApplications"`
	PendingUsers      []domain.User           `json:"pendingUsers"`
	RecentPosts       []domain.InternshipPost `json:"recentPosts"`
}

const dashboardTimeout = 10 * time.Second

// Dashboard 并发请求合并为一次查询（不缓存结果）；
// 查询不随发起者的 ctx 取消，每个调用方只等待自己的 ctx
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	ch := s.sf.DoChan("dashboard", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dashboardTimeout)
		defer cancel()
		return s.loadDashboard(lctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Dashboard), nil
	}
}

func (s *AdminService) loadDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error
	if d.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalInterns, err = s.users.CountByRole(ctx, domain.RoleIntern, false); err != nil {
		return nil, err
	}
	if d.TotalEmployers, err = s.users.CountByRole(ctx, domain.RoleEmployer, false); err != nil {
		return nil, err
	}
	if d.PendingApprovals, err = s.users.CountPending(ctx); err != nil {
		return nil, err
	}
	if d.TotalPosts, err = s.posts.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalApplications, err = s.apps.Count(ctx); err != nil {
		return nil, err
	}
	if d.PendingUsers, err = s.users.ListPending(ctx); err != nil {
		return nil, err
	}
	if d.RecentPosts, err = s.posts.Recent(ctx, 5); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *AdminService) Users(ctx context.Context) ([]domain.User, error) { return s.users.List(ctx) }

func (s *AdminService) Posts(ctx context.Context) ([]domain.InternshipPost, error) {
	return s.posts.List(ctx)
}

func (s *AdminService) Applications(ctx context.Context) ([]domain.Application, error) {
	return s.apps.List(ctx)
}

func (s *AdminService) Approve(ctx context.Context, uid string) error {
	return s.identity.Approve(ctx, uid)
}

func (s *AdminService) DeleteUser(ctx context.Context, uid string) error {
	return s.identity.DeleteUser(ctx, uid)
}

func (s *AdminService) ChangeRole(ctx context.Context, uid string, role domain.Role) error {
	return s.identity.SetRole(ctx, uid, role)
}

func (s *AdminService) DeletePost(ctx context.Context, id uint) error {
	return s.posting.DeletePost(ctx, id)
}

func (s *AdminService) DeleteApplication(ctx context.Context, id uint) error {
	return s.posting.DeleteApplication(ctx, id)
}

// Logs 当前日志文件最后 n 行，最新在前
func (s *AdminService) Logs(n int) ([]string, error) {
	if s.logs.Fs == nil || s.logs.Path == "" {
		return []string{}, nil
	}
	return logger.Tail(s.logs.Fs, s.logs.Path, n)
}

type Overview struct {
	Interns     int64 `json:"interns"`
	Employers   int64 `json:"employers"`
	ActivePosts int64 `json:"activePosts"`
}

// Overview 首页统计：已审核的实习生/雇主数与开放岗位数
func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	var err error
	if o.Interns, err = s.users.CountByRole(ctx, domain.RoleIntern, true); err != nil {
		return nil, err
	}
	if o.Employers, err = s.users.CountByRole(ctx, domain.RoleEmployer, true); err != nil {
		return nil, err
	}
	if o.ActivePosts, err = s.posts.CountActive(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *AdminService) ExportUsers(ctx context.Context, f report.Format) (*report.File, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Render(usersTable(users), f, "users", s.now())
}

func (s *AdminService) ExportPosts(ctx context.Context, f report.Format) (*report.File, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Render(postsTable(posts), f, "posts", s.now())
}

func (s *AdminService) ExportApplications(ctx context.Context, f report.Format) (*report.File, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Render(applicationsTable("Applications", apps, nil), f, "applications", s.now())
}

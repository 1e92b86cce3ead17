package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-portal/internal/core/report"
	"internship-portal/internal/domain"
)

func TestAdmin_DashboardAndOverview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	_, err := e.identity.Register(ctx, RegisterInput{
		Email: "pending@x.io", Password: testPassword, FirstName: "P", LastName: "Q", Role: "Intern",
	})
	require.NoError(t, err)

	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	closed := e.post(t, eu.ID, "Closed", "Ankara")
	require.NoError(t, e.posting.SetPostActive(ctx, eu.ID, closed.ID, false))
	_, err = e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)

	d, err := e.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.TotalUsers)
	assert.EqualValues(t, 2, d.TotalInterns)
	assert.EqualValues(t, 1, d.TotalEmployers)
	assert.EqualValues(t, 1, d.PendingApprovals)
	assert.EqualValues(t, 2, d.TotalPosts)
	assert.EqualValues(t, 1, d.TotalApplications)
	require.Len(t, d.PendingUsers, 1)
	assert.Equal(t, "pending@x.io", d.PendingUsers[0].Email)
	assert.Len(t, d.RecentPosts, 2)

	o, err := e.admin.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, Overview{Interns: 1, Employers: 1, ActivePosts: 1}, *o)
}

// gatedUsers Count 阻塞到 release 关闭，之后按传入的 ctx 执行
type gatedUsers struct {
	domain.UserRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedUsers) Count(ctx context.Context) (int64, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return g.UserRepository.Count(ctx)
}

func TestAdmin_DashboardSurvivesLeaderCancel(t *testing.T) {
	e := newEnv(t)
	e.approvedUser(t, "u@x.io", domain.RoleIntern)
	gate := &gatedUsers{UserRepository: e.users, entered: make(chan struct{}), release: make(chan struct{})}
	e.admin.users = gate

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := e.admin.Dashboard(leaderCtx)
		leaderErr <- err
	}()
	<-gate.entered

	type result struct {
		d   *Dashboard
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		d, err := e.admin.Dashboard(context.Background())
		waiter <- result{d, err}
	}()
	time.Sleep(20 * time.Millisecond) // 让第二个调用加入同一次查询

	cancel()
	assert.True(t, errors.Is(<-leaderErr, context.Canceled))

	close(gate.release)
	r := <-waiter
	require.NoError(t, r.err)
	assert.EqualValues(t, 1, r.d.TotalUsers)
}

func TestAdmin_ModerationCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, ip := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	a, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)
	_, err = e.interview.Schedule(ctx, eu.ID, ScheduleInput{InternProfileID: ip.ID, InternshipPostID: p.ID, ScheduledAt: tomorrow})
	require.NoError(t, err)
	_, err = e.messages.Send(ctx, iu.ID, SendInput{ReceiverID: eu.ID, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, e.admin.DeleteApplication(ctx, a.ID))
	assert.EqualValues(t, 0, e.count(t, &domain.Application{}))

	require.NoError(t, e.admin.DeleteUser(ctx, eu.ID))
	assert.EqualValues(t, 0, e.count(t, &domain.EmployerProfile{}))
	assert.EqualValues(t, 0, e.count(t, &domain.InternshipPost{}))
	assert.EqualValues(t, 0, e.count(t, &domain.Interview{}))
	assert.EqualValues(t, 0, e.count(t, &domain.Message{}))
	assert.EqualValues(t, 1, e.count(t, &domain.InternProfile{}))

	assert.True(t, errors.Is(e.admin.DeleteUser(ctx, eu.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(e.admin.Approve(ctx, "missing"), domain.ErrNotFound))
}

func TestAdmin_ChangeRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.approvedUser(t, "u@x.io", domain.RoleIntern)

	require.NoError(t, e.admin.ChangeRole(ctx, u.ID, domain.RoleEmployer))
	role, err := e.identity.CurrentRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployer, role)

	roles, err := e.identity.RolesOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleEmployer}, roles)
}

func TestAdmin_LogsNewestFirst(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, afero.WriteFile(e.fs, "/logs/app.log", []byte("one\ntwo\nthree\n"), 0o644))

	lines, err := e.admin.Logs(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two"}, lines)
}

func TestAdmin_Exports(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.admin.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	_, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)

	f, err := e.admin.ExportUsers(ctx, report.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "users_20250304050607.xlsx", f.Name)
	assert.Equal(t, report.ContentTypeXLSX, f.ContentType)
	assert.NotEmpty(t, f.Body)

	f, err = e.admin.ExportApplications(ctx, report.FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(f.Body), "%PDF"))

	_, err = e.admin.ExportPosts(ctx, report.FormatXLSX)
	require.NoError(t, err)

	f, err = e.posting.ExportPostApplications(ctx, eu.ID, p.ID, report.FormatXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.Name, "post_"))

	_, err = e.posting.ExportPostApplications(ctx, iu.ID, p.ID, report.FormatXLSX)
	assert.True(t, errors.Is(err, domain.ErrEmployerProfileRequired))
}

func TestApplicationsTable_Rows(t *testing.T) {
	apps := []domain.Application{{
		ID:     7,
		Status: domain.ApplicationAccepted,
		InternProfile: &domain.InternProfile{
			University: "METU",
			User:       &domain.User{FirstName: "Ada", LastName: "L", Email: "ada@x.io"},
		},
	}}
	post := &domain.InternshipPost{Title: "Go", EmployerProfile: &domain.EmployerProfile{CompanyName: "Acme"}}
	tbl := applicationsTable("t", apps, post)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"7", "Go", "Acme", "Ada L", "ada@x.io", "METU", "", "Accepted"}, tbl.Rows[0])
}

package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"internship-portal/internal/core/database/dbtest"
	"internship-portal/internal/domain"
	"internship-portal/pkg/utils"
)

type fixture struct {
	db    *gorm.DB
	users *UserRepo
	profs *ProfileRepo
	posts *PostRepo
	apps  *ApplicationRepo
	ivs   *InterviewRepo
	msgs  *MessageRepo
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	return &fixture{
		db:    db,
		users: NewUserRepo(db),
		profs: NewProfileRepo(db),
		posts: NewPostRepo(db),
		apps:  NewApplicationRepo(db),
		ivs:   NewInterviewRepo(db),
		msgs:  NewMessageRepo(db),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, FirstName: "F", LastName: "L", IsApproved: true}
	require.NoError(t, f.users.Create(context.Background(), u, role))
	return u
}

func (f *fixture) employer(t *testing.T, email, company string) (*domain.User, *domain.EmployerProfile) {
	t.Helper()
	u := f.user(t, email, domain.RoleEmployer)
	p := &domain.EmployerProfile{UserID: u.ID, CompanyName: company}
	require.NoError(t, f.profs.SaveEmployer(context.Background(), p))
	return u, p
}

func (f *fixture) intern(t *testing.T, email string) (*domain.User, *domain.InternProfile) {
	t.Helper()
	u := f.user(t, email, domain.RoleIntern)
	p := &domain.InternProfile{UserID: u.ID, University: "METU"}
	require.NoError(t, f.profs.SaveIntern(context.Background(), p))
	return u, p
}

func (f *fixture) post(t *testing.T, ep *domain.EmployerProfile, title, city string, active bool) *domain.InternshipPost {
	t.Helper()
	p := &domain.InternshipPost{
		EmployerProfileID: ep.ID, Title: title, City: city, WorkType: "Remote",
		IsActive: active, CreatedDate: time.Now(),
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestUserRepo_CreateAndRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "Ada@Example.com", domain.RoleIntern)
	got, err := f.users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []domain.Role{domain.RoleIntern}, got.RoleList())

	err = f.users.Create(ctx, &domain.User{ID: utils.NewID(), Email: "ada@example.com"}, domain.RoleIntern)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	require.NoError(t, f.users.AddRole(ctx, u.ID, domain.RoleEmployer))
	require.NoError(t, f.users.AddRole(ctx, u.ID, domain.RoleEmployer))
	roles, err := f.users.Roles(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Role{domain.RoleIntern, domain.RoleEmployer}, roles)

	require.NoError(t, f.users.ReplaceRoles(ctx, u.ID, domain.RoleAdmin))
	roles, err = f.users.Roles(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, roles)

	missing, err := f.users.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_Counts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "a@x.io", domain.RoleIntern)
	f.user(t, "b@x.io", domain.RoleEmployer)
	pending := &domain.User{ID: utils.NewID(), Email: "c@x.io"}
	require.NoError(t, f.users.Create(ctx, pending, domain.RoleIntern))

	n, err := f.users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = f.users.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.users.CountByRole(ctx, domain.RoleIntern, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.users.CountByRole(ctx, domain.RoleIntern, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := f.users.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c@x.io", list[0].Email)
}

func TestUserRepo_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	eu, ep := f.employer(t, "e@x.io", "Acme")
	iu, ip := f.intern(t, "i@x.io")
	_, ip2 := f.intern(t, "i2@x.io")
	p := f.post(t, ep, "Go Intern", "Ankara", true)

	require.NoError(t, f.profs.AddExperience(ctx, &domain.Experience{InternProfileID: ip.ID, CompanyName: "X", Title: "Dev", StartDate: time.Now()}))
	require.NoError(t, f.apps.Create(ctx, &domain.Application{InternshipPostID: p.ID, InternProfileID: ip.ID, AppliedAt: time.Now(), Status: domain.ApplicationPending}))
	require.NoError(t, f.apps.Create(ctx, &domain.Application{InternshipPostID: p.ID, InternProfileID: ip2.ID, AppliedAt: time.Now(), Status: domain.ApplicationPending}))
	require.NoError(t, f.ivs.Create(ctx, &domain.Interview{EmployerProfileID: ep.ID, InternProfileID: ip.ID, InternshipPostID: p.ID, ScheduledAt: time.Now(), Location: "Online", Status: domain.InterviewPlanned}))
	require.NoError(t, f.msgs.Create(ctx, &domain.Message{SenderID: eu.ID, ReceiverID: iu.ID, Content: "hi", SentAt: time.Now()}))
	require.NoError(t, NewResetTokenRepo(f.db).Put(ctx, "hash-e", eu.ID, time.Hour))

	require.NoError(t, f.users.Delete(ctx, eu.ID))

	assert.EqualValues(t, 0, count(t, f.db, &domain.EmployerProfile{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.InternshipPost{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Application{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Interview{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Message{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.PasswordResetToken{}))
	assert.EqualValues(t, 2, count(t, f.db, &domain.InternProfile{}))
	assert.EqualValues(t, 1, count(t, f.db, &domain.Experience{}))

	require.NoError(t, f.users.Delete(ctx, iu.ID))
	assert.EqualValues(t, 1, count(t, f.db, &domain.InternProfile{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Experience{}))
	assert.EqualValues(t, 1, count(t, f.db, &domain.UserRole{}))

	assert.True(t, errors.Is(f.users.Delete(ctx, iu.ID), domain.ErrNotFound))
}

func TestUserRepo_FailedLoginKeepsConcurrentApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &domain.User{ID: utils.NewID(), Email: "p@x.io", FirstName: "P", LastName: "Q"}
	require.NoError(t, f.users.Create(ctx, u, domain.RoleEmployer))

	// 登录请求先读到未审核的副本，随后管理员审核
	stale, err := f.users.FindByEmail(ctx, "p@x.io")
	require.NoError(t, err)
	require.False(t, stale.IsApproved)
	require.NoError(t, f.users.SetApproved(ctx, u.ID))

	locked, err := f.users.RecordFailedLogin(ctx, stale.ID, 5, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, locked)
	require.NoError(t, f.users.ClearFailedLogins(ctx, stale.ID))

	got, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, 0, got.FailedLogins)
}

func TestUserRepo_RecordFailedLoginLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@x.io", domain.RoleIntern)
	until := time.Now().Add(5 * time.Minute)

	for i := 0; i < 2; i++ {
		locked, err := f.users.RecordFailedLogin(ctx, u.ID, 3, until)
		require.NoError(t, err)
		assert.False(t, locked)
	}
	locked, err := f.users.RecordFailedLogin(ctx, u.ID, 3, until)
	require.NoError(t, err)
	assert.True(t, locked)

	got, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLogins)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.Locked(time.Now()))
}

func TestUserRepo_WritesDoNotRecreateDeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "gone@x.io", domain.RoleIntern)

	stale, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(ctx, u.ID))

	_, err = f.users.RecordFailedLogin(ctx, stale.ID, 5, time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(f.users.ClearFailedLogins(ctx, stale.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(f.users.SetApproved(ctx, stale.ID), domain.ErrNotFound))
	assert.True(t, errors.Is(f.users.SetPassword(ctx, stale.ID, "h"), domain.ErrNotFound))

	got, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.EqualValues(t, 0, count(t, f.db, &domain.User{}))
}

func TestApplicationRepo_UniquePerPostAndIntern(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ep := f.employer(t, "e@x.io", "Acme")
	_, ip := f.intern(t, "i@x.io")
	p := f.post(t, ep, "Go Intern", "Ankara", true)

	a := &domain.Application{InternshipPostID: p.ID, InternProfileID: ip.ID, AppliedAt: time.Now(), Status: domain.ApplicationPending}
	require.NoError(t, f.apps.Create(ctx, a))

	dup := &domain.Application{InternshipPostID: p.ID, InternProfileID: ip.ID, AppliedAt: time.Now(), Status: domain.ApplicationPending}
	err := f.apps.Create(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrAlreadyApplied))
	assert.EqualValues(t, 1, count(t, f.db, &domain.Application{}))

	ok, err := f.apps.Exists(ctx, p.ID, ip.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.apps.UpdateStatus(ctx, a.ID, domain.ApplicationAccepted))
	got, err := f.apps.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationAccepted, got.Status)
	require.NotNil(t, got.InternshipPost)
	assert.Equal(t, ep.ID, got.InternshipPost.EmployerProfileID)

	assert.True(t, errors.Is(f.apps.UpdateStatus(ctx, 9999, domain.ApplicationAccepted), domain.ErrNotFound))
}

func TestPostRepo_DeleteCascadesAndQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ep := f.employer(t, "e@x.io", "Acme")
	_, ep2 := f.employer(t, "e2@x.io", "Beta")
	_, ip := f.intern(t, "i@x.io")

	p1 := f.post(t, ep, "Go Intern", "Ankara", true)
	f.post(t, ep, "Closed", "Izmir", false)
	f.post(t, ep2, "Data Intern", "Izmir", true)

	require.NoError(t, f.apps.Create(ctx, &domain.Application{InternshipPostID: p1.ID, InternProfileID: ip.ID, AppliedAt: time.Now(), Status: domain.ApplicationPending}))
	require.NoError(t, f.ivs.Create(ctx, &domain.Interview{EmployerProfileID: ep.ID, InternProfileID: ip.ID, InternshipPostID: p1.ID, ScheduledAt: time.Now(), Status: domain.InterviewPlanned}))

	active, err := f.posts.ListActive(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	izmir, err := f.posts.ListActive(ctx, "Izmir", "")
	require.NoError(t, err)
	require.Len(t, izmir, 1)
	assert.Equal(t, "Beta", izmir[0].CompanyName())

	cities, err := f.posts.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ankara", "Izmir"}, cities)

	companies, err := f.posts.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Beta"}, companies)

	require.NoError(t, f.posts.Delete(ctx, p1.ID))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Application{}))
	assert.EqualValues(t, 0, count(t, f.db, &domain.Interview{}))
	assert.True(t, errors.Is(f.posts.Delete(ctx, p1.ID), domain.ErrNotFound))

	n, err := f.posts.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMessageRepo_InboxOrderAndUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@x.io", domain.RoleIntern)
	b := f.user(t, "b@x.io", domain.RoleEmployer)

	base := time.Now()
	m1 := &domain.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "first", SentAt: base}
	m2 := &domain.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "second", SentAt: base.Add(time.Minute)}
	require.NoError(t, f.msgs.Create(ctx, m1))
	require.NoError(t, f.msgs.Create(ctx, m2))

	inbox, err := f.msgs.Inbox(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "second", inbox[0].Content)
	require.NotNil(t, inbox[0].Sender)
	assert.Equal(t, "a@x.io", inbox[0].Sender.Email)

	n, err := f.msgs.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, f.msgs.MarkRead(ctx, m1.ID))
	n, err = f.msgs.CountUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	sent, err := f.msgs.Sent(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 2)
}

func TestResetTokenRepo_SingleUseAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@x.io", domain.RoleIntern)
	store := NewResetTokenRepo(f.db)

	require.NoError(t, store.Put(ctx, "h1", u.ID, time.Hour))
	uid, err := store.Take(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = store.Take(ctx, "h1")
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))

	require.NoError(t, store.Put(ctx, "h2", u.ID, time.Minute))
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = store.Take(ctx, "h2")
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))
}

func TestInterviewRepo_FindForEmployer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ep := f.employer(t, "e@x.io", "Acme")
	_, ep2 := f.employer(t, "e2@x.io", "Beta")
	_, ip := f.intern(t, "i@x.io")
	p := f.post(t, ep, "Go Intern", "Ankara", true)

	iv := &domain.Interview{EmployerProfileID: ep.ID, InternProfileID: ip.ID, InternshipPostID: p.ID, ScheduledAt: time.Now(), Status: domain.InterviewPlanned}
	require.NoError(t, f.ivs.Create(ctx, iv))

	got, err := f.ivs.FindForEmployer(ctx, iv.ID, ep2.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.ivs.FindForEmployer(ctx, iv.ID, ep.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	list, err := f.ivs.ListByIntern(ctx, ip.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].EmployerProfile.CompanyName)
}

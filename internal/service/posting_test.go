package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-portal/internal/domain"
)

func TestPosting_CreatePostRequiresEmployerProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.approvedUser(t, "e@x.io", domain.RoleEmployer)

	_, err := e.posting.CreatePost(ctx, u.ID, PostInput{Title: "Go", City: "Ankara"})
	assert.True(t, errors.Is(err, domain.ErrEmployerProfileRequired))

	_, err = e.posting.CreatePost(ctx, u.ID, PostInput{Title: "", City: ""})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "city")

	_, err = e.profiles.UpsertEmployerProfile(ctx, u.ID, EmployerProfileInput{CompanyName: "Acme"})
	require.NoError(t, err)
	p, err := e.posting.CreatePost(ctx, u.ID, PostInput{Title: "Go", City: "Ankara"})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.False(t, p.CreatedDate.IsZero())

	closed, err := e.posting.CreatePost(ctx, u.ID, PostInput{Title: "Later", City: "Ankara", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
}

func TestPosting_ApplyScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")

	a, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, a.Status)

	_, err = e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	assert.True(t, errors.Is(err, domain.ErrAlreadyApplied))
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.EqualValues(t, 1, e.count(t, &domain.Application{}))

	detail, err := e.posting.JobDetail(ctx, p.ID, iu.ID)
	require.NoError(t, err)
	assert.True(t, detail.HasApplied)

	mine, err := e.posting.MyApplications(ctx, iu.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Acme", mine[0].InternshipPost.CompanyName())
}

func TestPosting_ApplyFailures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	noProfile := e.approvedUser(t, "np@x.io", domain.RoleIntern)
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")

	_, err := e.posting.ApplyToJob(ctx, p.ID, noProfile.ID)
	assert.True(t, errors.Is(err, domain.ErrInternProfileRequired))

	_, err = e.posting.ApplyToJob(ctx, 9999, iu.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, e.posting.SetPostActive(ctx, eu.ID, p.ID, false))
	_, err = e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	assert.True(t, errors.Is(err, domain.ErrPostInactive))

	_, err = e.posting.JobDetail(ctx, p.ID, "")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "closed posts are hidden")
}

func TestPosting_ConcurrentApplyCreatesOneRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.posting.ApplyToJob(ctx, p.ID, iu.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrAlreadyApplied), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.EqualValues(t, 1, e.count(t, &domain.Application{}))
}

func TestPosting_SetApplicationStatusOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	other, _ := e.employer(t, "e2@x.io", "Beta")
	iu, _ := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	a, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)

	err = e.posting.SetApplicationStatus(ctx, a.ID, other.ID, domain.ApplicationAccepted)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	err = e.posting.SetApplicationStatus(ctx, a.ID, iu.ID, domain.ApplicationAccepted)
	assert.True(t, errors.Is(err, domain.ErrForbidden), "caller without employer profile")

	err = e.posting.SetApplicationStatus(ctx, 9999, eu.ID, domain.ApplicationAccepted)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = e.posting.SetApplicationStatus(ctx, a.ID, eu.ID, domain.ApplicationPending)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, apps, err := e.posting.PostApplications(ctx, eu.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, domain.ApplicationPending, apps[0].Status, "unchanged after rejected attempts")

	// 状态可相互覆盖
	for _, st := range []domain.ApplicationStatus{domain.ApplicationAccepted, domain.ApplicationRejected, domain.ApplicationInReview} {
		require.NoError(t, e.posting.SetApplicationStatus(ctx, a.ID, eu.ID, st))
	}
	_, apps, err = e.posting.PostApplications(ctx, eu.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationInReview, apps[0].Status)

	_, _, err = e.posting.PostApplications(ctx, other.ID, p.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestPosting_SetApplicationStatusStoresCanonicalValue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	iu, _ := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	a, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)

	require.NoError(t, e.posting.SetApplicationStatus(ctx, a.ID, eu.ID, domain.ApplicationStatus("accepted")))
	_, apps, err := e.posting.PostApplications(ctx, eu.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, domain.ApplicationAccepted, apps[0].Status)

	err = e.posting.SetApplicationStatus(ctx, a.ID, eu.ID, domain.ApplicationStatus("pending"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPosting_SearchJobs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme, _ := e.employer(t, "e@x.io", "Acme Labs")
	beta, _ := e.employer(t, "e2@x.io", "Beta Soft")

	e.post(t, acme.ID, "Go Backend Intern", "Ankara")
	e.post(t, acme.ID, "Frontend Intern", "Izmir")
	e.post(t, beta.ID, "Data Intern", "Izmir")
	closed := e.post(t, beta.ID, "Go Closed", "Ankara")
	require.NoError(t, e.posting.SetPostActive(ctx, beta.ID, closed.ID, false))

	all, err := e.posting.SearchJobs(ctx, domain.JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "no filters returns exactly the active posts")

	goJobs, err := e.posting.SearchJobs(ctx, domain.JobFilter{Text: "Go"})
	require.NoError(t, err)
	require.Len(t, goJobs, 1)
	assert.Equal(t, "Go Backend Intern", goJobs[0].Title)

	none, err := e.posting.SearchJobs(ctx, domain.JobFilter{Text: "go"})
	require.NoError(t, err)
	assert.Empty(t, none)

	izmir, err := e.posting.SearchJobs(ctx, domain.JobFilter{City: "Izmir", CompanyName: "Beta"})
	require.NoError(t, err)
	require.Len(t, izmir, 1)
	assert.Equal(t, "Data Intern", izmir[0].Title)

	partialCity, err := e.posting.SearchJobs(ctx, domain.JobFilter{City: "Izm"})
	require.NoError(t, err)
	assert.Empty(t, partialCity)

	cities, err := e.posting.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ankara", "Izmir"}, cities)

	companies, err := e.posting.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Labs", "Beta Soft"}, companies)
}

func TestPosting_DeletePostLeavesNoOrphans(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	other, _ := e.employer(t, "e2@x.io", "Beta")
	iu, ip := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")
	_, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)
	_, err = e.interview.Schedule(ctx, eu.ID, ScheduleInput{InternProfileID: ip.ID, InternshipPostID: p.ID, ScheduledAt: tomorrow})
	require.NoError(t, err)

	assert.True(t, errors.Is(e.posting.DeleteOwnPost(ctx, other.ID, p.ID), domain.ErrForbidden))
	require.NoError(t, e.posting.DeleteOwnPost(ctx, eu.ID, p.ID))

	assert.EqualValues(t, 0, e.count(t, &domain.Application{}))
	assert.EqualValues(t, 0, e.count(t, &domain.Interview{}))
	assert.True(t, errors.Is(e.admin.DeletePost(ctx, p.ID), domain.ErrNotFound))
}

func TestPosting_EmployerDashboard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")

	statuses := []domain.ApplicationStatus{
		domain.ApplicationPending, domain.ApplicationInReview,
		domain.ApplicationAccepted, domain.ApplicationRejected,
	}
	for i, st := range statuses {
		iu, _ := e.intern(t, "i"+string(rune('a'+i))+"@x.io")
		a, err := e.posting.ApplyToJob(ctx, p.ID, iu.ID)
		require.NoError(t, err)
		if st != domain.ApplicationPending {
			require.NoError(t, e.posting.SetApplicationStatus(ctx, a.ID, eu.ID, st))
		}
		if i == 0 {
			_, err = e.messages.Send(ctx, iu.ID, SendInput{ReceiverID: eu.ID, Content: "hello"})
			require.NoError(t, err)
		}
	}

	d, err := e.posting.EmployerDashboard(ctx, eu.ID)
	require.NoError(t, err)
	require.Len(t, d.Posts, 1)
	st := d.Posts[0]
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, 1, st.Awaiting)
	assert.Equal(t, 2, st.Reviewed)
	assert.Equal(t, 1, st.Hired)
	assert.EqualValues(t, 1, d.UnreadMessages)
}

func TestPosting_CandidateDetail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	eu, _ := e.employer(t, "e@x.io", "Acme")
	other, _ := e.employer(t, "e2@x.io", "Beta")
	iu, ip := e.intern(t, "i@x.io")
	p := e.post(t, eu.ID, "Backend Intern", "Ankara")

	_, err := e.posting.CandidateDetail(ctx, eu.ID, ip.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden), "not yet a candidate")

	_, err = e.posting.ApplyToJob(ctx, p.ID, iu.ID)
	require.NoError(t, err)

	got, err := e.posting.CandidateDetail(ctx, eu.ID, ip.ID)
	require.NoError(t, err)
	assert.Equal(t, "METU", got.University)

	_, err = e.posting.CandidateDetail(ctx, other.ID, ip.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = e.posting.CandidateDetail(ctx, eu.ID, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

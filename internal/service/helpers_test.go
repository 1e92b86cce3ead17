package service

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"internship-portal/internal/core/database/dbtest"
	"internship-portal/internal/core/storage"
	"internship-portal/internal/domain"
	"internship-portal/internal/repo"
)

const testPassword = "Passw0rd"

type env struct {
	db        *gorm.DB
	fs        afero.Fs
	users     *repo.UserRepo
	identity  *IdentityService
	profiles  *ProfileService
	posting   *PostingService
	interview *InterviewService
	messages  *MessageService
	admin     *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	log := zap.NewNop()
	fs := afero.NewMemMapFs()

	users := repo.NewUserRepo(db)
	profRepo := repo.NewProfileRepo(db)
	postRepo := repo.NewPostRepo(db)
	appRepo := repo.NewApplicationRepo(db)
	ivRepo := repo.NewInterviewRepo(db)
	msgRepo := repo.NewMessageRepo(db)

	identity := NewIdentityService(users, repo.NewResetTokenRepo(db), IdentityOptions{}, log)
	posting := NewPostingService(postRepo, appRepo, profRepo, msgRepo, log)
	return &env{
		db:        db,
		fs:        fs,
		users:     users,
		identity:  identity,
		profiles:  NewProfileService(profRepo, storage.NewFileStore(fs, "/uploads", "/uploads", 1<<20), log),
		posting:   posting,
		interview: NewInterviewService(ivRepo, profRepo, postRepo, log),
		messages:  NewMessageService(msgRepo, users, log),
		admin:     NewAdminService(users, postRepo, appRepo, identity, posting, LogSource{Fs: fs, Path: "/logs/app.log"}, log),
	}
}

// approvedUser 注册 + 审核
func (e *env) approvedUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.identity.Register(ctx, RegisterInput{
		Email: email, Password: testPassword, FirstName: "Test", LastName: "User", Role: string(role),
	})
	require.NoError(t, err)
	require.NoError(t, e.identity.Approve(ctx, u.ID))
	return u
}

func (e *env) employer(t *testing.T, email, company string) (*domain.User, *domain.EmployerProfile) {
	t.Helper()
	u := e.approvedUser(t, email, domain.RoleEmployer)
	p, err := e.profiles.UpsertEmployerProfile(context.Background(), u.ID, EmployerProfileInput{CompanyName: company, City: "Ankara"})
	require.NoError(t, err)
	return u, p
}

func (e *env) intern(t *testing.T, email string) (*domain.User, *domain.InternProfile) {
	t.Helper()
	u := e.approvedUser(t, email, domain.RoleIntern)
	p, err := e.profiles.UpsertInternProfile(context.Background(), u.ID, InternProfileInput{University: "METU"})
	require.NoError(t, err)
	return u, p
}

func (e *env) post(t *testing.T, uid, title, city string) *domain.InternshipPost {
	t.Helper()
	p, err := e.posting.CreatePost(context.Background(), uid, PostInput{Title: title, City: city, WorkType: "Hybrid"})
	require.NoError(t, err)
	return p
}

func (e *env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }

var tomorrow = time.Now().Add(24 * time.Hour)

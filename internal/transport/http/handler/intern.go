package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/domain"
	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/ez"
)

// InternModule /intern/*，仅 Intern 角色
type InternModule struct {
	Gate       Gate
	Profiles   *service.ProfileService
	Posting    *service.PostingService
	Interviews *service.InterviewService
	Log        *zap.Logger
}

func (m *InternModule) Priority() int { return 30 }

func (m *InternModule) MountAPI(api *gin.RouterGroup) {
	g := ez.New(api.Group("/intern", m.Gate.Require(domain.RoleIntern)), m.Log)

	ez.RegisterAction(g, ez.Action[struct{}, *domain.InternProfile]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.InternProfile, error) {
			return m.Profiles.InternProfile(c.Request.Context(), ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[service.InternProfileInput, *domain.InternProfile]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: ez.BindForm,
		Handler: func(c *gin.Context, in *service.InternProfileInput) (*domain.InternProfile, error) {
			photo, closePhoto, err := formUpload(c, "photo")
			if err != nil {
				return nil, err
			}
			defer closePhoto()
			resume, closeResume, err := formUpload(c, "resume")
			if err != nil {
				return nil, err
			}
			defer closeResume()
			in.Photo, in.Resume = photo, resume
			return m.Profiles.UpsertInternProfile(c.Request.Context(), ez.UID(c), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.ExperienceInput, *domain.Experience]{
		Method: http.MethodPost,
		Path:   "/experiences",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ExperienceInput) (*domain.Experience, error) {
			return m.Profiles.AddExperience(c.Request.Context(), ez.UID(c), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/experiences/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := m.Profiles.DeleteExperience(c.Request.Context(), ez.UID(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[domain.JobFilter, []domain.InternshipPost]{
		Method: http.MethodGet,
		Path:   "/jobs",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *domain.JobFilter) ([]domain.InternshipPost, error) {
			return m.Posting.SearchJobs(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Application]{
		Method: http.MethodPost,
		Path:   "/jobs/:id/apply",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Application, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return m.Posting.ApplyToJob(c.Request.Context(), id, ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Application]{
		Method: http.MethodGet,
		Path:   "/applications",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Application, error) {
			return m.Posting.MyApplications(c.Request.Context(), ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Interview]{
		Method: http.MethodGet,
		Path:   "/interviews",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Interview, error) {
			return m.Interviews.InternInterviews(c.Request.Context(), ez.UID(c))
		},
	})
}

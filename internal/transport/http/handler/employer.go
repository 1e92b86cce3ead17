package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/core/report"
	"internship-portal/internal/domain"
	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/ez"
)

// EmployerModule /employer/*，仅 Employer 角色
type EmployerModule struct {
	Gate       Gate
	Profiles   *service.ProfileService
	Posting    *service.PostingService
	Interviews *service.InterviewService
	Log        *zap.Logger
}

func (m *EmployerModule) Priority() int { return 40 }

type statusIn struct {
	Status string `json:"status" binding:"required"`
}

type postApplicationsOut struct {
	Post         *domain.InternshipPost `json:"post"`
	Applications []domain.Application   `json:"applications"`
}

func (m *EmployerModule) MountAPI(api *gin.RouterGroup) {
	g := ez.New(api.Group("/employer", m.Gate.Require(domain.RoleEmployer)), m.Log)

	ez.RegisterAction(g, ez.Action[struct{}, *service.EmployerDashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.EmployerDashboard, error) {
			return m.Posting.EmployerDashboard(c.Request.Context(), ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.EmployerProfile]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.EmployerProfile, error) {
			return m.Profiles.EmployerProfile(c.Request.Context(), ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[service.EmployerProfileInput, *domain.EmployerProfile]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: ez.BindForm,
		Handler: func(c *gin.Context, in *service.EmployerProfileInput) (*domain.EmployerProfile, error) {
			logo, closeLogo, err := formUpload(c, "logo")
			if err != nil {
				return nil, err
			}
			defer closeLogo()
			in.Logo = logo
			return m.Profiles.UpsertEmployerProfile(c.Request.Context(), ez.UID(c), *in)
		},
	})

	// --- 岗位 ---
	ez.RegisterAction(g, ez.Action[service.PostInput, *domain.InternshipPost]{
		Method: http.MethodPost,
		Path:   "/posts",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.PostInput) (*domain.InternshipPost, error) {
			return m.Posting.CreatePost(c.Request.Context(), ez.UID(c), *in)
		},
	})

	type activeIn struct {
		Active *bool `json:"active" binding:"required"`
	}
	ez.RegisterAction(g, ez.Action[activeIn, gin.H]{
		Method: http.MethodPatch,
		Path:   "/posts/:id/active",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *activeIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := m.Posting.SetPostActive(c.Request.Context(), ez.UID(c), id, *in.Active); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "active": *in.Active}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/posts/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := m.Posting.DeleteOwnPost(c.Request.Context(), ez.UID(c), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, postApplicationsOut]{
		Method: http.MethodGet,
		Path:   "/posts/:id/applications",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (postApplicationsOut, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return postApplicationsOut{}, err
			}
			p, apps, err := m.Posting.PostApplications(c.Request.Context(), ez.UID(c), id)
			if err != nil {
				return postApplicationsOut{}, err
			}
			return postApplicationsOut{Post: p, Applications: apps}, nil
		},
	})

	type exportIn struct {
		Format string `form:"format"`
	}
	ez.RegisterDownload(g, ez.Action[exportIn, *report.File]{
		Method: http.MethodGet,
		Path:   "/posts/:id/applications/export",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *exportIn) (*report.File, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			f, ok := report.ParseFormat(in.Format)
			if !ok {
				return nil, domain.Invalid("format", "must be xlsx or pdf")
			}
			return m.Posting.ExportPostApplications(c.Request.Context(), ez.UID(c), id, f)
		},
	})

	// --- 候选人与投递 ---
	ez.RegisterAction(g, ez.Action[struct{}, *domain.InternProfile]{
		Method: http.MethodGet,
		Path:   "/candidates/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.InternProfile, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return m.Posting.CandidateDetail(c.Request.Context(), ez.UID(c), id)
		},
	})

	ez.RegisterAction(g, ez.Action[statusIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/applications/:id/status",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *statusIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			st, ok := domain.ParseReviewStatus(in.Status)
			if !ok {
				return nil, domain.Invalid("status", "must be one of InReview, Accepted, Rejected")
			}
			if err := m.Posting.SetApplicationStatus(c.Request.Context(), id, ez.UID(c), st); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "status": st}, nil
		},
	})

	// --- 面试 ---
	ez.RegisterAction(g, ez.Action[struct{}, []domain.Interview]{
		Method: http.MethodGet,
		Path:   "/interviews",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Interview, error) {
			return m.Interviews.EmployerInterviews(c.Request.Context(), ez.UID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[service.ScheduleInput, *domain.Interview]{
		Method: http.MethodPost,
		Path:   "/interviews",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ScheduleInput) (*domain.Interview, error) {
			return m.Interviews.Schedule(c.Request.Context(), ez.UID(c), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[statusIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/interviews/:id/status",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *statusIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			st, ok := domain.ParseInterviewStatus(in.Status)
			if !ok {
				return nil, domain.Invalid("status", "must be one of Planned, Completed, Canceled")
			}
			if err := m.Interviews.UpdateStatus(c.Request.Context(), ez.UID(c), id, st); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "status": st}, nil
		},
	})
}

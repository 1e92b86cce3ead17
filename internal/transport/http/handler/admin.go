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

// AdminModule 管理端；分组已走 AuthJWT(Admin)
type AdminModule struct {
	Admin *service.AdminService
	Log   *zap.Logger
}

func (m *AdminModule) MountAdmin(admin *gin.RouterGroup) {
	g := ez.New(admin, m.Log)

	ez.RegisterAction(g, ez.Action[struct{}, *service.Dashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Dashboard, error) {
			return m.Admin.Dashboard(c.Request.Context())
		},
	})

	// --- 用户 ---
	ez.RegisterAction(g, ez.Action[struct{}, []userOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]userOut, error) {
			us, err := m.Admin.Users(c.Request.Context())
			if err != nil {
				return nil, err
			}
			out := make([]userOut, 0, len(us))
			for i := range us {
				out = append(out, toUserOut(&us[i]))
			}
			return out, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/approve",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if err := m.Admin.Approve(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "approved": true}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == ez.UID(c) {
				return nil, ez.BadRequest("cannot delete yourself")
			}
			if err := m.Admin.DeleteUser(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	type roleIn struct {
		Role string `json:"role" binding:"required"`
	}
	ez.RegisterAction(g, ez.Action[roleIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (gin.H, error) {
			role, ok := domain.ParseRole(in.Role)
			if !ok {
				return nil, domain.Invalid("role", "must be one of Admin, Employer, Intern")
			}
			id := c.Param("id")
			if err := m.Admin.ChangeRole(c.Request.Context(), id, role); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "role": role}, nil
		},
	})

	// --- 岗位 / 投递 ---
	ez.RegisterAction(g, ez.Action[struct{}, []domain.InternshipPost]{
		Method: http.MethodGet,
		Path:   "/posts",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.InternshipPost, error) {
			return m.Admin.Posts(c.Request.Context())
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
			if err := m.Admin.DeletePost(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Application]{
		Method: http.MethodGet,
		Path:   "/applications",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Application, error) {
			return m.Admin.Applications(c.Request.Context())
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/applications/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := m.Admin.DeleteApplication(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	type logsIn struct {
		N int `form:"n,default=100"`
	}
	ez.RegisterAction(g, ez.Action[logsIn, []string]{
		Method: http.MethodGet,
		Path:   "/logs",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *logsIn) ([]string, error) {
			if in.N <= 0 || in.N > 1000 {
				in.N = 100
			}
			return m.Admin.Logs(in.N)
		},
	})

	// --- 导出 ---
	export := func(path string, f report.Format, render func(c *gin.Context, f report.Format) (*report.File, error)) {
		ez.RegisterDownload(g, ez.Action[struct{}, *report.File]{
			Method:  http.MethodGet,
			Path:    path,
			Binder:  ez.BindNone,
			Handler: func(c *gin.Context, _ *struct{}) (*report.File, error) { return render(c, f) },
		})
	}
	export("/export/users.xlsx", report.FormatXLSX, func(c *gin.Context, f report.Format) (*report.File, error) {
		return m.Admin.ExportUsers(c.Request.Context(), f)
	})
	export("/export/posts.xlsx", report.FormatXLSX, func(c *gin.Context, f report.Format) (*report.File, error) {
		return m.Admin.ExportPosts(c.Request.Context(), f)
	})
	applications := func(c *gin.Context, f report.Format) (*report.File, error) {
		return m.Admin.ExportApplications(c.Request.Context(), f)
	}
	export("/export/applications.xlsx", report.FormatXLSX, applications)
	export("/export/applications.pdf", report.FormatPDF, applications)
}

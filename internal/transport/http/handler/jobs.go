package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/ez"
)

// HomeModule 首页统计与岗位详情（匿名可访问）
type HomeModule struct {
	Gate    Gate
	Posting *service.PostingService
	Admin   *service.AdminService
	Log     *zap.Logger
}

func (m *HomeModule) Priority() int { return 20 }

type homeOut struct {
	Overview  *service.Overview `json:"overview"`
	Cities    []string          `json:"cities"`
	Companies []string          `json:"companies"`
}

func (m *HomeModule) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api, m.Log)

	ez.RegisterAction(pub, ez.Action[struct{}, homeOut]{
		Method: http.MethodGet,
		Path:   "/home",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (homeOut, error) {
			ctx := c.Request.Context()
			o, err := m.Admin.Overview(ctx)
			if err != nil {
				return homeOut{}, err
			}
			out := homeOut{Overview: o}
			if out.Cities, err = m.Posting.Cities(ctx); err != nil {
				return homeOut{}, err
			}
			if out.Companies, err = m.Posting.Companies(ctx); err != nil {
				return homeOut{}, err
			}
			return out, nil
		},
	})

	// 登录的实习生可看到 hasApplied
	opt := pub.Group("", m.Gate.Optional())
	ez.RegisterAction(opt, ez.Action[struct{}, *service.JobDetail]{
		Method: http.MethodGet,
		Path:   "/jobs/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.JobDetail, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return m.Posting.JobDetail(c.Request.Context(), id, ez.UID(c))
		},
	})
}

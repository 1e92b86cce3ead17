package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/domain"
	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/ez"
)

// MessageModule 站内信，任意已审核角色可用
type MessageModule struct {
	Gate     Gate
	Messages *service.MessageService
	Log      *zap.Logger
}

func (m *MessageModule) Priority() int { return 50 }

func (m *MessageModule) MountAPI(api *gin.RouterGroup) {
	g := ez.New(api.Group("/messages", m.Gate.Require()), m.Log)

	list := func(path string, load func(c *gin.Context) ([]domain.Message, error)) {
		ez.RegisterAction(g, ez.Action[struct{}, []domain.Message]{
			Method:  http.MethodGet,
			Path:    path,
			Binder:  ez.BindNone,
			Handler: func(c *gin.Context, _ *struct{}) ([]domain.Message, error) { return load(c) },
		})
	}
	list("/inbox", func(c *gin.Context) ([]domain.Message, error) {
		return m.Messages.Inbox(c.Request.Context(), ez.UID(c))
	})
	list("/sent", func(c *gin.Context) ([]domain.Message, error) {
		return m.Messages.Sent(c.Request.Context(), ez.UID(c))
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/unread-count",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			n, err := m.Messages.UnreadCount(c.Request.Context(), ez.UID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"unread": n}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *service.Recipient]{
		Method: http.MethodGet,
		Path:   "/recipients/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Recipient, error) {
			return m.Messages.Recipient(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Message]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Message, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return m.Messages.Read(c.Request.Context(), ez.UID(c), id)
		},
	})

	ez.RegisterAction(g, ez.Action[service.SendInput, *domain.Message]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SendInput) (*domain.Message, error) {
			return m.Messages.Send(c.Request.Context(), ez.UID(c), *in)
		},
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/domain"
	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/ez"
	mdw "internship-portal/internal/transport/http/middleware"
)

// AuthModule 注册 / 登录 / 找回密码 / 当前用户
type AuthModule struct {
	Gate     Gate
	Identity *service.IdentityService
	Log      *zap.Logger
	// LoginLimit 登录接口额外的按 IP 限速，可为空
	LoginLimit gin.HandlerFunc
	// ExposeResetToken 开发环境直接在响应里返回重置令牌
	ExposeResetToken bool
}

func (m *AuthModule) Priority() int { return 10 }

type userOut struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	FirstName  string        `json:"firstName"`
	LastName   string        `json:"lastName"`
	FullName   string        `json:"fullName"`
	IsApproved bool          `json:"isApproved"`
	Roles      []domain.Role `json:"roles"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{
		ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
		FullName: u.FullName(), IsApproved: u.IsApproved, Roles: u.RoleList(), CreatedAt: u.CreatedAt,
	}
}

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth"), m.Log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, userOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (userOut, error) {
			u, err := m.Identity.Register(c.Request.Context(), *in)
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token     string      `json:"token"`
		ExpiresAt time.Time   `json:"expiresAt"`
		Role      domain.Role `json:"role"`
		Redirect  string      `json:"redirect"`
		User      userOut     `json:"user"`
	}
	login := pub
	if m.LoginLimit != nil {
		login = pub.Group("", m.LoginLimit)
	}
	ez.RegisterAction(login, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			res, err := m.Identity.Authenticate(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			tok, exp, err := m.Gate.JWT.Issue(res.User.ID, string(res.Role))
			if err != nil {
				return loginOut{}, ez.Internal("issue token failed", err)
			}
			return loginOut{
				Token: tok, ExpiresAt: exp, Role: res.Role, Redirect: res.Redirect, User: toUserOut(res.User),
			}, nil
		},
	})

	type forgotIn struct {
		Email string `json:"email" binding:"required"`
	}
	ez.RegisterAction(pub, ez.Action[forgotIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/forgot-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *forgotIn) (gin.H, error) {
			tok, err := m.Identity.ForgotPassword(c.Request.Context(), in.Email)
			if err != nil {
				return nil, err
			}
			out := gin.H{"sent": true}
			if m.ExposeResetToken && tok != "" {
				out["token"] = tok
			}
			return out, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[service.ResetInput, gin.H]{
		Method: http.MethodPost,
		Path:   "/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ResetInput) (gin.H, error) {
			if err := m.Identity.ResetPassword(c.Request.Context(), *in); err != nil {
				return nil, err
			}
			return gin.H{"reset": true}, nil
		},
	})

	me := ez.New(api.Group("", m.Gate.Require()), m.Log)
	type meOut struct {
		User     userOut     `json:"user"`
		Role     domain.Role `json:"role"`
		Redirect string      `json:"redirect"`
	}
	ez.RegisterAction(me, ez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			u, err := m.Identity.Me(c.Request.Context(), ez.UID(c))
			if err != nil {
				return meOut{}, err
			}
			role := domain.Role(c.GetString(mdw.KeyRole))
			return meOut{User: toUserOut(u), Role: role, Redirect: role.HomePath()}, nil
		},
	})
}

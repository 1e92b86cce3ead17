// Package ez 轻封装：一行注册一个动作接口，统一绑定、鉴权与错误映射
package ez

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"internship-portal/internal/core/report"
	"internship-portal/internal/domain"
	mdw "internship-portal/internal/transport/http/middleware"
	resp "internship-portal/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ {
	if log == nil {
		log = zap.NewNop()
	}
	return EZ{g: g, log: log}
}

// Group 子分组，可附加中间件
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // multipart / urlencoded 表单
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code   int
	Msg    string
	Err    error
	Fields map[string]string
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FromError 领域错误 → 响应码；未识别的一律 500
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return &AErr{Code: resp.CodeBadRequest, Msg: domain.ErrValidation.Error(), Err: err, Fields: ve.Fields}
	case errors.Is(err, domain.ErrValidation):
		return &AErr{Code: resp.CodeBadRequest, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &AErr{Code: resp.CodeUnauthorized, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrPendingApproval):
		return &AErr{Code: resp.CodePendingApproval, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrLockedOut):
		return &AErr{Code: resp.CodeLocked, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrForbidden):
		return &AErr{Code: resp.CodeForbidden, Msg: "forbidden", Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: "not found", Err: err}
	case errors.Is(err, domain.ErrConflict):
		return &AErr{Code: resp.CodeConflict, Msg: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &AErr{Code: resp.CodeTimeout, Msg: "timeout", Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// Fail 写错误响应；500 记日志，不向外暴露细节
func (e EZ) Fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Code == resp.CodeServerError {
		e.log.Error("action failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	if ae.Fields != nil {
		c.JSON(http.StatusOK, resp.Invalid(ae.Msg, ae.Fields))
		return
	}
	c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string        // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string        // 例："/auth/login"、"/posts/:id/active"
	Binder  Binder        // 绑定方式
	Auth    bool          // 是否要求登录（检查 userId）
	Roles   []domain.Role // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

// 在当前 EZ 下注册动作接口，成功返回 resp.OK(out)
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	e.handle(a.Method, a.Path, func(c *gin.Context) {
		in, ok := prepare(e, c, a)
		if !ok {
			return
		}
		out, err := a.Handler(c, in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	})
}

// RegisterDownload 成功时直接输出文件；失败仍走统一 JSON
func RegisterDownload[I any](e EZ, a Action[I, *report.File]) {
	e.handle(a.Method, a.Path, func(c *gin.Context) {
		in, ok := prepare(e, c, a)
		if !ok {
			return
		}
		f, err := a.Handler(c, in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+f.Name+`"`)
		c.Data(http.StatusOK, f.ContentType, f.Body)
	})
}

func prepare[I any, O any](e EZ, c *gin.Context, a Action[I, O]) (*I, bool) {
	// 1) 鉴权/角色
	if a.Auth || len(a.Roles) > 0 {
		if c.GetString(mdw.KeyUserID) == "" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return nil, false
		}
		if len(a.Roles) > 0 && !hasRole(domain.Role(c.GetString(mdw.KeyRole)), a.Roles) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return nil, false
		}
	}

	// 2) 绑定入参
	var in I
	var bindErr error
	switch a.Binder {
	case BindJSON:
		bindErr = c.ShouldBindJSON(&in)
	case BindQuery:
		bindErr = c.ShouldBindQuery(&in)
	case BindForm:
		bindErr = c.ShouldBind(&in)
	default: // BindNone: 不绑定
	}
	if bindErr != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
		return nil, false
	}
	return &in, true
}

func hasRole(role domain.Role, roles []domain.Role) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func (e EZ) handle(method, path string, h gin.HandlerFunc) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		e.g.GET(path, h)
	case http.MethodPut:
		e.g.PUT(path, h)
	case http.MethodPatch:
		e.g.PATCH(path, h)
	case http.MethodDelete:
		e.g.DELETE(path, h)
	default: // 默认 POST
		e.g.POST(path, h)
	}
}

// UID 当前登录用户 id
func UID(c *gin.Context) string { return c.GetString(mdw.KeyUserID) }

// ParamID 路径中的数字 id
func ParamID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || v == 0 {
		return 0, BadRequest("invalid " + name)
	}
	return uint(v), nil
}

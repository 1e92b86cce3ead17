// Package handler 各业务模块的 HTTP 动作，实现 router.APIModule / router.AdminModule
package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"internship-portal/internal/core/auth"
	"internship-portal/internal/domain"
	"internship-portal/internal/service"
	mdw "internship-portal/internal/transport/http/middleware"
)

// Gate 组装鉴权中间件
type Gate struct {
	JWT   *auth.JWTer
	Roles mdw.RoleResolver
}

// Require roles 为空时只要求登录
func (g Gate) Require(roles ...domain.Role) gin.HandlerFunc {
	return mdw.AuthJWT(g.JWT, g.Roles, roles...)
}

func (g Gate) Optional() gin.HandlerFunc { return mdw.OptionalAuth(g.JWT, g.Roles) }

var nopClose = func() {}

// formUpload 未上传该字段时返回 nil
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nopClose, nil
	}
	if err != nil {
		return nil, nopClose, domain.Invalid(field, err.Error())
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*service.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nopClose, err
	}
	return &service.Upload{Name: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

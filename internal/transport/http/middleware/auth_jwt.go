package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"internship-portal/internal/core/auth"
	"internship-portal/internal/domain"
	resp "internship-portal/internal/transport/http/response"
)

// gin.Context 中的键
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

// RoleResolver 每次请求从库中取当前角色，角色变更/删号立即生效
type RoleResolver interface {
	CurrentRole(ctx context.Context, uid string) (domain.Role, error)
}

// AuthJWT roles 为空时只要求登录
func AuthJWT(j *auth.JWTer, rr RoleResolver, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := auth.BearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		role, err := rr.CurrentRole(c.Request.Context(), claims.UID)
		if err != nil {
			code, msg := gateError(err)
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(code, msg))
			return
		}
		if len(roles) > 0 && !allowed(role, roles) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, string(role))
		c.Next()
	}
}

// OptionalAuth 有合法 token 时写入身份，否则按匿名继续
func OptionalAuth(j *auth.JWTer, rr RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := auth.BearerToken(c.GetHeader("Authorization")); tok != "" {
			if claims, err := j.Parse(tok); err == nil {
				if role, err := rr.CurrentRole(c.Request.Context(), claims.UID); err == nil {
					c.Set(KeyClaims, claims)
					c.Set(KeyUserID, claims.UID)
					c.Set(KeyRole, string(role))
				}
			}
		}
		c.Next()
	}
}

func gateError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrPendingApproval):
		return resp.CodePendingApproval, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return resp.CodeForbidden, "forbidden"
	}
	return resp.CodeServerError, "internal error"
}

func allowed(role domain.Role, roles []domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

package domain

import "strings"

// Role 用户角色
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEmployer Role = "Employer"
	RoleIntern   Role = "Intern"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleIntern:
		return true
	}
	return false
}

// ParseRole 大小写不敏感；未知返回 false
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleAdmin, RoleEmployer, RoleIntern} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

// SelfServiceRole 注册时只允许 Intern / Employer，其余一律回落到 Intern
func SelfServiceRole(s string) Role {
	if r, ok := ParseRole(s); ok && r != RoleAdmin {
		return r
	}
	return RoleIntern
}

// PrimaryRole 多角色时的有效角色：Admin > Employer > Intern
func PrimaryRole(roles []Role) (Role, bool) {
	var has = map[Role]bool{}
	for _, r := range roles {
		has[r] = true
	}
	for _, r := range []Role{RoleAdmin, RoleEmployer, RoleIntern} {
		if has[r] {
			return r, true
		}
	}
	return "", false
}

// HomePath 登录后的跳转提示
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleEmployer:
		return "/employer"
	case RoleIntern:
		return "/intern"
	}
	return "/"
}

package domain

import (
	"context"
	"time"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:32" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	FirstName    string     `gorm:"size:64" json:"firstName"`
	LastName     string     `gorm:"size:64" json:"lastName"`
	PasswordHash string     `gorm:"size:191" json:"-"`
	IsApproved   bool       `gorm:"not null" json:"isApproved"`
	FailedLogins int        `gorm:"not null" json:"-"`
	LockedUntil  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Roles []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RoleList 已加载 Roles 时的角色切片
func (u *User) RoleList() []Role {
	out := make([]Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Role)
	}
	return out
}

// Locked 是否处于锁定期
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// UserRole 角色成员表，(user_id, role) 复合主键
type UserRole struct {
	UserID string `gorm:"primaryKey;size:32" json:"-"`
	Role   Role   `gorm:"primaryKey;size:16" json:"role"`
}

func (UserRole) TableName() string { return "user_roles" }

// PasswordResetToken 只保存 token 的 sha256
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    string     `gorm:"size:32;index;not null"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *User, role Role) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListPending(ctx context.Context) ([]User, error)
	SetApproved(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, hash string) error
	ClearFailedLogins(ctx context.Context, id string) error
	// RecordFailedLogin 返回本次是否触发锁定
	RecordFailedLogin(ctx context.Context, id string, limit int, until time.Time) (bool, error)
	Delete(ctx context.Context, id string) error

	Roles(ctx context.Context, id string) ([]Role, error)
	AddRole(ctx context.Context, id string, role Role) error
	ReplaceRoles(ctx context.Context, id string, role Role) error

	Count(ctx context.Context) (int64, error)
	CountPending(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role Role, approvedOnly bool) (int64, error)
}

// ResetTokenStore 一次性重置令牌；Take 成功即消费
type ResetTokenStore interface {
	Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	Take(ctx context.Context, tokenHash string) (userID string, err error)
}

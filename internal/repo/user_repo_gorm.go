package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// Create 用户 + 初始角色同一事务
func (r *UserRepo) Create(ctx context.Context, u *domain.User, role domain.Role) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&domain.UserRole{UserID: u.ID, Role: role}).Error
	})
	if isDupKey(err) {
		return domain.ErrDuplicateEmail
	}
	if err == nil {
		u.Roles = []domain.UserRole{{UserID: u.ID, Role: role}}
	}
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, "id = ?", id).Error
	if notFound(err) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Roles").
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if notFound(err) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("created_at desc").Find(&users).Error
	return users, err
}

func (r *UserRepo) ListPending(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("is_approved = ?", false).Order("created_at desc").Find(&users).Error
	return users, err
}

// updateCols 按列更新；行不存在返回 ErrNotFound，不会回写整行
func (r *UserRepo) updateCols(ctx context.Context, id string, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetApproved(ctx context.Context, id string) error {
	return r.updateCols(ctx, id, map[string]any{"is_approved": true})
}

// SetPassword 同时清空失败计数与锁定
func (r *UserRepo) SetPassword(ctx context.Context, id, hash string) error {
	return r.updateCols(ctx, id, map[string]any{"password_hash": hash, "failed_logins": 0, "locked_until": nil})
}

func (r *UserRepo) ClearFailedLogins(ctx context.Context, id string) error {
	return r.updateCols(ctx, id, map[string]any{"failed_logins": 0, "locked_until": nil})
}

// RecordFailedLogin 原子自增；达到 limit 时锁定到 until 并清零计数
func (r *UserRepo) RecordFailedLogin(ctx context.Context, id string, limit int, until time.Time) (bool, error) {
	locked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", id).
			UpdateColumn("failed_logins", gorm.Expr("failed_logins + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		var n int
		if err := tx.Model(&domain.User{}).Where("id = ?", id).Pluck("failed_logins", &n).Error; err != nil {
			return err
		}
		if n < limit {
			return nil
		}
		locked = true
		return tx.Model(&domain.User{}).Where("id = ?", id).
			Updates(map[string]any{"failed_logins": 0, "locked_until": until}).Error
	})
	return locked, err
}

// Delete 级联：资料、岗位及其投递/面试、本人投递/面试、收发消息、角色、重置令牌
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.Select("id").First(&u, "id = ?", id).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return err
		}

		var ep domain.EmployerProfile
		if err := tx.Select("id").Where("user_id = ?", id).Limit(1).Find(&ep).Error; err != nil {
			return err
		}
		if ep.ID != 0 {
			postIDs := func() *gorm.DB {
				return tx.Model(&domain.InternshipPost{}).Select("id").Where("employer_profile_id = ?", ep.ID)
			}
			if err := tx.Where("internship_post_id IN (?)", postIDs()).Delete(&domain.Application{}).Error; err != nil {
				return err
			}
			if err := tx.Where("employer_profile_id = ? OR internship_post_id IN (?)", ep.ID, postIDs()).Delete(&domain.Interview{}).Error; err != nil {
				return err
			}
			if err := tx.Where("employer_profile_id = ?", ep.ID).Delete(&domain.InternshipPost{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&domain.EmployerProfile{}, ep.ID).Error; err != nil {
				return err
			}
		}

		var ip domain.InternProfile
		if err := tx.Select("id").Where("user_id = ?", id).Limit(1).Find(&ip).Error; err != nil {
			return err
		}
		if ip.ID != 0 {
			for _, m := range []any{&domain.Application{}, &domain.Interview{}, &domain.Experience{}} {
				if err := tx.Where("intern_profile_id = ?", ip.ID).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&domain.InternProfile{}, ip.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.PasswordResetToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, "id = ?", id).Error
	})
}

func (r *UserRepo) Roles(ctx context.Context, id string) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).Model(&domain.UserRole{}).Where("user_id = ?", id).Pluck("role", &roles).Error
	return roles, err
}

// AddRole 已存在则忽略
func (r *UserRepo) AddRole(ctx context.Context, id string, role domain.Role) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UserRole{UserID: id, Role: role}).Error
}

// ReplaceRoles 先清空再添加唯一角色
func (r *UserRepo) ReplaceRoles(ctx context.Context, id string, role domain.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Create(&domain.UserRole{UserID: id, Role: role}).Error
	})
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("is_approved = ?", false).Count(&n).Error
	return n, err
}

func (r *UserRepo) CountByRole(ctx context.Context, role domain.Role, approvedOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role = ?", role)
	if approvedOnly {
		q = q.Where("users.is_approved = ?", true)
	}
	var n int64
	err := q.Distinct("users.id").Count(&n).Error
	return n, err
}

var _ domain.UserRepository = (*UserRepo)(nil)

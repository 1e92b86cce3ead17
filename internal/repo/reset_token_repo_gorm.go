package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"internship-portal/internal/domain"
)

// ResetTokenRepo 未配置 Redis 时的重置令牌存储
type ResetTokenRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewResetTokenRepo(db *gorm.DB) *ResetTokenRepo {
	return &ResetTokenRepo{db: db, now: time.Now}
}

func (r *ResetTokenRepo) Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	now := r.now()
	return r.db.WithContext(ctx).Create(&domain.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}).Error
}

// Take 条件更新 used_at 实现一次性消费
func (r *ResetTokenRepo) Take(ctx context.Context, tokenHash string) (string, error) {
	now := r.now()
	var uid string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.PasswordResetToken{}).
			Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidToken
		}
		var t domain.PasswordResetToken
		if err := tx.Select("user_id").First(&t, "token_hash = ?", tokenHash).Error; err != nil {
			return err
		}
		uid = t.UserID
		return nil
	})
	return uid, err
}

var _ domain.ResetTokenStore = (*ResetTokenRepo)(nil)

package cache

import (
	"context"
	"errors"
	"time"

	"internship-portal/internal/domain"
)

type resetRecord struct {
	UserID   string    `json:"uid"`
	IssuedAt time.Time `json:"iat"`
}

// ResetTokens 基于 Redis 的密码重置令牌存储，TTL 由 Redis 负责过期
type ResetTokens struct{ c *Cache }

func NewResetTokens(c *Cache) *ResetTokens { return &ResetTokens{c: c} }

func (s *ResetTokens) Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	return PutJSON(s.c, ctx, "reset:"+tokenHash, &resetRecord{UserID: userID, IssuedAt: time.Now()}, ttl)
}

func (s *ResetTokens) Take(ctx context.Context, tokenHash string) (string, error) {
	rec, err := TakeJSON[resetRecord](s.c, ctx, "reset:"+tokenHash)
	if errors.Is(err, ErrMiss) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return rec.UserID, nil
}

var _ domain.ResetTokenStore = (*ResetTokens)(nil)

package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type MessageRepo struct{ db *gorm.DB }

func NewMessageRepo(db *gorm.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *MessageRepo) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).Preload("Sender").Preload("Receiver").First(&m, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &m, err
}

func (r *MessageRepo) MarkRead(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *MessageRepo) Inbox(ctx context.Context, userID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.WithContext(ctx).Preload("Sender").
		Where("receiver_id = ?", userID).
		Order("sent_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *MessageRepo) Sent(ctx context.Context, userID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.WithContext(ctx).Preload("Receiver").
		Where("sender_id = ?", userID).
		Order("sent_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

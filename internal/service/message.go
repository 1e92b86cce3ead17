package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"internship-portal/internal/domain"
)

type MessageService struct {
	messages domain.MessageRepository
	users    domain.UserRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewMessageService(messages domain.MessageRepository, users domain.UserRepository, log *zap.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, log: log, now: time.Now}
}

type SendInput struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}

func (s *MessageService) Send(ctx context.Context, senderID string, in SendInput) (*domain.Message, error) {
	ve := domain.NewValidationError()
	if strings.TrimSpace(in.Content) == "" {
		ve.Add("content", "is required")
	}
	checkLen(ve, "subject", in.Subject, 200)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	rcv, err := s.users.FindByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if rcv == nil {
		return nil, domain.ErrNotFound
	}
	m := &domain.Message{
		SenderID:   senderID,
		ReceiverID: rcv.ID,
		Subject:    strings.TrimSpace(in.Subject),
		Content:    in.Content,
		SentAt:     s.now(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	m.Receiver = rcv
	messagesTotal.Inc()
	return m, nil
}

func (s *MessageService) Inbox(ctx context.Context, uid string) ([]domain.Message, error) {
	return s.messages.Inbox(ctx, uid)
}

func (s *MessageService) Sent(ctx context.Context, uid string) ([]domain.Message, error) {
	return s.messages.Sent(ctx, uid)
}

func (s *MessageService) UnreadCount(ctx context.Context, uid string) (int64, error) {
	return s.messages.CountUnread(ctx, uid)
}

// Read 收件人查看时标记已读；与消息无关的用户得到 NotFound
func (s *MessageService) Read(ctx context.Context, uid string, id uint) (*domain.Message, error) {
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || (m.ReceiverID != uid && m.SenderID != uid) {
		return nil, domain.ErrNotFound
	}
	if m.ReceiverID == uid && !m.IsRead {
		if err := s.messages.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		m.IsRead = true
	}
	return m, nil
}

type Recipient struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Recipient 写信页查询收件人
func (s *MessageService) Recipient(ctx context.Context, id string) (*Recipient, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return &Recipient{ID: u.ID, FullName: u.FullName(), Email: u.Email}, nil
}

package domain

import (
	"context"
	"time"
)

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   string    `gorm:"size:32;index;not null" json:"senderId"`
	Sender     *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	ReceiverID string    `gorm:"size:32;index;not null" json:"receiverId"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
	Subject    string    `gorm:"size:200" json:"subject"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	SentAt     time.Time `gorm:"index;not null" json:"sentAt"`
	IsRead     bool      `gorm:"not null" json:"isRead"`
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	FindByID(ctx context.Context, id uint) (*Message, error)
	MarkRead(ctx context.Context, id uint) error
	Inbox(ctx context.Context, userID string) ([]Message, error)
	Sent(ctx context.Context, userID string) ([]Message, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// Models 参与 AutoMigrate 的全部实体
func Models() []any {
	return []any{
		&User{}, &UserRole{}, &PasswordResetToken{},
		&InternProfile{}, &Experience{}, &EmployerProfile{},
		&InternshipPost{}, &Application{}, &Interview{}, &Message{},
	}
}

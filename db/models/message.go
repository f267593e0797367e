package models

import "time"

// Message is an archived chat message. Re-archiving the same
// (chat_id, message_id) replaces its text.
type Message struct {
	ID               uint      `gorm:"primaryKey"`
	ChatID           int64     `gorm:"not null;uniqueIndex:idx_messages_chat_message,priority:1"`
	MessageID        int64     `gorm:"not null;uniqueIndex:idx_messages_chat_message,priority:2"`
	FromUserID       int64     `gorm:"not null;index"`
	FromIsBot        bool      `gorm:"not null;default:false"`
	Text             string    `gorm:"type:text;not null"`
	ReplyToMessageID int64     `gorm:"not null;default:0"`
	SentAt           time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Message) TableName() string { return "messages" }

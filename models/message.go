package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one entry in a conversation. Immutable once created.
// System messages (workflow-generated) carry a nil SenderID.
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index:idx_msg_conv_seq,unique" json:"conversation_id"`
	Conversation   Conversation   `gorm:"foreignKey:ConversationID" json:"-"`
	SenderID       *uint          `gorm:"index" json:"sender_id,omitempty"`
	Sender         *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	IsSystem       bool           `gorm:"not null;default:false" json:"is_system"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Seq            uint64         `gorm:"not null;index:idx_msg_conv_seq,unique" json:"seq"` // monotonic per conversation
	Attachments    []Attachment   `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// Attachment is a URL reference to an uploaded file. The API never stores
// file bytes itself, only storage keys and metadata.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"message_id"`
	URL       string    `gorm:"not null" json:"url"`
	Filename  string    `gorm:"not null" json:"filename"`
	MimeType  string    `gorm:"not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Attachment model
func (Attachment) TableName() string {
	return "attachments"
}

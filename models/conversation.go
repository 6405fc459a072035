package models

import (
	"time"

	"gorm.io/gorm"
)

// ConversationType scopes a thread to the commerce context that opened it
type ConversationType string

const (
	ConversationPrePurchaseProduct ConversationType = "pre_purchase_product"
	ConversationPrePurchaseService ConversationType = "pre_purchase_service"
	ConversationGeneralInquiry     ConversationType = "general_inquiry"
	ConversationComplaint          ConversationType = "complaint"
	ConversationOrder              ConversationType = "order"
	ConversationBooking            ConversationType = "booking"
)

// ConversationStatus moves forward only: active -> resolved -> archived,
// or active -> archived directly
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationResolved ConversationStatus = "resolved"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation is a thread linking buyer, seller, and admin-on-demand
// around a commerce context
type Conversation struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	Type         ConversationType          `gorm:"not null;index" json:"type"`
	Subject      string                    `gorm:"not null" json:"subject"`
	Status       ConversationStatus        `gorm:"not null;default:'active';index" json:"status"`
	ProductID    *uint                     `gorm:"index" json:"product_id,omitempty"`
	ServiceID    *uint                     `gorm:"index" json:"service_id,omitempty"`
	OrderID      *uint                     `gorm:"index" json:"order_id,omitempty"`
	BookingID    *uint                     `gorm:"index" json:"booking_id,omitempty"`
	LastSeq      uint64                    `gorm:"not null;default:0" json:"-"` // highest message sequence handed out
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	DeletedAt    gorm.DeletedAt            `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// IsClosed reports whether new messages are blocked for non-admin senders
func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationResolved || c.Status == ConversationArchived
}

// ConversationParticipant records membership and a per-user last-read marker.
// Read state is a single sequence watermark, not per-message flags.
type ConversationParticipant struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conv_user,unique" json:"conversation_id"`
	UserID         uint      `gorm:"not null;index:idx_conv_user,unique" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role           Role      `gorm:"not null" json:"role"`
	LastReadSeq    uint64    `gorm:"not null;default:0" json:"last_read_seq"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ConversationParticipant model
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// QuoteStatus tracks a custom quote's lifecycle
type QuoteStatus string

const (
	QuoteRequested  QuoteStatus = "requested"
	QuotePending    QuoteStatus = "pending"
	QuoteSent       QuoteStatus = "sent"
	QuoteAccepted   QuoteStatus = "accepted"
	QuoteRejected   QuoteStatus = "rejected"
	QuoteExpired    QuoteStatus = "expired"
	QuoteSuperseded QuoteStatus = "superseded"
)

// IsTerminal reports whether no further transitions are possible
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteAccepted, QuoteRejected, QuoteExpired, QuoteSuperseded:
		return true
	}
	return false
}

// Quote is a seller-proposed custom price/quantity tied to a conversation.
// At most one quote per conversation may be non-terminal at a time; sending
// a new one marks the prior quote superseded.
type Quote struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ConversationID   uint           `gorm:"not null;index" json:"conversation_id"`
	Conversation     Conversation   `gorm:"foreignKey:ConversationID" json:"-"`
	ProductID        *uint          `gorm:"index" json:"product_id,omitempty"`
	ServiceID        *uint          `gorm:"index" json:"service_id,omitempty"`
	ProductVariantID *uint          `json:"product_variant_id,omitempty"`
	ServicePackageID *uint          `json:"service_package_id,omitempty"`
	QuotedPrice      float64        `gorm:"not null" json:"quoted_price"`
	Quantity         int            `gorm:"not null;default:1" json:"quantity"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	Status           QuoteStatus    `gorm:"not null;default:'requested';index" json:"status"`
	Version          uint           `gorm:"not null;default:1" json:"-"` // optimistic lock
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Quote model
func (Quote) TableName() string {
	return "quotes"
}

// IsExpiredAt reports whether the quote's deadline has passed.
// Expiry is applied lazily: checked on read and at accept time, never by a
// background sweep.
func (q *Quote) IsExpiredAt(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

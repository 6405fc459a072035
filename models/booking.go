package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus tracks a service booking's lifecycle
type BookingStatus string

const (
	BookingPendingConfirmation BookingStatus = "pending_confirmation"
	BookingConfirmed           BookingStatus = "confirmed"
	BookingPendingPayment      BookingStatus = "pending_payment"
	BookingPaid                BookingStatus = "paid"
	BookingOngoing             BookingStatus = "ongoing"
	BookingCompleted           BookingStatus = "completed"
	BookingCancelled           BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Booking represents a scheduled service purchase. PackageID is nil for
// custom-quote bookings. Confirmation auto-advances to pending_payment;
// only admin may mark pending_payment paid.
type Booking struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	BuyerID        uint           `gorm:"not null;index" json:"buyer_id"`
	Buyer          User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID       uint           `gorm:"not null;index" json:"seller_id"` // derived from the service
	ServiceID      uint           `gorm:"not null;index" json:"service_id"`
	PackageID      *uint          `json:"package_id,omitempty"`
	ScheduledAt    time.Time      `gorm:"not null" json:"scheduled_at"`
	Amount         float64        `gorm:"not null" json:"amount"`
	Status         BookingStatus  `gorm:"not null;default:'pending_confirmation';index" json:"status"`
	QuoteID        *uint          `gorm:"index" json:"quote_id,omitempty"`
	ConversationID *uint          `gorm:"index" json:"conversation_id,omitempty"`
	Version        uint           `gorm:"not null;default:1" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

package models

import "time"

// NotificationType categorizes what a notification is about
type NotificationType string

const (
	NotifMessage      NotificationType = "new_message"
	NotifQuote        NotificationType = "quote"
	NotifDesign       NotificationType = "design_approval"
	NotifOrder        NotificationType = "order"
	NotifBooking      NotificationType = "booking"
	NotifReturn       NotificationType = "return_request"
	NotifBoost        NotificationType = "boost"
	NotifConversation NotificationType = "conversation"
)

// Notification is an advisory record delivered by periodic client poll.
// Real-time urgency is carried by the websocket hub for open conversations.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Link      string           `json:"link"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

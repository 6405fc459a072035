package models

import (
	"time"

	"gorm.io/gorm"
)

// ReturnStatus tracks one request -> response -> arbitration cycle
type ReturnStatus string

const (
	ReturnRequested      ReturnStatus = "requested"
	ReturnUnderReview    ReturnStatus = "under_review"
	ReturnSellerApproved ReturnStatus = "seller_approved"
	ReturnSellerRejected ReturnStatus = "seller_rejected"
	ReturnAdminApproved  ReturnStatus = "admin_approved"
	ReturnAdminRejected  ReturnStatus = "admin_rejected"
	ReturnRefunded       ReturnStatus = "refunded"
	ReturnCompleted      ReturnStatus = "completed"
)

// IsTerminal reports whether the attempt has finished its cycle.
// A new attempt may only be filed once the previous one is terminal.
func (s ReturnStatus) IsTerminal() bool {
	switch s {
	case ReturnAdminRejected, ReturnRefunded, ReturnCompleted:
		return true
	}
	return false
}

// ReturnReason enumerates why a buyer is requesting a return
type ReturnReason string

const (
	ReasonDamaged        ReturnReason = "damaged"
	ReasonNotAsDescribed ReturnReason = "not_as_described"
	ReasonWrongItem      ReturnReason = "wrong_item"
	ReasonLate           ReturnReason = "late"
	ReasonQuality        ReturnReason = "quality"
	ReasonOther          ReturnReason = "other"
)

// ReturnRequest is one return/refund attempt against exactly one order or
// booking. Attempts are immutable once superseded; attemptNumber strictly
// increases per order/booking and is bounded by MAX_RETURN_ATTEMPTS.
type ReturnRequest struct {
	ID                         uint             `gorm:"primaryKey" json:"id"`
	OrderID                    *uint            `gorm:"index" json:"order_id,omitempty"`
	BookingID                  *uint            `gorm:"index" json:"booking_id,omitempty"`
	BuyerID                    uint             `gorm:"not null;index" json:"buyer_id"`
	SellerID                   uint             `gorm:"not null;index" json:"seller_id"`
	Reason                     ReturnReason     `gorm:"not null" json:"reason"`
	Description                string           `gorm:"type:text" json:"description"`
	RequestedRefundAmount      float64          `gorm:"not null" json:"requested_refund_amount"`
	AttemptNumber              int              `gorm:"not null;default:1" json:"attempt_number"`
	Status                     ReturnStatus     `gorm:"not null;default:'requested';index" json:"status"`
	SellerResponse             *string          `gorm:"type:text" json:"seller_response,omitempty"`
	SellerProposedRefundAmount *float64         `json:"seller_proposed_refund_amount,omitempty"`
	Evidence                   []ReturnEvidence `gorm:"foreignKey:ReturnRequestID" json:"evidence,omitempty"`
	Version                    uint             `gorm:"not null;default:1" json:"-"`
	CreatedAt                  time.Time        `json:"created_at"`
	UpdatedAt                  time.Time        `json:"updated_at"`
	DeletedAt                  gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ReturnRequest model
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// ReturnEvidence is a URL reference to an uploaded evidence file
type ReturnEvidence struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReturnRequestID uint      `gorm:"not null;index" json:"return_request_id"`
	URL             string    `gorm:"not null" json:"url"`
	Filename        string    `gorm:"not null" json:"filename"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for the ReturnEvidence model
func (ReturnEvidence) TableName() string {
	return "return_evidence"
}

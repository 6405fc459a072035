package models

import (
	"time"

	"gorm.io/gorm"
)

// DesignApprovalStatus tracks seller sign-off of a buyer-submitted design
type DesignApprovalStatus string

const (
	DesignPending          DesignApprovalStatus = "pending"
	DesignApproved         DesignApprovalStatus = "approved"
	DesignRejected         DesignApprovalStatus = "rejected"
	DesignChangesRequested DesignApprovalStatus = "changes_requested"
)

// DesignApproval is a buyer-submitted design artifact requiring seller sign-off
// before the order or booking can proceed. The buyer may only create a new
// submission after a prior one ends in changes_requested or rejected.
type DesignApproval struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	ConversationID   uint                 `gorm:"not null;index" json:"conversation_id"`
	Conversation     Conversation         `gorm:"foreignKey:ConversationID" json:"-"`
	ProductID        *uint                `gorm:"index" json:"product_id,omitempty"`
	ServiceID        *uint                `gorm:"index" json:"service_id,omitempty"`
	ProductVariantID *uint                `json:"product_variant_id,omitempty"`
	ServicePackageID *uint                `json:"service_package_id,omitempty"`
	BuyerID          uint                 `gorm:"not null;index" json:"buyer_id"`
	Status           DesignApprovalStatus `gorm:"not null;default:'pending';index" json:"status"`
	SellerNotes      *string              `gorm:"type:text" json:"seller_notes,omitempty"`
	Files            []DesignFile         `gorm:"foreignKey:DesignApprovalID" json:"files,omitempty"`
	Version          uint                 `gorm:"not null;default:1" json:"-"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	DeletedAt        gorm.DeletedAt       `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DesignApproval model
func (DesignApproval) TableName() string {
	return "design_approvals"
}

// DesignFile is a URL reference to an uploaded design artifact
type DesignFile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	DesignApprovalID uint      `gorm:"not null;index" json:"design_approval_id"`
	URL              string    `gorm:"not null" json:"url"`
	Filename         string    `gorm:"not null" json:"filename"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for the DesignFile model
func (DesignFile) TableName() string {
	return "design_files"
}

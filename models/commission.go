package models

import "time"

// CommissionEntryType distinguishes earnings from reversals
type CommissionEntryType string

const (
	CommissionEarned   CommissionEntryType = "earned"
	CommissionReversed CommissionEntryType = "reversed"
)

// CommissionEntry is a ledger row recording the platform's cut of a
// completed order or booking. Refund reversals append a negative-amount
// row referencing the original entry; rows are never updated or deleted.
type CommissionEntry struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	SellerID        uint                `gorm:"not null;index" json:"seller_id"`
	OrderID         *uint               `gorm:"index" json:"order_id,omitempty"`
	BookingID       *uint               `gorm:"index" json:"booking_id,omitempty"`
	Type            CommissionEntryType `gorm:"not null" json:"type"`
	GrossAmount     float64             `gorm:"not null" json:"gross_amount"`
	CommissionRate  float64             `gorm:"not null" json:"commission_rate"`
	CommissionOwed  float64             `gorm:"not null" json:"commission_owed"`
	SellerPayout    float64             `gorm:"not null" json:"seller_payout"`
	ReversesEntryID *uint               `gorm:"index" json:"reverses_entry_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// TableName specifies the table name for the CommissionEntry model
func (CommissionEntry) TableName() string {
	return "commission_entries"
}

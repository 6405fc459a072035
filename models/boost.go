package models

import (
	"time"

	"gorm.io/gorm"
)

// BoostItemType identifies what kind of listing a boost promotes
type BoostItemType string

const (
	BoostItemProduct BoostItemType = "product"
	BoostItemService BoostItemType = "service"
)

// BoostPaymentMethod is how a seller pays for a boost
type BoostPaymentMethod string

const (
	BoostPaymentIPG          BoostPaymentMethod = "ipg"
	BoostPaymentBankTransfer BoostPaymentMethod = "bank_transfer"
)

// BoostPurchaseStatus tracks a boost payment's lifecycle
type BoostPurchaseStatus string

const (
	BoostPending    BoostPurchaseStatus = "pending"
	BoostProcessing BoostPurchaseStatus = "processing"
	BoostPaid       BoostPurchaseStatus = "paid"
	BoostFailed     BoostPurchaseStatus = "failed"
	BoostCancelled  BoostPurchaseStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s BoostPurchaseStatus) IsTerminal() bool {
	return s == BoostPaid || s == BoostFailed || s == BoostCancelled
}

// BoostPackage is a purchasable promotion tier
type BoostPackage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Price        float64   `gorm:"not null" json:"price"`
	DurationDays int       `gorm:"not null" json:"duration_days"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the BoostPackage model
func (BoostPackage) TableName() string {
	return "boost_packages"
}

// BoostPurchase is a seller's payment for promotional placement. Bank
// transfers are confirmed asynchronously by admin; IPG purchases are
// confirmed by the payment gateway callback.
type BoostPurchase struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	SellerID         uint                `gorm:"not null;index" json:"seller_id"`
	PackageID        uint                `gorm:"not null" json:"package_id"`
	Package          BoostPackage        `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	ItemID           uint                `gorm:"not null;index" json:"item_id"`
	ItemType         BoostItemType       `gorm:"not null" json:"item_type"`
	PaymentMethod    BoostPaymentMethod  `gorm:"not null" json:"payment_method"`
	Amount           float64             `gorm:"not null" json:"amount"`
	Status           BoostPurchaseStatus `gorm:"not null;default:'pending';index" json:"status"`
	PaymentSlipURL   *string             `json:"payment_slip_url,omitempty"`
	PaymentReference *string             `gorm:"index" json:"payment_reference,omitempty"`
	Version          uint                `gorm:"not null;default:1" json:"-"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName specifies the table name for the BoostPurchase model
func (BoostPurchase) TableName() string {
	return "boost_purchases"
}

// BoostedItem is an active promotion window. At most one active row may
// exist per (item_id, item_type); the invariant is re-checked inside the
// activation transaction, not at purchase time.
type BoostedItem struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ItemID    uint          `gorm:"not null;index:idx_boosted_item" json:"item_id"`
	ItemType  BoostItemType `gorm:"not null;index:idx_boosted_item" json:"item_type"`
	PackageID uint          `gorm:"not null" json:"package_id"`
	StartDate time.Time     `gorm:"not null" json:"start_date"`
	EndDate   time.Time     `gorm:"not null" json:"end_date"`
	IsActive  bool          `gorm:"not null;default:true;index:idx_boosted_item" json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the BoostedItem model
func (BoostedItem) TableName() string {
	return "boosted_items"
}

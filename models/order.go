package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus tracks a product order's lifecycle
type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Order represents a product purchase. Shipping happens only through admin
// consolidation: sellers flag readyToShip from processing, admin moves the
// order to shipped.
type Order struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	BuyerID          uint           `gorm:"not null;index" json:"buyer_id"`
	Buyer            User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID         uint           `gorm:"not null;index" json:"seller_id"` // derived from the product
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint          `json:"product_variant_id,omitempty"`
	UnitPrice        float64        `gorm:"not null" json:"unit_price"`
	Quantity         int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	ShippingCost     float64        `gorm:"not null;default:0" json:"shipping_cost"`
	ShippingAddress  string         `gorm:"type:text" json:"shipping_address"`
	Status           OrderStatus    `gorm:"not null;default:'pending_payment';index" json:"status"`
	ReadyToShip      bool           `gorm:"not null;default:false" json:"ready_to_ship"`
	Carrier          *string        `json:"carrier,omitempty"`
	TrackingNumber   *string        `json:"tracking_number,omitempty"`
	QuoteID          *uint          `gorm:"index" json:"quote_id,omitempty"`
	DesignApprovalID *uint          `gorm:"index" json:"design_approval_id,omitempty"`
	ConversationID   *uint          `gorm:"index" json:"conversation_id,omitempty"`
	Version          uint           `gorm:"not null;default:1" json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Total returns the amount owed for the order
func (o *Order) Total() float64 {
	return o.UnitPrice*float64(o.Quantity) + o.ShippingCost
}

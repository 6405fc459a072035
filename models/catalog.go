package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a physical item sold by a seller
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SellerID    uint           `gorm:"not null;index" json:"seller_id"`
	Seller      User           `gorm:"foreignKey:SellerID" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	BasePrice   float64        `gorm:"not null" json:"base_price"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariant is a purchasable variation of a product (size, colour, material)
type ProductVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// Service represents a bookable offering (workshops, commissions, repairs)
type Service struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SellerID    uint           `gorm:"not null;index" json:"seller_id"`
	Seller      User           `gorm:"foreignKey:SellerID" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}

// ServicePackage is a priced tier of a service
type ServicePackage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ServiceID uint      `gorm:"not null;index" json:"service_id"`
	Service   Service   `gorm:"foreignKey:ServiceID" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ServicePackage) TableName() string {
	return "service_packages"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies which side of the marketplace a user acts as.
// Multi-role users hold one row per identity; the acting role is always
// passed explicitly into workflow calls, never inferred from session state.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User represents a marketplace user (buyer, seller, or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"not null;default:'buyer'" json:"role"`
	ShopName  *string        `json:"shop_name,omitempty"` // set when a seller registers a shop
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

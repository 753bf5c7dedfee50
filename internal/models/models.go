package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Phone        string `gorm:"uniqueIndex;not null"     json:"phone"`
	Address      string `gorm:"not null"                 json:"address"`
	District     string `json:"district"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

// Staff accounts are created pending and may not sign in until an
// administrator flips Approved. Rejected is terminal.
type Staff struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Phone        string `gorm:"uniqueIndex;not null"     json:"phone"`
	Address      string `json:"address"`
	District     string `json:"district"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Approved     bool   `gorm:"default:false"            json:"approved"`
	Rejected     bool   `gorm:"default:false"            json:"rejected"`
}

type Admin struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

// Price is stored in the smallest currency unit.
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Category    string `gorm:"index"                    json:"category"`
	Price       int64  `gorm:"not null"                 json:"price"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
}

// Workspace is a staff-owned listing, image-linked the same way
// products are.
type Workspace struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	StaffID     uint   `gorm:"index;not null"           json:"staff_id"`
	Name        string `gorm:"not null"                 json:"name"`
	Location    string `json:"location"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                    json:"id"`
	UserID    uint `gorm:"index:idx_cart_user_product,unique;not null" json:"user_id"`
	ProductID uint `gorm:"index:idx_cart_user_product,unique;not null" json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                  json:"quantity"`
}

type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"index;not null"           json:"user_id"`
	Name          string    `gorm:"not null"                 json:"name"`
	Phone         string    `json:"phone"`
	Address       string    `gorm:"not null"                 json:"address"`
	District      string    `json:"district"`
	State         string    `json:"state"`
	Pincode       string    `json:"pincode"`
	PaymentMethod string    `gorm:"not null"                 json:"payment_method"`
	PaymentStatus string    `gorm:"not null"                 json:"payment_status"`
	// GatewayOrderID pins the gateway session opened for this order, so
	// a confirmation for one order cannot be replayed against another.
	GatewayOrderID string    `gorm:"index"                    json:"gateway_order_id,omitempty"`
	Status         string    `gorm:"not null"                 json:"status"`
	Total          int64     `gorm:"not null"                 json:"total"`
	CreatedAt      time.Time `json:"created_at"`
}

// UnitPrice is frozen at placement time; later product price changes
// never touch it.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint   `gorm:"index;not null"           json:"order_id"`
	ProductID uint   `gorm:"not null"                 json:"product_id"`
	Name      string `json:"name"`
	Quantity  uint   `gorm:"not null"                 json:"quantity"`
	UnitPrice int64  `gorm:"not null"                 json:"unit_price"`
	LineTotal int64  `gorm:"not null"                 json:"line_total"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

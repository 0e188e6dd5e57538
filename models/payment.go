package models

import (
	"time"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

const (
	PaymentMethodManual = "manual"
	PaymentMethodStripe = "stripe"
)

// Payment is one payment attempt for an order.
type Payment struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	OrderID       uint       `json:"order_id" gorm:"not null;index"`
	Order         Order      `json:"-" gorm:"foreignKey:OrderID"`
	Amount        uint       `json:"amount" gorm:"not null"`
	Status        string     `json:"status" gorm:"type:varchar(10);not null;default:'pending'"`
	PaymentMethod string     `json:"payment_method" gorm:"type:varchar(10);not null;default:'manual'"`
	ReferenceID   string     `json:"reference_id" gorm:"type:varchar(255);index"` // gateway session id
	PaymentURL    string     `json:"payment_url,omitempty" gorm:"type:varchar(512)"`
	PaymentTime   *time.Time `json:"payment_time"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

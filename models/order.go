package models

import (
	"time"
)

const (
	OrderStatusCreated   = "created"
	OrderStatusAccepted  = "accepted"
	OrderStatusFinished  = "finished"
	OrderStatusCancelled = "cancelled"
)

const (
	OrderCommentMaxLen  = 512
	OrderTotalSumMinVal = 1
	OrderTotalTimeMin   = 1
	OrderTotalTimeMax   = 24 * 60
)

// Date and time layouts used for cleaning_date / cleaning_time columns.
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusCreated, OrderStatusAccepted, OrderStatusFinished, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index" json:"-"`
	User            User              `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	CleanerID       *uint             `gorm:"index" json:"cleaner_id,omitempty"`
	Cleaner         *User             `gorm:"foreignKey:CleanerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	AddressID       uint              `gorm:"not null" json:"-"`
	Address         Address           `gorm:"foreignKey:AddressID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"address"`
	CleaningTypeID  *uint             `json:"-"`
	CleaningType    *CleaningType     `gorm:"foreignKey:CleaningTypeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"cleaning_type"`
	TotalSum        uint              `gorm:"not null" json:"total_sum"`
	TotalTime       uint              `gorm:"not null" json:"total_time"`
	Comment         string            `gorm:"type:varchar(512);not null;default:''" json:"comment"`
	CommentCancel   *string           `gorm:"type:varchar(512)" json:"comment_cancel"`
	OrderStatus     string            `gorm:"type:varchar(10);not null;default:'created';index" json:"order_status"`
	RoomsNumber     uint              `gorm:"not null;default:0" json:"rooms_number"`
	BathroomsNumber uint              `gorm:"not null;default:0" json:"bathrooms_number"`
	PayStatus       bool              `gorm:"not null;default:false" json:"pay_status"`
	CleaningDate    string            `gorm:"type:varchar(10);not null;index" json:"cleaning_date"`
	CleaningTime    string            `gorm:"type:varchar(5);not null" json:"cleaning_time"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	Services        []ServicesInOrder `gorm:"foreignKey:OrderID" json:"services"`
	CreatedAt       time.Time         `gorm:"not null" json:"creation_date"`
	UpdatedAt       time.Time         `gorm:"not null" json:"-"`
}

// ServicesInOrder is an order line item. Amount is captured at booking time.
type ServicesInOrder struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	OrderID   uint    `gorm:"not null;index" json:"-"`
	Order     Order   `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ServiceID uint    `gorm:"not null" json:"id"`
	Service   Service `gorm:"foreignKey:ServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"service"`
	Amount    uint    `gorm:"not null" json:"amount"`
}

// Window returns the order's [start, end) interval on its cleaning date.
func (o *Order) Window(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateFormat+" "+TimeFormat, o.CleaningDate+" "+o.CleaningTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(o.TotalTime) * time.Minute), nil
}

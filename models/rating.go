package models

import "time"

const (
	RatingScoreMin = 1
	RatingScoreMax = 5
)

// Rating is either a customer review of a finished order or a review
// imported from the maps widget (FromMaps, no user/order).
type Rating struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(100);not null" json:"username"`
	UserID   *uint     `gorm:"index" json:"-"`
	User     *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	OrderID  *uint     `gorm:"index" json:"-"`
	Order    *Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	FromMaps bool      `gorm:"not null;default:false;index" json:"-"`
	PubDate  time.Time `gorm:"not null" json:"pub_date"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Score    uint      `gorm:"not null" json:"score"`
}

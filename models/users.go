package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleCleaner  = "cleaner"
	RoleCustomer = "customer"
)

const (
	UserNameMaxLen  = 30
	UserEmailMaxLen = 80
)

type User struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Username  *string  `gorm:"type:varchar(30)" json:"username"`
	Email     string   `gorm:"type:varchar(80);uniqueIndex;not null" json:"email"`
	Password  string   `gorm:"type:varchar(255);not null" json:"-"`
	Phone     *string  `gorm:"type:varchar(20)" json:"phone"`
	Role      string   `gorm:"type:varchar(20);not null;default:'customer'" json:"-"`
	AddressID *uint    `json:"-"`
	Address   *Address `gorm:"foreignKey:AddressID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"address"`

	// Cleaners only. Vacation dates are YYYY-MM-DD, both ends inclusive.
	IsCleaner      bool    `gorm:"not null;default:false;index" json:"-"`
	OnVacationFrom *string `gorm:"type:varchar(10)" json:"on_vacation_from,omitempty"`
	OnVacationTo   *string `gorm:"type:varchar(10)" json:"on_vacation_to,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the email when no username was given.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

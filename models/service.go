package models

import "time"

const (
	ServiceTypeMain       = "main"
	ServiceTypeAdditional = "additional"
)

const (
	ServiceTitleMaxLen      = 60
	ServicePriceMinVal      = 60
	CleaningTimeMinuteMin   = 1
	CleaningTypeTitleMaxLen = 25
	CleaningTypeCoefMinVal  = 1
	MeasureTitleMaxLen      = 25
)

type Measure struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"type:varchar(25);uniqueIndex;not null" json:"title"`
}

type Service struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(60);not null" json:"title"`
	Price        uint      `gorm:"not null" json:"price"`
	MeasureID    uint      `gorm:"not null" json:"-"`
	Measure      Measure   `gorm:"foreignKey:MeasureID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Image        string    `gorm:"type:varchar(255)" json:"image"`
	ServiceType  string    `gorm:"type:varchar(11);not null;default:'main';index" json:"service_type"`
	CleaningTime uint      `gorm:"not null" json:"cleaning_time"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// CleaningType is a named bundle of services with a price coefficient.
type CleaningType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(25);uniqueIndex;not null" json:"title"`
	Coefficient uint      `gorm:"not null;default:1" json:"coefficient"`
	Services    []Service `gorm:"many2many:cleaning_type_services;" json:"service"`
}

package models

const (
	AddressCityMaxLen      = 50
	AddressStreetMaxLen    = 50
	AddressHouseMaxVal     = 999
	AddressEntranceMaxVal  = 50
	AddressFloorMaxVal     = 150
	AddressApartmentMaxVal = 9999
)

// Address rows are shared: two bookings with identical fields point at one row.
type Address struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	City      string `gorm:"type:varchar(50);not null" json:"city" binding:"required,max=50"`
	Street    string `gorm:"type:varchar(50);not null" json:"street" binding:"required,max=50"`
	House     uint   `gorm:"not null" json:"house" binding:"required,max=999"`
	Entrance  *uint  `json:"entrance" binding:"omitempty,max=50"`
	Floor     *uint  `json:"floor" binding:"omitempty,max=150"`
	Apartment *uint  `json:"apartment" binding:"omitempty,max=9999"`
}

// Key returns the column set an address is matched on. Nil pointers
// become IS NULL conditions.
func (a Address) Key() map[string]interface{} {
	return map[string]interface{}{
		"city":      a.City,
		"street":    a.Street,
		"house":     a.House,
		"entrance":  Nullable(a.Entrance),
		"floor":     Nullable(a.Floor),
		"apartment": Nullable(a.Apartment),
	}
}

// Nullable unwraps p so a map condition renders IS NULL for nil.
func Nullable(p *uint) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

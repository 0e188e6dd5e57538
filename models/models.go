package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Address{},
		&User{},
		&Measure{},
		&Service{},
		&CleaningType{},
		&Order{},
		&ServicesInOrder{},
		&Rating{},
		&Payment{},
		&Notification{},
	}
}

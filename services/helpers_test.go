package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Clean-PRO/backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func seedCleaner(t *testing.T, db *gorm.DB, email string, from, to *string) models.User {
	t.Helper()
	u := models.User{
		Email:          email,
		Password:       "x",
		Role:           models.RoleCleaner,
		IsCleaner:      true,
		OnVacationFrom: from,
		OnVacationTo:   to,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed cleaner: %v", err)
	}
	return u
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "x", Role: models.RoleCustomer}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return u
}

func seedService(t *testing.T, db *gorm.DB, title string) models.Service {
	t.Helper()
	m := models.Measure{Title: "m2-" + title}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed measure: %v", err)
	}
	s := models.Service{Title: title, Price: 100, MeasureID: m.ID, ServiceType: models.ServiceTypeMain, CleaningTime: 30}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return s
}

// seedBooking places an order for cleanerID directly, bypassing the transaction.
func seedBooking(t *testing.T, db *gorm.DB, userID, cleanerID uint, date, start string, minutes uint) models.Order {
	t.Helper()
	addr := models.Address{City: "Moscow", Street: "Tverskaya", House: 1}
	if err := db.Where(addr.Key()).FirstOrCreate(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	o := models.Order{
		UserID:       userID,
		CleanerID:    &cleanerID,
		AddressID:    addr.ID,
		TotalSum:     1000,
		TotalTime:    minutes,
		OrderStatus:  models.OrderStatusCreated,
		CleaningDate: date,
		CleaningTime: start,
	}
	if err := db.Omit("User", "Cleaner", "Address", "CleaningType", "Services").Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

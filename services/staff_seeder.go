package services

import (
	"fmt"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	CleanersMin = 2
	CleanersMax = 9
)

var cleanerOrdinals = []string{"First", "Second", "Third", "Fourth", "Fifth", "Sixth", "Seventh", "Eighth", "Ninth"}

// CreateCleaners makes sure cleaner_pro_1..count exist. Counts outside 2..9
// fall back to 2. Existing accounts are skipped. It returns how many were created.
func CreateCleaners(db *gorm.DB, count int, salt string, iterations int) (int, error) {
	if count < CleanersMin || count > CleanersMax {
		count = CleanersMin
	}

	var cleaners []models.User
	for i := 1; i <= count; i++ {
		email := fmt.Sprintf("cleaner_pro_%d@email.com", i)
		var exists int64
		if err := db.Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
			return 0, err
		}
		if exists > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(utils.CreatePassword(email, salt, iterations, utils.PasswordMinCycles)), bcrypt.DefaultCost)
		if err != nil {
			utils.ErrorLogger.Printf("Cleaner %d was not added: %v", i, err)
			continue
		}
		username := "Ivan Cleaner-" + cleanerOrdinals[i-1]
		phone := fmt.Sprintf("+7911222220%d", i)
		cleaners = append(cleaners, models.User{
			Email:     email,
			Username:  &username,
			Password:  string(hash),
			Phone:     &phone,
			Role:      models.RoleCleaner,
			IsCleaner: true,
		})
	}
	if len(cleaners) == 0 {
		return 0, nil
	}
	if err := db.Omit("Address").Create(&cleaners).Error; err != nil {
		return 0, fmt.Errorf("create cleaners: %w", err)
	}
	utils.InfoLogger.Printf("Created %d cleaners", len(cleaners))
	return len(cleaners), nil
}

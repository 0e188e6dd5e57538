package services

import (
	"fmt"
	"testing"

	"github.com/Clean-PRO/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCleaners(t *testing.T) {
	db := setupTestDB(t)

	n, err := CreateCleaners(db, 3, "salt", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = CreateCleaners(db, 4, "salt", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "existing cleaners are skipped")

	var cleaners []models.User
	require.NoError(t, db.Where("is_cleaner = ?", true).Order("id").Find(&cleaners).Error)
	require.Len(t, cleaners, 4)
	assert.Equal(t, "cleaner_pro_1@email.com", cleaners[0].Email)
	assert.Equal(t, "Ivan Cleaner-Fourth", *cleaners[3].Username)
	assert.Equal(t, models.RoleCleaner, cleaners[3].Role)
}

func TestCreateCleanersClampsCount(t *testing.T) {
	for _, count := range []int{0, 1, 10} {
		t.Run(fmt.Sprintf("count_%d", count), func(t *testing.T) {
			db := setupTestDB(t)
			n, err := CreateCleaners(db, count, "salt", 1)
			require.NoError(t, err)
			assert.Equal(t, CleanersMin, n)
		})
	}
}

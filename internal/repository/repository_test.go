package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jazakallah/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Masjid{}, &models.PrayerTime{}))
	return db
}

func seedMasjid(t *testing.T, db *gorm.DB, name string, lat, lng *float64) *models.Masjid {
	t.Helper()
	m := &models.Masjid{Name: name, Address: "1 Test Street", Latitude: lat, Longitude: lng}
	require.NoError(t, NewMasjidRepository(db).Create(m))
	return m
}

func f(v float64) *float64 { return &v }

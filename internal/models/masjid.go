package models

import (
	"time"
)

// Masjid is a directory entry. Latitude/longitude are separate nullable
// decimal columns for portability and Haversine queries; a masjid with only
// one of them set is stored but never matches a nearby query.
type Masjid struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	Name              string      `gorm:"size:255;not null" json:"name"`
	Address           string      `gorm:"size:255;not null" json:"address"`
	Latitude          *float64    `gorm:"type:decimal(10,7);index:idx_masjids_lat_lng" json:"latitude"`
	Longitude         *float64    `gorm:"type:decimal(10,7);index:idx_masjids_lat_lng" json:"longitude"`
	ContactInfo       ContactInfo `gorm:"type:json" json:"contact_info"`
	Timezone          string      `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	CalculationMethod int         `gorm:"not null;default:1" json:"calculation_method"`
	AsrMethod         int         `gorm:"not null;default:1" json:"asr_method"`
	Image             string      `gorm:"size:512" json:"image,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	PrayerTimes []PrayerTime `gorm:"foreignKey:MasjidID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Masjid) TableName() string { return "masjids" }

// HasCoordinates reports whether both latitude and longitude are set.
func (m *Masjid) HasCoordinates() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// MasjidWithDistance is a nearby query result row.
type MasjidWithDistance struct {
	Masjid
	DistanceKm float64 `json:"distance_km"`
}

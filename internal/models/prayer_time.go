package models

import (
	"time"
)

// PrayerTime is one masjid's schedule for one calendar date. The composite
// unique index keeps at most one row per (masjid_id, date); re-ingesting the
// same date updates the row in place.
type PrayerTime struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	MasjidID       uint       `gorm:"not null;uniqueIndex:idx_prayer_times_masjid_date" json:"masjid_id"`
	Date           Date       `gorm:"type:date;not null;uniqueIndex:idx_prayer_times_masjid_date" json:"date"`
	PrayerData     PrayerData `gorm:"type:json;not null" json:"prayer_data"`
	Source         string     `gorm:"size:20;not null;default:'manual'" json:"source"`
	TimetableImage string     `gorm:"size:512" json:"timetable_image,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Masjid *Masjid `gorm:"foreignKey:MasjidID;constraint:OnDelete:CASCADE" json:"masjid,omitempty"`
}

func (PrayerTime) TableName() string { return "prayer_times" }

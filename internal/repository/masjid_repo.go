package repository

import (
	"errors"
	"math"
	"sort"

	"gorm.io/gorm"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
	"jazakallah/pkg/geo"
)

// MasjidRepository persists masjid records and answers proximity queries.
type MasjidRepository struct {
	db *gorm.DB
}

func NewMasjidRepository(db *gorm.DB) *MasjidRepository {
	return &MasjidRepository{db: db}
}

// MasjidUpdate carries the supplied fields of a partial update; nil means
// "leave unchanged". ClearLatitude/ClearLongitude un-set a stored coordinate,
// which a nil pointer cannot express.
type MasjidUpdate struct {
	Name              *string
	Address           *string
	Latitude          *float64
	Longitude         *float64
	ClearLatitude     bool
	ClearLongitude    bool
	ContactInfo       *models.ContactInfo
	Timezone          *string
	CalculationMethod *int
	AsrMethod         *int
	Image             *string
}

// Create validates required fields, fills defaults and stores the record.
func (r *MasjidRepository) Create(m *models.Masjid) error {
	fields := map[string]string{}
	if m.Name == "" {
		fields["name"] = "name is required"
	}
	if m.Address == "" {
		fields["address"] = "address is required"
	}
	validateCoordinates(m.Latitude, m.Longitude, fields)
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	if m.ContactInfo == nil {
		m.ContactInfo = models.ContactInfo{}
	}
	if m.Timezone == "" {
		m.Timezone = domain.DefaultTimezone
	}
	if m.CalculationMethod == 0 {
		m.CalculationMethod = domain.DefaultCalculationMethod
	}
	if m.AsrMethod == 0 {
		m.AsrMethod = domain.DefaultAsrMethod
	}
	if err := r.db.Create(m).Error; err != nil {
		return &domain.StorageError{Op: "create masjid", Err: err}
	}
	return nil
}

// Update applies only the supplied fields, re-validating changed coordinates.
func (r *MasjidRepository) Update(id uint, u MasjidUpdate) (*models.Masjid, error) {
	m, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if u.Name != nil {
		if *u.Name == "" {
			fields["name"] = "name must not be empty"
		}
		m.Name = *u.Name
	}
	if u.Address != nil {
		if *u.Address == "" {
			fields["address"] = "address must not be empty"
		}
		m.Address = *u.Address
	}
	if u.ClearLatitude {
		m.Latitude = nil
	} else if u.Latitude != nil {
		m.Latitude = u.Latitude
	}
	if u.ClearLongitude {
		m.Longitude = nil
	} else if u.Longitude != nil {
		m.Longitude = u.Longitude
	}
	if u.Latitude != nil || u.Longitude != nil {
		validateCoordinates(m.Latitude, m.Longitude, fields)
	}
	if u.ContactInfo != nil {
		m.ContactInfo = *u.ContactInfo
	}
	if u.Timezone != nil {
		m.Timezone = *u.Timezone
	}
	if u.CalculationMethod != nil {
		if *u.CalculationMethod < 1 {
			fields["calculation_method"] = "calculation_method must be a positive integer"
		}
		m.CalculationMethod = *u.CalculationMethod
	}
	if u.AsrMethod != nil {
		if *u.AsrMethod < 1 {
			fields["asr_method"] = "asr_method must be a positive integer"
		}
		m.AsrMethod = *u.AsrMethod
	}
	if u.Image != nil {
		m.Image = *u.Image
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	if err := r.db.Save(m).Error; err != nil {
		return nil, &domain.StorageError{Op: "update masjid", Err: err}
	}
	return m, nil
}

// Delete removes the masjid and all of its prayer-time rows in one
// transaction. The FK carries ON DELETE CASCADE as well; the explicit delete
// keeps the cascade behavior independent of engine configuration.
func (r *MasjidRepository) Delete(id uint) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("masjid_id = ?", id).Delete(&models.PrayerTime{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Masjid{}, id).Error
	})
	if err != nil {
		return &domain.StorageError{Op: "delete masjid", Err: err}
	}
	return nil
}

func (r *MasjidRepository) GetByID(id uint) (*models.Masjid, error) {
	var m models.Masjid
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "masjid", ID: id}
		}
		return nil, &domain.StorageError{Op: "get masjid", Err: err}
	}
	return &m, nil
}

func (r *MasjidRepository) ListAll() ([]models.Masjid, error) {
	var out []models.Masjid
	if err := r.db.Find(&out).Error; err != nil {
		return nil, &domain.StorageError{Op: "list masjids", Err: err}
	}
	return out, nil
}

// Exists reports whether a masjid with the id is stored.
func (r *MasjidRepository) Exists(id uint) (bool, error) {
	var n int64
	if err := r.db.Model(&models.Masjid{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, &domain.StorageError{Op: "masjid exists", Err: err}
	}
	return n > 0, nil
}

// Nearby returns masjids within radiusMiles of (lat, lng), ordered ascending
// by great-circle distance. Candidates are prefiltered with a bounding box in
// SQL, then ranked with the exact distance in the application layer; masjids
// missing either coordinate never match.
func (r *MasjidRepository) Nearby(lat, lng, radiusMiles float64) ([]models.MasjidWithDistance, error) {
	if radiusMiles <= 0 {
		radiusMiles = domain.DefaultRadiusMiles
	}
	radiusKm := radiusMiles * domain.MilesToKm

	latDelta := geo.DegreeDelta(radiusKm)
	lngDelta := 360.0
	if cosLat := math.Cos(lat * math.Pi / 180); cosLat > 0.01 {
		lngDelta = latDelta / cosLat
	}

	q := r.db.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", lat-latDelta, lat+latDelta)
	if lngDelta < 180 {
		// The box wraps at ±180 so points just across the antimeridian
		// survive the prefilter.
		west, east := lng-lngDelta, lng+lngDelta
		switch {
		case west < -180:
			q = q.Where("(longitude >= ? OR longitude <= ?)", west+360, east)
		case east > 180:
			q = q.Where("(longitude >= ? OR longitude <= ?)", west, east-360)
		default:
			q = q.Where("longitude BETWEEN ? AND ?", west, east)
		}
	}
	var candidates []models.Masjid
	if err := q.Find(&candidates).Error; err != nil {
		return nil, &domain.StorageError{Op: "nearby masjids", Err: err}
	}

	out := make([]models.MasjidWithDistance, 0, len(candidates))
	for _, m := range candidates {
		d := geo.DistanceKm(lat, lng, *m.Latitude, *m.Longitude)
		if d < radiusKm {
			out = append(out, models.MasjidWithDistance{Masjid: m, DistanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func validateCoordinates(lat, lng *float64, fields map[string]string) {
	if lat != nil && !geo.ValidLatitude(*lat) {
		fields["latitude"] = "latitude must be between -90 and 90"
	}
	if lng != nil && !geo.ValidLongitude(*lng) {
		fields["longitude"] = "longitude must be between -180 and 180"
	}
}

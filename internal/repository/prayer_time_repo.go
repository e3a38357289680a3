package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
)

// PrayerTimeRepository persists dated prayer-time records per masjid.
type PrayerTimeRepository struct {
	db *gorm.DB
}

func NewPrayerTimeRepository(db *gorm.DB) *PrayerTimeRepository {
	return &PrayerTimeRepository{db: db}
}

// PrayerTimeUpdate carries supplied fields of a partial update.
type PrayerTimeUpdate struct {
	MasjidID       *uint
	Date           *models.Date
	PrayerData     *models.PrayerData
	Source         *string
	TimetableImage *string
}

// ListFilter is the general query contract: an exact date takes precedence
// over a [Start, End] range when both are present.
type ListFilter struct {
	MasjidID *uint
	Date     *models.Date
	Start    *models.Date
	End      *models.Date
}

// Create stores a new schedule row. The masjid must exist and the
// (masjid_id, date) pair must be free; callers that want replace-on-repeat
// semantics use Upsert instead.
func (r *PrayerTimeRepository) Create(pt *models.PrayerTime) error {
	fields := map[string]string{}
	if pt.MasjidID == 0 {
		fields["masjid_id"] = "masjid_id is required"
	}
	if pt.Date.IsZero() {
		fields["date"] = "date is required"
	}
	if pt.Source != "" && !domain.IsValidSource(pt.Source) {
		fields["source"] = fmt.Sprintf("source must be one of %v", domain.ValidSources)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	if err := r.requireMasjid(pt.MasjidID); err != nil {
		return err
	}
	if pt.Source == "" {
		pt.Source = domain.SourceManual
	}
	var n int64
	if err := r.db.Model(&models.PrayerTime{}).
		Where("masjid_id = ? AND date = ?", pt.MasjidID, pt.Date).
		Count(&n).Error; err != nil {
		return &domain.StorageError{Op: "create prayer_time", Err: err}
	}
	if n > 0 {
		return &domain.ConflictError{
			Resource: "prayer_time",
			Detail:   fmt.Sprintf("masjid %d already has a schedule for %s", pt.MasjidID, pt.Date),
		}
	}
	// The unique index still backstops a concurrent insert between the check
	// and the write.
	if err := r.db.Create(pt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.ConflictError{
				Resource: "prayer_time",
				Detail:   fmt.Sprintf("masjid %d already has a schedule for %s", pt.MasjidID, pt.Date),
			}
		}
		return &domain.StorageError{Op: "create prayer_time", Err: err}
	}
	return nil
}

// Upsert writes the schedule for (masjidID, date) as a single conditional
// insert: an existing row has its prayer_data/source/timetable_image replaced
// in place. Concurrent ingestions of the same date cannot double-insert
// because the conflict resolution happens inside the storage engine.
func (r *PrayerTimeRepository) Upsert(masjidID uint, date models.Date, data models.PrayerData, source, image string) (*models.PrayerTime, error) {
	if err := r.requireMasjid(masjidID); err != nil {
		return nil, err
	}
	if source == "" {
		source = domain.SourceManual
	}
	pt := models.PrayerTime{
		MasjidID:       masjidID,
		Date:           date,
		PrayerData:     data,
		Source:         source,
		TimetableImage: image,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "masjid_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"prayer_data", "source", "timetable_image", "updated_at"}),
	}).Create(&pt).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "upsert prayer_time", Err: err}
	}
	// Re-read so the caller gets the surviving row's id regardless of which
	// branch the engine took.
	var saved models.PrayerTime
	if err := r.db.Where("masjid_id = ? AND date = ?", masjidID, date).First(&saved).Error; err != nil {
		return nil, &domain.StorageError{Op: "upsert prayer_time", Err: err}
	}
	return &saved, nil
}

// Update applies only the supplied fields.
func (r *PrayerTimeRepository) Update(id uint, u PrayerTimeUpdate) (*models.PrayerTime, error) {
	pt, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u.MasjidID != nil {
		if err := r.requireMasjid(*u.MasjidID); err != nil {
			return nil, err
		}
		pt.MasjidID = *u.MasjidID
	}
	if u.Date != nil {
		if u.Date.IsZero() {
			return nil, domain.NewValidationError("date", "date must not be empty")
		}
		pt.Date = *u.Date
	}
	if u.PrayerData != nil {
		pt.PrayerData = *u.PrayerData
	}
	if u.Source != nil {
		if !domain.IsValidSource(*u.Source) {
			return nil, domain.NewValidationError("source", fmt.Sprintf("source must be one of %v", domain.ValidSources))
		}
		pt.Source = *u.Source
	}
	if u.TimetableImage != nil {
		pt.TimetableImage = *u.TimetableImage
	}
	pt.Masjid = nil
	if err := r.db.Save(pt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &domain.ConflictError{
				Resource: "prayer_time",
				Detail:   fmt.Sprintf("masjid %d already has a schedule for %s", pt.MasjidID, pt.Date),
			}
		}
		return nil, &domain.StorageError{Op: "update prayer_time", Err: err}
	}
	return pt, nil
}

func (r *PrayerTimeRepository) Delete(id uint) error {
	res := r.db.Delete(&models.PrayerTime{}, id)
	if res.Error != nil {
		return &domain.StorageError{Op: "delete prayer_time", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "prayer_time", ID: id}
	}
	return nil
}

func (r *PrayerTimeRepository) GetByID(id uint) (*models.PrayerTime, error) {
	var pt models.PrayerTime
	if err := r.db.Preload("Masjid").First(&pt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Resource: "prayer_time", ID: id}
		}
		return nil, &domain.StorageError{Op: "get prayer_time", Err: err}
	}
	return &pt, nil
}

// ListByMasjid returns the masjid's rows ordered by date ascending. With no
// explicit range it covers today through today+7 days inclusive.
func (r *PrayerTimeRepository) ListByMasjid(masjidID uint, start, end *models.Date) ([]models.PrayerTime, error) {
	if err := r.requireMasjid(masjidID); err != nil {
		return nil, err
	}
	s, e := defaultWindow(start, end)
	var out []models.PrayerTime
	err := r.db.Where("masjid_id = ?", masjidID).
		Where("date BETWEEN ? AND ?", s, e).
		Order("date ASC").
		Find(&out).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "list prayer_times", Err: err}
	}
	return out, nil
}

// List runs the general query. An exact date filter wins over a range.
func (r *PrayerTimeRepository) List(f ListFilter) ([]models.PrayerTime, error) {
	q := r.db.Preload("Masjid").Order("date ASC")
	if f.MasjidID != nil {
		q = q.Where("masjid_id = ?", *f.MasjidID)
	}
	switch {
	case f.Date != nil:
		q = q.Where("date = ?", *f.Date)
	case f.Start != nil && f.End != nil:
		q = q.Where("date BETWEEN ? AND ?", *f.Start, *f.End)
	}
	var out []models.PrayerTime
	if err := q.Find(&out).Error; err != nil {
		return nil, &domain.StorageError{Op: "list prayer_times", Err: err}
	}
	return out, nil
}

func (r *PrayerTimeRepository) requireMasjid(id uint) error {
	var n int64
	if err := r.db.Model(&models.Masjid{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return &domain.StorageError{Op: "masjid lookup", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: "masjid", ID: id}
	}
	return nil
}

func defaultWindow(start, end *models.Date) (models.Date, models.Date) {
	if start != nil && end != nil {
		return *start, *end
	}
	today := models.NewDate(time.Now())
	if start != nil {
		return *start, start.AddDays(domain.DefaultScheduleDays)
	}
	if end != nil {
		return today, *end
	}
	return today, today.AddDays(domain.DefaultScheduleDays)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
	"jazakallah/internal/repository"
	"jazakallah/pkg/cloudinary"
	"jazakallah/pkg/vision"
)

// ScanService runs the timetable ingestion path: store the photo, extract
// dated records through the vision API, and upsert one schedule row per day.
type ScanService struct {
	masjidRepo *repository.MasjidRepository
	ptRepo     *repository.PrayerTimeRepository
	cloud      cloudinary.Client
	extractor  vision.Extractor
	timeout    time.Duration
}

func NewScanService(
	masjidRepo *repository.MasjidRepository,
	ptRepo *repository.PrayerTimeRepository,
	cloud cloudinary.Client,
	extractor vision.Extractor,
	timeout time.Duration,
) *ScanService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ScanService{
		masjidRepo: masjidRepo,
		ptRepo:     ptRepo,
		cloud:      cloud,
		extractor:  extractor,
		timeout:    timeout,
	}
}

// ScanResult reports what one ingestion run saved and skipped.
type ScanResult struct {
	Masjid      *models.Masjid      `json:"masjid"`
	PrayerTimes []models.PrayerTime `json:"prayer_times"`
	ImageURL    string              `json:"image_url"`
	SavedDays   int                 `json:"saved_days"`
	SkippedDays int                 `json:"skipped_days"`
}

// ScanTimetable stores the image, calls the vision extractor under the
// configured timeout and saves each extracted day via upsert. A day without
// a parseable date or without any time fields is skipped and counted; a
// vision or storage failure aborts before anything is written for that call.
func (s *ScanService) ScanTimetable(ctx context.Context, masjidID uint, image []byte, mimeType string) (*ScanResult, error) {
	masjid, err := s.masjidRepo.GetByID(masjidID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, masjidID, image)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "image storage", Err: err}
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	tt, err := s.extractor.ExtractTimetable(extractCtx, image, mimeType)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "vision extraction", Err: err}
	}

	return s.saveDays(masjid, tt.Days, imageURL)
}

// ProcessTimetable stores the image and saves timetable data the caller
// already extracted. Input lacking any recognizable date is rejected.
func (s *ScanService) ProcessTimetable(ctx context.Context, masjidID uint, image []byte, extracted json.RawMessage) (*ScanResult, error) {
	masjid, err := s.masjidRepo.GetByID(masjidID)
	if err != nil {
		return nil, err
	}

	tt, err := vision.ParseExtracted(extracted)
	if err != nil {
		return nil, domain.NewValidationError("extracted_data", "no recognizable dated timetable entries")
	}

	imageURL, err := s.storeImage(ctx, masjidID, image)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "image storage", Err: err}
	}

	return s.saveDays(masjid, tt.Days, imageURL)
}

func (s *ScanService) storeImage(ctx context.Context, masjidID uint, image []byte) (string, error) {
	folder := fmt.Sprintf("JazakAllah/timetables/%d", masjidID)
	publicID := "scan_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return s.cloud.UploadImage(ctx, bytes.NewReader(image), folder, publicID)
}

func (s *ScanService) saveDays(masjid *models.Masjid, days []vision.TimetableDay, imageURL string) (*ScanResult, error) {
	res := &ScanResult{Masjid: masjid, ImageURL: imageURL}
	for _, day := range days {
		date, err := models.ParseDate(day.Date)
		if err != nil {
			log.Warn().Uint("masjid_id", masjid.ID).Str("date", day.Date).
				Msg("scan: skipping entry with unparseable date")
			res.SkippedDays++
			continue
		}
		data := buildPrayerData(day)
		if data.IsEmpty() {
			log.Warn().Uint("masjid_id", masjid.ID).Str("date", day.Date).
				Msg("scan: skipping entry with no time fields")
			res.SkippedDays++
			continue
		}
		saved, err := s.ptRepo.Upsert(masjid.ID, date, data, domain.SourceScan, imageURL)
		if err != nil {
			var storageErr *domain.StorageError
			if errors.As(err, &storageErr) {
				return nil, err
			}
			log.Warn().Err(err).Uint("masjid_id", masjid.ID).Str("date", day.Date).
				Msg("scan: skipping entry")
			res.SkippedDays++
			continue
		}
		res.PrayerTimes = append(res.PrayerTimes, *saved)
		res.SavedDays++
	}
	log.Info().Uint("masjid_id", masjid.ID).Int("saved", res.SavedDays).
		Int("skipped", res.SkippedDays).Msg("scan: timetable ingested")
	return res, nil
}

// buildPrayerData maps extracted fields into the stored schedule shape.
// Missing values stay absent; zohar is stored under dhuhr; a bare maghrib
// time is its beginning.
func buildPrayerData(day vision.TimetableDay) models.PrayerData {
	entry := func(beginning, jamaat *string) *models.PrayerEntry {
		if beginning == nil && jamaat == nil {
			return nil
		}
		return &models.PrayerEntry{Beginning: beginning, Jamaat: jamaat}
	}
	return models.PrayerData{
		Fajr:    entry(day.FajrBeginning, day.FajrJamaat),
		Sunrise: day.Sunrise,
		Dhuhr:   entry(day.ZoharBeginning, day.ZoharJamaat),
		Asr:     entry(day.AsrBeginning, day.AsrJamaat),
		Maghrib: entry(day.Maghrib, nil),
		Isha:    entry(day.IshaBeginning, day.IshaJamaat),
		Sehri:   day.Sehri,
		Iftari:  day.Iftari,
	}
}

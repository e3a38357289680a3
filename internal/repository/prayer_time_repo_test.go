package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
)

func schedule(sunrise string) models.PrayerData {
	return models.PrayerData{Sunrise: &sunrise}
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestPrayerTimeCreate(t *testing.T) {
	t.Run("requires an existing masjid", func(t *testing.T) {
		repo := NewPrayerTimeRepository(newTestDB(t))
		err := repo.Create(&models.PrayerTime{
			MasjidID:   777,
			Date:       date(t, "2025-03-01"),
			PrayerData: schedule("6:40 AM"),
		})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("defaults the source to manual", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		pt := &models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:40 AM")}
		require.NoError(t, repo.Create(pt))
		assert.Equal(t, domain.SourceManual, pt.Source)
	})

	t.Run("rejects an unknown source", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		err := repo.Create(&models.PrayerTime{
			MasjidID: m.ID, Date: date(t, "2025-03-01"),
			PrayerData: schedule("6:40 AM"), Source: "guesswork",
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "source")
	})

	t.Run("conflicts on a duplicate masjid and date", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		first := &models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:40 AM")}
		require.NoError(t, repo.Create(first))

		err := repo.Create(&models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:41 AM")})
		assert.True(t, domain.IsConflict(err))

		// a different date is fine
		require.NoError(t, repo.Create(&models.PrayerTime{
			MasjidID: m.ID, Date: date(t, "2025-03-02"), PrayerData: schedule("6:39 AM"),
		}))
	})
}

func TestPrayerTimeUpsert(t *testing.T) {
	t.Run("creates when absent, replaces in place when present", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		d := date(t, "2025-03-01")

		first, err := repo.Upsert(m.ID, d, schedule("6:40 AM"), domain.SourceScan, "scans/first.jpg")
		require.NoError(t, err)

		second, err := repo.Upsert(m.ID, d, schedule("6:42 AM"), domain.SourceScan, "scans/second.jpg")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		require.NotNil(t, second.PrayerData.Sunrise)
		assert.Equal(t, "6:42 AM", *second.PrayerData.Sunrise)
		assert.Equal(t, "scans/second.jpg", second.TimetableImage)

		var n int64
		require.NoError(t, db.Model(&models.PrayerTime{}).Where("masjid_id = ?", m.ID).Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("requires an existing masjid", func(t *testing.T) {
		repo := NewPrayerTimeRepository(newTestDB(t))
		_, err := repo.Upsert(123, date(t, "2025-03-01"), schedule("6:40 AM"), domain.SourceScan, "")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestPrayerTimeUpdate(t *testing.T) {
	t.Run("applies only supplied fields", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		pt := &models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:40 AM")}
		require.NoError(t, repo.Create(pt))

		src := domain.SourceAPI
		updated, err := repo.Update(pt.ID, PrayerTimeUpdate{Source: &src})
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAPI, updated.Source)
		assert.Equal(t, "2025-03-01", updated.Date.String())
	})

	t.Run("moving onto an occupied date conflicts", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		require.NoError(t, repo.Create(&models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:40 AM")}))
		second := &models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-02"), PrayerData: schedule("6:39 AM")}
		require.NoError(t, repo.Create(second))

		d := date(t, "2025-03-01")
		_, err := repo.Update(second.ID, PrayerTimeUpdate{Date: &d})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("not found", func(t *testing.T) {
		repo := NewPrayerTimeRepository(newTestDB(t))
		_, err := repo.Update(404, PrayerTimeUpdate{})
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestPrayerTimeGetAndDelete(t *testing.T) {
	db := newTestDB(t)
	m := seedMasjid(t, db, "M", nil, nil)
	repo := NewPrayerTimeRepository(db)
	pt := &models.PrayerTime{MasjidID: m.ID, Date: date(t, "2025-03-01"), PrayerData: schedule("6:40 AM")}
	require.NoError(t, repo.Create(pt))

	got, err := repo.GetByID(pt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Masjid)
	assert.Equal(t, "M", got.Masjid.Name)

	require.NoError(t, repo.Delete(pt.ID))
	_, err = repo.GetByID(pt.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(repo.Delete(pt.ID)))
}

func TestPrayerTimeListByMasjid(t *testing.T) {
	t.Run("defaults to today through today plus seven days, sorted", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)

		today := models.NewDate(time.Now())
		for _, offset := range []int{-1, 8, 7, 3, 0} {
			_, err := repo.Upsert(m.ID, today.AddDays(offset), schedule("6:40 AM"), domain.SourceManual, "")
			require.NoError(t, err)
		}

		rows, err := repo.ListByMasjid(m.ID, nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 3) // offsets 0, 3, 7; -1 and 8 fall outside
		assert.Equal(t, today.String(), rows[0].Date.String())
		assert.Equal(t, today.AddDays(3).String(), rows[1].Date.String())
		assert.Equal(t, today.AddDays(7).String(), rows[2].Date.String())
	})

	t.Run("explicit inclusive range", func(t *testing.T) {
		db := newTestDB(t)
		m := seedMasjid(t, db, "M", nil, nil)
		repo := NewPrayerTimeRepository(db)
		for _, day := range []string{"2025-03-01", "2025-03-05", "2025-03-10"} {
			_, err := repo.Upsert(m.ID, date(t, day), schedule("6:40 AM"), domain.SourceManual, "")
			require.NoError(t, err)
		}
		start, end := date(t, "2025-03-01"), date(t, "2025-03-05")
		rows, err := repo.ListByMasjid(m.ID, &start, &end)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "2025-03-01", rows[0].Date.String())
		assert.Equal(t, "2025-03-05", rows[1].Date.String())
	})

	t.Run("unknown masjid", func(t *testing.T) {
		repo := NewPrayerTimeRepository(newTestDB(t))
		_, err := repo.ListByMasjid(55, nil, nil)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestPrayerTimeList(t *testing.T) {
	db := newTestDB(t)
	m1 := seedMasjid(t, db, "One", nil, nil)
	m2 := seedMasjid(t, db, "Two", nil, nil)
	repo := NewPrayerTimeRepository(db)
	for _, day := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		_, err := repo.Upsert(m1.ID, date(t, day), schedule("6:40 AM"), domain.SourceManual, "")
		require.NoError(t, err)
	}
	_, err := repo.Upsert(m2.ID, date(t, "2025-03-02"), schedule("6:41 AM"), domain.SourceManual, "")
	require.NoError(t, err)

	t.Run("filters by masjid", func(t *testing.T) {
		rows, err := repo.List(ListFilter{MasjidID: &m1.ID})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("exact date takes precedence over a range", func(t *testing.T) {
		d := date(t, "2025-03-02")
		start, end := date(t, "2025-03-01"), date(t, "2025-03-03")
		rows, err := repo.List(ListFilter{MasjidID: &m1.ID, Date: &d, Start: &start, End: &end})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "2025-03-02", rows[0].Date.String())
	})

	t.Run("no filter returns everything with masjid preloaded", func(t *testing.T) {
		rows, err := repo.List(ListFilter{})
		require.NoError(t, err)
		assert.Len(t, rows, 4)
		require.NotNil(t, rows[0].Masjid)
	})
}

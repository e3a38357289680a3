package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jazakallah/internal/cache"
	"jazakallah/internal/models"
	"jazakallah/internal/repository"
)

// WidgetFeed is the flat shape the home-screen widget caches locally:
// masjid name plus the five daily prayer times. Jamaat times are preferred
// over beginning times; a prayer the schedule does not carry stays empty.
type WidgetFeed struct {
	MasjidName string `json:"masjid_name"`
	Date       string `json:"date"`
	Fajr       string `json:"fajr"`
	Dhuhr      string `json:"dhuhr"`
	Asr        string `json:"asr"`
	Maghrib    string `json:"maghrib"`
	Isha       string `json:"isha"`
}

type WidgetHandler struct {
	masjidRepo *repository.MasjidRepository
	ptRepo     *repository.PrayerTimeRepository
	cache      *cache.Cache
}

func NewWidgetHandler(masjidRepo *repository.MasjidRepository, ptRepo *repository.PrayerTimeRepository, c *cache.Cache) *WidgetHandler {
	return &WidgetHandler{masjidRepo: masjidRepo, ptRepo: ptRepo, cache: c}
}

// Feed serves today's schedule for one masjid in the widget's shape. Cached
// until local midnight when Redis is configured.
func (h *WidgetHandler) Feed(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	masjid, err := h.masjidRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	loc := time.UTC
	if l, err := time.LoadLocation(masjid.Timezone); err == nil {
		loc = l
	}
	now := time.Now().In(loc)
	today := models.NewDate(now)

	key := fmt.Sprintf("widget:%d:%s", id, today)
	if cached, hit := h.cache.Get(c.Request.Context(), key); hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	rows, err := h.ptRepo.List(repository.ListFilter{MasjidID: &id, Date: &today})
	if err != nil {
		respondError(c, err)
		return
	}
	feed := WidgetFeed{MasjidName: masjid.Name, Date: today.String()}
	if len(rows) > 0 {
		fillWidgetTimes(&feed, rows[0].PrayerData)
	}

	body, err := json.Marshal(gin.H{"data": feed})
	if err != nil {
		respondError(c, err)
		return
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	h.cache.Set(c.Request.Context(), key, string(body), time.Until(midnight))
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func fillWidgetTimes(feed *WidgetFeed, data models.PrayerData) {
	pick := func(e *models.PrayerEntry) string {
		if e == nil {
			return ""
		}
		if e.Jamaat != nil {
			return *e.Jamaat
		}
		if e.Beginning != nil {
			return *e.Beginning
		}
		return ""
	}
	feed.Fajr = pick(data.Fajr)
	feed.Dhuhr = pick(data.Dhuhr)
	feed.Asr = pick(data.Asr)
	feed.Maghrib = pick(data.Maghrib)
	feed.Isha = pick(data.Isha)
}

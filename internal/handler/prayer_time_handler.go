package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
	"jazakallah/internal/repository"
)

type PrayerTimeHandler struct {
	ptRepo     *repository.PrayerTimeRepository
	masjidRepo *repository.MasjidRepository
}

func NewPrayerTimeHandler(ptRepo *repository.PrayerTimeRepository, masjidRepo *repository.MasjidRepository) *PrayerTimeHandler {
	return &PrayerTimeHandler{ptRepo: ptRepo, masjidRepo: masjidRepo}
}

// List supports masjid_id, an exact date, or a start_date/end_date range;
// the exact date wins when both are given.
func (h *PrayerTimeHandler) List(c *gin.Context) {
	var f repository.ListFilter
	fields := map[string]string{}
	if raw := c.Query("masjid_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fields["masjid_id"] = "masjid_id must be numeric"
		} else {
			v := uint(id)
			f.MasjidID = &v
		}
	}
	f.Date = queryDate(c, "date", fields)
	f.Start = queryDate(c, "start_date", fields)
	f.End = queryDate(c, "end_date", fields)
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}
	rows, err := h.ptRepo.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type prayerTimeCreateRequest struct {
	MasjidID       uint               `json:"masjid_id" binding:"required"`
	Date           models.Date        `json:"date" binding:"required"`
	PrayerData     *models.PrayerData `json:"prayer_data" binding:"required"`
	Source         string             `json:"source"`
	TimetableImage string             `json:"timetable_image"`
}

// Create stores a manual schedule row; a duplicate (masjid_id, date) is a
// conflict, not a replace.
func (h *PrayerTimeHandler) Create(c *gin.Context) {
	var req prayerTimeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	pt := models.PrayerTime{
		MasjidID:       req.MasjidID,
		Date:           req.Date,
		PrayerData:     *req.PrayerData,
		Source:         req.Source,
		TimetableImage: req.TimetableImage,
	}
	if err := h.ptRepo.Create(&pt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": pt})
}

func (h *PrayerTimeHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pt, err := h.ptRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pt})
}

type prayerTimeUpdateRequest struct {
	MasjidID       *uint              `json:"masjid_id"`
	Date           *models.Date       `json:"date"`
	PrayerData     *models.PrayerData `json:"prayer_data"`
	Source         *string            `json:"source"`
	TimetableImage *string            `json:"timetable_image"`
}

func (h *PrayerTimeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req prayerTimeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	pt, err := h.ptRepo.Update(id, repository.PrayerTimeUpdate{
		MasjidID:       req.MasjidID,
		Date:           req.Date,
		PrayerData:     req.PrayerData,
		Source:         req.Source,
		TimetableImage: req.TimetableImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pt})
}

func (h *PrayerTimeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ptRepo.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "prayer time deleted successfully"})
}

// ByMasjid returns a masjid together with its schedule rows, covering today
// through today+7 days unless start_date/end_date say otherwise.
func (h *PrayerTimeHandler) ByMasjid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	fields := map[string]string{}
	start := queryDate(c, "start_date", fields)
	end := queryDate(c, "end_date", fields)
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}
	masjid, err := h.masjidRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.ptRepo.ListByMasjid(id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"masjid":       masjid,
			"prayer_times": rows,
		},
	})
}

// queryDate parses an optional YYYY-MM-DD query parameter, recording a field
// error when malformed.
func queryDate(c *gin.Context, name string, fields map[string]string) *models.Date {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		fields[name] = name + " must be a date formatted " + domain.DateLayout
		return nil
	}
	return &d
}

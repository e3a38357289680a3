package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jazakallah/internal/domain"
	"jazakallah/internal/models"
	"jazakallah/internal/repository"
)

type MasjidHandler struct {
	masjidRepo *repository.MasjidRepository
}

func NewMasjidHandler(masjidRepo *repository.MasjidRepository) *MasjidHandler {
	return &MasjidHandler{masjidRepo: masjidRepo}
}

// List returns every masjid.
func (h *MasjidHandler) List(c *gin.Context) {
	masjids, err := h.masjidRepo.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": masjids})
}

type masjidCreateRequest struct {
	Name              string          `json:"name" binding:"required,max=255"`
	Address           string          `json:"address" binding:"required"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	ContactInfo       json.RawMessage `json:"contact_info"`
	Timezone          string          `json:"timezone"`
	CalculationMethod *int            `json:"calculation_method"`
	AsrMethod         *int            `json:"asr_method"`
	Image             string          `json:"image"`
}

// Create stores a new masjid; omitted methods and contact info get defaults.
// Methods are 1-based, so an explicit zero is rejected rather than silently
// replaced by the default.
func (h *MasjidHandler) Create(c *gin.Context) {
	var req masjidCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	fields := map[string]string{}
	if req.CalculationMethod != nil && *req.CalculationMethod < 1 {
		fields["calculation_method"] = "calculation_method must be a positive integer"
	}
	if req.AsrMethod != nil && *req.AsrMethod < 1 {
		fields["asr_method"] = "asr_method must be a positive integer"
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}
	m := models.Masjid{
		Name:        req.Name,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ContactInfo: models.NormalizeContactInfo(req.ContactInfo),
		Timezone:    req.Timezone,
		Image:       req.Image,
	}
	if req.CalculationMethod != nil {
		m.CalculationMethod = *req.CalculationMethod
	}
	if req.AsrMethod != nil {
		m.AsrMethod = *req.AsrMethod
	}
	if err := h.masjidRepo.Create(&m); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": m})
}

// Get returns one masjid by id.
func (h *MasjidHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.masjidRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

type masjidUpdateRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	// Raw messages so an explicit null (clear the coordinate) can be told
	// apart from an absent field (leave unchanged).
	Latitude          json.RawMessage `json:"latitude"`
	Longitude         json.RawMessage `json:"longitude"`
	ContactInfo       json.RawMessage `json:"contact_info"`
	Timezone          *string         `json:"timezone"`
	CalculationMethod *int            `json:"calculation_method"`
	AsrMethod         *int            `json:"asr_method"`
	Image             *string         `json:"image"`
}

// coordField parses an optional coordinate. null clears the stored value, a
// number replaces it, absence leaves it unchanged.
func coordField(raw json.RawMessage, name string, fields map[string]string) (val *float64, clear bool) {
	if len(raw) == 0 {
		return nil, false
	}
	if string(raw) == "null" {
		return nil, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		fields[name] = name + " must be a number or null"
		return nil, false
	}
	return &v, false
}

// Update applies only the supplied fields.
func (h *MasjidHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req masjidUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	fields := map[string]string{}
	lat, clearLat := coordField(req.Latitude, "latitude", fields)
	lng, clearLng := coordField(req.Longitude, "longitude", fields)
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}
	u := repository.MasjidUpdate{
		Name:              req.Name,
		Address:           req.Address,
		Latitude:          lat,
		Longitude:         lng,
		ClearLatitude:     clearLat,
		ClearLongitude:    clearLng,
		Timezone:          req.Timezone,
		CalculationMethod: req.CalculationMethod,
		AsrMethod:         req.AsrMethod,
		Image:             req.Image,
	}
	if len(req.ContactInfo) > 0 {
		info := models.NormalizeContactInfo(req.ContactInfo)
		u.ContactInfo = &info
	}
	m, err := h.masjidRepo.Update(id, u)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

// Delete removes the masjid and cascades to its prayer times.
func (h *MasjidHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.masjidRepo.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "masjid deleted successfully"})
}

// Nearby returns masjids within radius miles of (lat, lng), closest first.
func (h *MasjidHandler) Nearby(c *gin.Context) {
	fields := map[string]string{}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		fields["lat"] = "lat is required and must be numeric"
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		fields["lng"] = "lng is required and must be numeric"
	}
	radius := domain.DefaultRadiusMiles
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius < domain.MinRadiusMiles || radius > domain.MaxRadiusMiles {
			fields["radius"] = "radius must be between 0.1 and 100 miles"
		}
	}
	if len(fields) == 0 {
		if !validLat(lat) {
			fields["lat"] = "lat must be between -90 and 90"
		}
		if !validLng(lng) {
			fields["lng"] = "lng must be between -180 and 180"
		}
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}

	masjids, err := h.masjidRepo.Nearby(lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": masjids,
		"meta": gin.H{
			"lat":          lat,
			"lng":          lng,
			"radius_miles": radius,
			"count":        len(masjids),
		},
	})
}

func validLat(lat float64) bool { return lat >= -90 && lat <= 90 }
func validLng(lng float64) bool { return lng >= -180 && lng <= 180 }

// pathID parses the :id segment; replies 422 itself when malformed.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"id": "invalid id"}})
		return 0, false
	}
	return uint(id), true
}

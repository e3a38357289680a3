package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jazakallah/internal/service"
)

// MaxTimetableImageBytes caps uploaded timetable photos at 5MB.
const MaxTimetableImageBytes = 5 << 20

type ScanHandler struct {
	scanSvc *service.ScanService
}

func NewScanHandler(scanSvc *service.ScanService) *ScanHandler {
	return &ScanHandler{scanSvc: scanSvc}
}

// Scan ingests a photographed timetable: multipart form with masjid_id and
// an image file. Extraction runs through the vision API; each extracted day
// is upserted, so rescanning the same month never duplicates rows.
func (h *ScanHandler) Scan(c *gin.Context) {
	masjidID, image, mimeType, ok := h.bindScanForm(c)
	if !ok {
		return
	}
	res, err := h.scanSvc.ScanTimetable(c.Request.Context(), masjidID, image, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d days of prayer times extracted and saved", res.SavedDays),
		"data":    res,
	})
}

// Process ingests timetable data the client already extracted, alongside the
// source image.
func (h *ScanHandler) Process(c *gin.Context) {
	masjidID, image, _, ok := h.bindScanForm(c)
	if !ok {
		return
	}
	extracted := c.PostForm("extracted_data")
	if extracted == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"extracted_data": "this field is required"}})
		return
	}
	res, err := h.scanSvc.ProcessTimetable(c.Request.Context(), masjidID, image, json.RawMessage(extracted))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d days of prayer times saved", res.SavedDays),
		"data":    res,
	})
}

func (h *ScanHandler) bindScanForm(c *gin.Context) (masjidID uint, image []byte, mimeType string, ok bool) {
	fields := map[string]string{}
	id, err := strconv.ParseUint(c.PostForm("masjid_id"), 10, 64)
	if err != nil || id == 0 {
		fields["masjid_id"] = "masjid_id is required and must be numeric"
	}
	file, err := c.FormFile("image")
	if err != nil {
		fields["image"] = "image file is required"
	} else if file.Size > MaxTimetableImageBytes {
		fields["image"] = "image must be 5MB or smaller"
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return 0, nil, "", false
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"image": "could not read file"}})
		return 0, nil, "", false
	}
	defer f.Close()
	image, err = io.ReadAll(io.LimitReader(f, MaxTimetableImageBytes+1))
	if err != nil || len(image) > MaxTimetableImageBytes {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"image": "could not read file"}})
		return 0, nil, "", false
	}
	return uint(id), image, file.Header.Get("Content-Type"), true
}

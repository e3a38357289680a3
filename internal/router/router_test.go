package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jazakallah/config"
	"jazakallah/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Masjid{}, &models.PrayerTime{}))

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Vision.Timeout = 5 * time.Second
	// scan endpoints are exercised at the service level; no external clients here
	return Setup(cfg, db, nil, nil, nil), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestMasjidEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("create applies defaults", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{
			"name":    "East London Masjid",
			"address": "82-92 Whitechapel Road",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		assert.EqualValues(t, 1, data["calculation_method"])
		assert.EqualValues(t, 1, data["asr_method"])
		assert.Equal(t, map[string]any{}, data["contact_info"])
		assert.Equal(t, "UTC", data["timezone"])
	})

	t.Run("create without required fields returns field errors", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{"latitude": 51.51})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := decode(t, w)["errors"].(map[string]any)
		assert.Contains(t, errs, "name")
		assert.Contains(t, errs, "address")
	})

	t.Run("contact info arriving as a string is wrapped", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{
			"name":         "Corner Masjid",
			"address":      "5 Side Street",
			"contact_info": "ask for Imran",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		info := data["contact_info"].(map[string]any)
		assert.Equal(t, "ask for Imran", info["raw"])
	})

	t.Run("get unknown id is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update only supplied fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/masjids/1", gin.H{"timezone": "Europe/London"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "Europe/London", data["timezone"])
		assert.Equal(t, "East London Masjid", data["name"])
	})

	t.Run("update with out-of-range coordinate is 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/masjids/1", gin.H{"latitude": 95.0, "longitude": 0.0})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := decode(t, w)["errors"].(map[string]any)
		assert.Contains(t, errs, "latitude")
	})

	t.Run("explicit zero calculation method is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{
			"name":               "Zero Masjid",
			"address":            "1 Zero Street",
			"calculation_method": 0,
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := decode(t, w)["errors"].(map[string]any)
		assert.Contains(t, errs, "calculation_method")
	})

	t.Run("null latitude clears the stored coordinate", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/masjids/1", gin.H{"latitude": 51.51, "longitude": -0.13})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, r, http.MethodPut, "/api/v1/masjids/1", gin.H{"latitude": nil})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		assert.Nil(t, data["latitude"])
		assert.Equal(t, -0.13, data["longitude"])
	})
}

func TestNearbyEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	mk := func(name string, lat, lng any) {
		body := gin.H{"name": name, "address": "x", "latitude": lat, "longitude": lng}
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	mk("A", 40.0, -73.0)
	mk("B", 40.5, nil) // longitude missing: excluded from geo queries

	t.Run("returns only coordinate-complete masjids with meta", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/nearby?lat=40.0&lng=-73.0&radius=50", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		out := decode(t, w)
		data := out["data"].([]any)
		require.Len(t, data, 1)
		row := data[0].(map[string]any)
		assert.Equal(t, "A", row["name"])
		assert.InDelta(t, 0, row["distance_km"].(float64), 0.001)

		meta := out["meta"].(map[string]any)
		assert.EqualValues(t, 1, meta["count"])
		assert.EqualValues(t, 50, meta["radius_miles"])
	})

	t.Run("missing lat/lng is 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/nearby", nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := decode(t, w)["errors"].(map[string]any)
		assert.Contains(t, errs, "lat")
		assert.Contains(t, errs, "lng")
	})

	t.Run("radius outside bounds is 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/nearby?lat=40&lng=-73&radius=500", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestPrayerTimeEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{"name": "M", "address": "A"})
	require.Equal(t, http.StatusCreated, w.Code)

	prayerData := gin.H{
		"fajr":    gin.H{"beginning": "5:08 AM", "jamaat": "5:45 AM"},
		"maghrib": gin.H{"beginning": "6:12 PM"},
	}

	t.Run("create then duplicate conflicts", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/prayer-times", gin.H{
			"masjid_id": 1, "date": "2025-03-01", "prayer_data": prayerData,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = doJSON(t, r, http.MethodPost, "/api/v1/prayer-times", gin.H{
			"masjid_id": 1, "date": "2025-03-01", "prayer_data": prayerData,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("create for unknown masjid is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/prayer-times", gin.H{
			"masjid_id": 55, "date": "2025-03-01", "prayer_data": prayerData,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list with exact date", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/prayer-times?masjid_id=1&date=2025-03-01", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]any)
		require.Len(t, data, 1)
	})

	t.Run("malformed date is 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/prayer-times?date=01-03-2025", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("by-masjid wraps masjid and rows", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/1/prayer-times?start_date=2025-03-01&end_date=2025-03-07", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "M", data["masjid"].(map[string]any)["name"])
		assert.Len(t, data["prayer_times"].([]any), 1)
	})

	t.Run("delete then get is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/v1/prayer-times/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = doJSON(t, r, http.MethodGet, "/api/v1/prayer-times/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWidgetEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{"name": "Widget Masjid", "address": "A"})
	require.Equal(t, http.StatusCreated, w.Code)

	today := models.NewDate(time.Now()).String()
	w = doJSON(t, r, http.MethodPost, "/api/v1/prayer-times", gin.H{
		"masjid_id": 1,
		"date":      today,
		"prayer_data": gin.H{
			"fajr":    gin.H{"beginning": "5:08 AM", "jamaat": "5:45 AM"},
			"dhuhr":   gin.H{"jamaat": "1:30 PM"},
			"maghrib": gin.H{"beginning": "6:12 PM"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("serves today's five labels, jamaat preferred", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/masjids/1/widget", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "Widget Masjid", data["masjid_name"])
		assert.Equal(t, today, data["date"])
		assert.Equal(t, "5:45 AM", data["fajr"])
		assert.Equal(t, "1:30 PM", data["dhuhr"])
		assert.Equal(t, "6:12 PM", data["maghrib"])
		assert.Equal(t, "", data["asr"])
	})

	t.Run("masjid without a schedule still answers with empty labels", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/masjids", gin.H{"name": "Quiet Masjid", "address": "B"})
		require.Equal(t, http.StatusCreated, w.Code)
		id := decode(t, w)["data"].(map[string]any)["id"].(float64)

		w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/masjids/%.0f/widget", id), nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "Quiet Masjid", data["masjid_name"])
		assert.Equal(t, "", data["fajr"])
	})
}

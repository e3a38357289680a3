package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jazakallah/config"
	"jazakallah/internal/cache"
	"jazakallah/internal/handler"
	"jazakallah/internal/middleware"
	"jazakallah/internal/repository"
	"jazakallah/internal/service"
	"jazakallah/pkg/cloudinary"
	"jazakallah/pkg/vision"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, extractor vision.Extractor, c *cache.Cache) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	masjidRepo := repository.NewMasjidRepository(db)
	ptRepo := repository.NewPrayerTimeRepository(db)

	scanSvc := service.NewScanService(masjidRepo, ptRepo, cloud, extractor, cfg.Vision.Timeout)

	masjidHandler := handler.NewMasjidHandler(masjidRepo)
	ptHandler := handler.NewPrayerTimeHandler(ptRepo, masjidRepo)
	scanHandler := handler.NewScanHandler(scanSvc)
	widgetHandler := handler.NewWidgetHandler(masjidRepo, ptRepo, c)

	api := r.Group("/api/v1")
	{
		masjids := api.Group("/masjids")
		{
			masjids.GET("", masjidHandler.List)
			masjids.POST("", masjidHandler.Create)
			masjids.GET("/nearby", masjidHandler.Nearby)
			masjids.GET("/:id", masjidHandler.Get)
			masjids.PUT("/:id", masjidHandler.Update)
			masjids.DELETE("/:id", masjidHandler.Delete)
			masjids.GET("/:id/prayer-times", ptHandler.ByMasjid)
			masjids.GET("/:id/widget", widgetHandler.Feed)
		}

		prayerTimes := api.Group("/prayer-times")
		{
			prayerTimes.GET("", ptHandler.List)
			prayerTimes.POST("", ptHandler.Create)
			prayerTimes.POST("/scan", scanHandler.Scan)
			prayerTimes.POST("/process", scanHandler.Process)
			prayerTimes.GET("/:id", ptHandler.Get)
			prayerTimes.PUT("/:id", ptHandler.Update)
			prayerTimes.DELETE("/:id", ptHandler.Delete)
		}
	}
	return r
}

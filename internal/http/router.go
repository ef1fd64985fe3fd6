package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rentora/backend/internal/config"
	"github.com/rentora/backend/internal/db"
	"github.com/rentora/backend/internal/geo"
	"github.com/rentora/backend/internal/http/handlers"
	"github.com/rentora/backend/internal/http/middleware"
	"github.com/rentora/backend/internal/matching"

	_ "github.com/rentora/backend/docs"
)

func Router(cfg config.Config, store *db.Store, matcher *matching.Service, geocoder geo.Geocoder, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:          store,
		Matcher:        matcher,
		Geocoder:       geocoder,
		Validator:      validator.New(),
		Logger:         logger,
		AdminKey:       cfg.AdminKey,
		CountryDefault: cfg.CountryDefault,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/properties", h.PropertiesList)
		api.GET("/properties/:id", h.PropertyDetails)
		api.GET("/properties/:id/matches", h.PropertyMatches)
		api.GET("/providers", h.ProvidersList)
		api.GET("/issues", h.IssuesList)
		api.POST("/issues", h.IssueCreate)
		api.GET("/issues/:id", h.IssueDetails)
		api.GET("/issues/:id/matches", h.IssueMatches)
		api.GET("/issues/:id/sla", h.IssueSLA)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/issues/:id/auto-assign", h.IssueAutoAssign)
		admin.POST("/issues/:id/respond", h.IssueRespond)
		admin.POST("/issues/:id/resolve", h.IssueResolve)
		admin.POST("/issues/:id/escalate", h.IssueEscalate)
		admin.POST("/escalations/run", h.EscalationsRun)
		admin.POST("/providers/:id/performance/refresh", h.ProviderPerformanceRefresh)
		admin.POST("/properties/regeocode", h.Regeocode)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/middleware"
	"github.com/noah-isme/tutor-billing/internal/service"
	"github.com/noah-isme/tutor-billing/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-billing/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-billing/pkg/middleware/requestid"
)

// RouterConfig controls router-wide behaviour.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool
}

// Handlers groups every endpoint handler. Nil handlers leave their routes
// unregistered.
type Handlers struct {
	Auth      *AuthHandler
	Roster    *RosterHandler
	Mirror    *MirrorHandler
	Schedules *ScheduleHandler
	Billing   *BillingHandler
	Sync      *SyncHandler
	Data      *DataHandler
	Metrics   *MetricsHandler
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg RouterConfig, h Handlers, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, prefix+"/sync/ws", "/docs/*any"))

	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		if cfg.EnableMetrics {
			r.GET("/metrics", h.Metrics.Prometheus)
		}
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.GET("/login", h.Auth.Login)
		auth.GET("/callback", h.Auth.Callback)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/status", h.Auth.Status)
	}

	if h.Roster != nil {
		api.GET("/bundle", h.Roster.Bundle)
		api.PUT("/students", h.Roster.ReplaceStudents)
		api.PUT("/students/archived", h.Roster.ReplaceArchivedStudents)
		api.POST("/students/:id/archive", h.Roster.Archive)
		api.POST("/students/:id/restore", h.Roster.Restore)
		api.PUT("/parents", h.Roster.ReplaceParents)
	}

	if h.Mirror != nil {
		api.GET("/mirror", h.Mirror.Keys)
		api.DELETE("/mirror", h.Mirror.Clear)
		api.GET("/mirror/:key", h.Mirror.Get)
		api.PUT("/mirror/:key", h.Mirror.Set)
	}

	if h.Schedules != nil {
		schedules := api.Group("/schedules")
		schedules.POST("/days-off", h.Schedules.DaysOff)
		schedules.GET("/:month", h.Schedules.Month)
		schedules.POST("/:month/generate", h.Schedules.Generate)
		schedules.POST("/:month/students/:studentId/sessions/cancel", h.Schedules.Cancel)
		schedules.POST("/:month/students/:studentId/sessions/uncancel", h.Schedules.Uncancel)
		schedules.POST("/:month/students/:studentId/sessions/time", h.Schedules.TimeModified)
	}

	if h.Billing != nil {
		billing := api.Group("/billing")
		billing.GET("/review", h.Billing.RangeReview)
		billing.GET("/:month/review", h.Billing.Review)
		billing.GET("/:month/students/:id", h.Billing.StudentCharge)
		billing.GET("/:month/parents/:id", h.Billing.ParentBill)
		billing.POST("/:month/parents/:id/export", h.Billing.ExportBill)
		api.GET("/exports/download", h.Billing.Download)
	}

	if h.Sync != nil {
		sync := api.Group("/sync")
		sync.GET("/status", h.Sync.Status)
		sync.GET("/ws", h.Sync.Stream)
		sync.GET("/conflicts", h.Sync.Conflicts)
		sync.POST("/conflicts/:id", h.Sync.Answer)
		sync.POST("/save", h.Sync.Save)
		sync.POST("/reload", h.Sync.Reload)
	}

	if h.Data != nil {
		api.POST("/import/bundle", h.Data.ImportBundle)
		api.POST("/import/legacy", h.Data.ImportLegacy)
		api.GET("/export/bundle", h.Data.ExportBundle)
		api.POST("/backups", h.Data.Backup)
		api.GET("/backups/last", h.Data.LastBackup)
	}

	return r
}

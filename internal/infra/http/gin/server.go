package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"buckler/internal/infra/config"
	"buckler/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	ListMine(c *gin.Context)
	ListProvider(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Reconcile(c *gin.Context)
}

type CatalogHTTP interface {
	Get(c *gin.Context)
	UpsertListing(c *gin.Context)
	UpsertTour(c *gin.Context)
}

type EarningsHTTP interface {
	Compute(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Catalog      CatalogHTTP
	Earnings     EarningsHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter mounts the API under /api/v1 next to the health probes.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "traceparent", actorHeader, idempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/approve", h.Booking.Approve)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/provider/bookings", h.Booking.ListProvider)
	}
	if h.Availability != nil {
		api.GET("/targets/:id/availability", h.Availability.Calendar)
		api.PUT("/targets/:id/availability", h.Availability.Reconcile)
	}
	if h.Catalog != nil {
		api.GET("/targets/:id", h.Catalog.Get)
		api.PUT("/provider/listings/:id", h.Catalog.UpsertListing)
		api.PUT("/provider/tours/:id", h.Catalog.UpsertTour)
	}
	if h.Earnings != nil {
		api.GET("/provider/earnings", h.Earnings.Compute)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

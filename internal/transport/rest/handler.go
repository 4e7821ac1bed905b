package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/config"
	"bookly/internal/domain"
	"bookly/internal/service"
	"bookly/internal/transport/websocket"
)

// HealthChecker is anything /health should ping, such as the database pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
	hub      *websocket.EventHub
	limiter  RateLimiter
	metrics  *Metrics
	health   HealthChecker
}

type Deps struct {
	Services *service.Services
	Logger   *zap.Logger
	Config   *config.Config
	Hub      *websocket.EventHub
	// Limiter and Metrics are optional.
	Limiter RateLimiter
	Metrics *Metrics
	Health  HealthChecker
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		services: deps.Services,
		logger:   deps.Logger,
		config:   deps.Config,
		hub:      deps.Hub,
		limiter:  deps.Limiter,
		metrics:  deps.Metrics,
		health:   deps.Health,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET(h.config.Metrics.Path, h.metrics.handler())
	}

	router.GET("/health", h.healthCheck)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/business/login", h.loginRateLimit(), h.businessLogin)
			auth.POST("/admin/login", h.loginRateLimit(), h.adminLogin)
			auth.POST("/staff/login", h.loginRateLimit(), h.staffLogin)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
			auth.GET("/me", h.authMiddleware(), h.me)
		}

		businesses := api.Group("/businesses")
		{
			businesses.GET("", h.getBusinesses)
			businesses.POST("", h.createBusiness)
			businesses.GET("/:id", h.getBusinessByID)
			businesses.GET("/:id/availability", h.optionalAuthMiddleware(), h.getAvailability)
			businesses.POST("/:id/availability/range", h.rangeSelect)

			owner := businesses.Group("", h.authMiddleware(), h.requireRole(domain.RoleBusiness, domain.RoleAdmin))
			{
				owner.PUT("/:id", h.updateBusiness)
				owner.DELETE("/:id", h.deleteBusiness)
			}
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.getCategories)
			categories.GET("/:id", h.getCategoryByID)

			admin := categories.Group("", h.authMiddleware(), h.requireRole(domain.RoleAdmin))
			{
				admin.POST("", h.createCategory)
				admin.PUT("/:id", h.updateCategory)
				admin.DELETE("/:id", h.deleteCategory)
			}
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.createBooking)

			auth := bookings.Group("", h.authMiddleware())
			{
				auth.GET("", h.getBookings)
				auth.GET("/:id", h.getBookingByID)
				auth.PATCH("/:id", h.requireRole(domain.RoleBusiness, domain.RoleAdmin), h.updateBookingStatus)
			}
		}

		blocked := api.Group("/blocked-slots", h.authMiddleware())
		{
			blocked.GET("", h.getBlockedSlots)
			blocked.POST("", h.createBlockedSlot)
			blocked.POST("/batch", h.blockSlots)
			blocked.DELETE("", h.deleteBlockedSlot)
		}

		locationRequests := api.Group("/location-requests", h.authMiddleware())
		{
			locationRequests.GET("", h.getLocationRequests)
			locationRequests.POST("", h.requireRole(domain.RoleBusiness), h.createLocationRequest)
			locationRequests.GET("/:id", h.getLocationRequestByID)
			locationRequests.PUT("/:id", h.requireRole(domain.RoleAdmin), h.reviewLocationRequest)
			locationRequests.DELETE("/:id", h.deleteLocationRequest)
		}

		admin := api.Group("/admin", h.authMiddleware(), h.requireRole(domain.RoleAdmin))
		{
			admin.GET("/bookings", h.getAllBookings)
		}

		upload := api.Group("", h.authMiddleware())
		{
			upload.POST("/upload", h.uploadImage)
			upload.POST("/upload-image", h.uploadImage)
		}
	}

	if h.hub != nil {
		router.GET("/ws/events", h.hub.HandleWebSocket)
	}
}

// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} successResponseBody
// @Failure 503 {object} errorResponseBody
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			errorResponse(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	successResponse(c, http.StatusOK, gin.H{
		"service": h.config.Name,
		"version": h.config.Version,
	})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequestResponse(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size (defaults 1 and 20, page_size capped at 100).
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func optionalInt64Query(c *gin.Context, keys ...string) (*int64, bool) {
	for _, key := range keys {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequestResponse(c, "invalid "+key)
			return nil, false
		}
		return &v, true
	}
	return nil, true
}

func optionalStringQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

package handlers

import (
	"net/http"

	"heater_controller/internal/logger"
	"heater_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be
// nil, in which case /metrics is not registered.
func NewHandler(services *service.Service, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Status stream; commands need ?token=
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

// Reads are open; anything that changes the heater needs a bearer token.
func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/config", h.getConfig)
		api.GET("/logs", h.getLogs)
		api.GET("/history", h.getHistory)
	}

	protected := api.Group("", h.requireUser)
	{
		protected.PUT("/config", h.putConfig)
		// Body example: {"day_start":"07:00","temps":{"day_temp":21}}
		protected.POST("/config/schedule", h.postSchedule)
		protected.POST("/override", h.postOverride)
		protected.DELETE("/override", h.deleteOverride)
		protected.POST("/safety/reset", h.resetFault)
		protected.POST("/command", h.postCommand)
	}
}

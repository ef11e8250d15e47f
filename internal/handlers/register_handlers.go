package handlers

import (
	"net/http"

	"github.com/SscSPs/usage_billing_app/cmd/docs"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/SscSPs/usage_billing_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// rateLimiter may be nil to disable limiting.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Device-facing API
	setupAPIV1Routes(r, cfg, services, rateLimiter)

	// Signed webhooks from the payment processor and the relay
	registerCallbackRoutes(r, cfg.WebhookSecret, services.Payment, services.Settlement)

	// Operator routes
	admin := r.Group("/admin", middleware.AuthMiddleware(cfg.JWTSecret))
	registerAdminRoutes(admin, services.Ledger)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1", middleware.RateLimit(rateLimiter), middleware.DeviceTokenAuth())

	registerLedgerRoutes(v1, services.Ledger)
	registerUsageRoutes(v1, services.Usage, cfg.RequestTimeout)
	registerJobRoutes(v1, services.Settlement)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

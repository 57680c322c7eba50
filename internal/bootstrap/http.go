package bootstrap

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// Handlers builds the HTTP handlers over the wired services
func (a *App) Handlers() router.Handlers {
	s := a.Services
	return router.Handlers{
		Store:          handler.NewStoreHandler(s.Categories, s.Products, s.DeliveryOptions, s.Orders),
		Cart:           handler.NewCartHandler(s.Carts),
		Checkout:       handler.NewCheckoutHandler(s.Checkout),
		Webhook:        handler.NewWebhookHandler(s.Reconciliation, s.Shipping, a.Config.Server.WebhookBodyLimit),
		Auth:           handler.NewAuthHandler(s.Staff),
		Staff:          handler.NewStaffHandler(s.Staff),
		Category:       handler.NewCategoryHandler(s.Categories),
		Product:        handler.NewProductHandler(s.Products),
		Import:         handler.NewImportHandler(s.Imports),
		Customer:       handler.NewCustomerHandler(s.Customers),
		Order:          handler.NewOrderHandler(s.Orders, s.Shipping),
		Shipment:       handler.NewShipmentHandler(s.Shipping, s.DeliveryOptions),
		Reconciliation: handler.NewReconciliationHandler(s.Reconciliation, s.Emails),
	}
}

// Engine builds the gin engine serving the whole API
func (a *App) Engine(version string) *gin.Engine {
	cfg := a.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORS.AllowOrigins
	if len(cfg.CORS.AllowMethods) > 0 {
		cors.AllowMethods = cfg.CORS.AllowMethods
	}
	if len(cfg.CORS.AllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORS.AllowHeaders
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	sec := router.Security{
		Tokens:      a.Tokens,
		Revocations: a.Revocations,
		Logger:      a.Logger,
	}
	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		limiter = a.limiter("api", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		sec.LoginLimiter = a.limiter("login", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	}

	return router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         a.Logger,
		TrustedProxies: cfg.Server.TrustedProxies,
		CORS:           cors,
		Security:       security,
		MaxBodySize:    cfg.Server.MaxBodySize,
		Limiter:        limiter,
		Metrics:        a.Metrics,
		Profiling:      cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEnabled,
	}, handler.NewSystemHandler(a.Database, version), a.Handlers(), sec)
}

// limiter counts in redis when it is available so every instance shares
// one budget per client
func (a *App) limiter(prefix string, limit int, window time.Duration) middleware.Limiter {
	if a.Stores.Redis != nil {
		return middleware.NewRedisLimiter(a.Stores.Redis, prefix, limit, window)
	}
	return middleware.NewMemoryLimiter(limit, window)
}

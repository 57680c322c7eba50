package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// HealthPath is served outside the versioned API and skipped by request
// logging and tracing
const HealthPath = "/health"

// EngineConfig holds the engine-wide middleware settings
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	// Limiter throttles every request per client IP. Nil disables it.
	Limiter middleware.Limiter
	// Metrics records request counts and latency when set
	Metrics   *telemetry.ShopMetrics
	Profiling bool
}

// NewEngine builds the gin engine with the global middleware stack, the
// health endpoint and every API route. Middleware runs in this order:
// request ID, recovery, tracing, request logging, security headers, CORS,
// body limit, rate limit. Admin routes add JWT auth on top.
func NewEngine(cfg EngineConfig, system *handler.SystemHandler, h Handlers, sec Security) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if sec.Logger == nil {
		sec.Logger = log
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.ServiceName, HealthPath))
	engine.Use(logger.GinMiddleware(log, HealthPath))
	engine.Use(middleware.Secure(cfg.Security))
	engine.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter, log))
	}
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.Profiling {
		engine.Use(middleware.Profiling())
	}

	engine.GET(HealthPath, system.Health)

	NewRouter(engine, WithAPIVersion("v1")).
		Register(APIRoutes(h, sec)...).
		Setup()
	return engine
}

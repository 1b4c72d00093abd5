// Package router wires gin middleware and handler route groups together.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pharmstock/backend/internal/infrastructure/logger"
	"github.com/pharmstock/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router configuration
type Config struct {
	APIVersion   string
	AllowOrigins []string
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	config     Config
	registrars []RouteRegistrar
}

// New creates a gin engine with the standard middleware chain and returns a
// Router that registers route groups under /api/{version}.
func New(cfg Config, log *zap.Logger) *Router {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecurityHeaders(),
	)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.AllowOrigins
	engine.Use(middleware.CORSWithConfig(corsCfg))

	return &Router{
		engine: engine,
		config: cfg,
	}
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes and returns the engine
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/" + r.config.APIVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

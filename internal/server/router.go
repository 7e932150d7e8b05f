package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/abduss/assethost/internal/auth"
	"github.com/abduss/assethost/internal/config"
	"github.com/abduss/assethost/internal/logger"
	"github.com/abduss/assethost/internal/metrics"
	"github.com/abduss/assethost/internal/serve"
	"github.com/abduss/assethost/internal/upload"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessCheck probes one backend the API depends on.
type ReadinessCheck struct {
	Component string
	Check     func(ctx context.Context) error
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	Version       string
	Logger        *zap.Logger
	Readiness     []ReadinessCheck
	AuthService   *auth.Service
	UploadService *upload.Service
	Responder     *serve.Responder
}

// NewRouter builds a Gin engine with foundational middleware and routes.
// Requests that match no route are served as assets.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(logger.AccessLog(log))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	if path := deps.Config.Metrics.PrometheusPath; path != "" {
		metrics.Register(router, path)
	}

	api := router.Group("/v1")
	if deps.AuthService != nil && deps.UploadService != nil {
		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))
		upload.RegisterRoutes(protected, deps.UploadService)
	}

	if deps.Responder != nil {
		serve.RegisterRoutes(router, deps.Responder)
	}
	if deps.UploadService != nil {
		deps.UploadService.ReservePaths(readRoutes(router)...)
	}

	return router
}

// readRoutes lists the static GET paths that shadow assets of the same name.
func readRoutes(router *gin.Engine) []string {
	var paths []string
	for _, route := range router.Routes() {
		if route.Method != http.MethodGet || strings.ContainsAny(route.Path, ":*") {
			continue
		}
		paths = append(paths, route.Path)
	}
	return paths
}

// Package router builds the Gin engine and mounts the feature modules.
package router

import (
	"net/http"
	"time"

	apphttp "fieldcrm_backend/internal/http"
	"fieldcrm_backend/platform/config"
	"fieldcrm_backend/platform/httpkit"
	"fieldcrm_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Options struct {
	Config  *config.Config
	Logger  *logger.Logger
	Modules []apphttp.Module
}

func New(opts Options) *gin.Engine {
	if opts.Config.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpkit.RequestLogger(opts.Logger))
	r.Use(httpkit.SecurityHeaders())
	r.Use(corsMiddleware(opts.Config))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(20), 40, opts.Logger)
	r.Use(limiter.RateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(httpkit.AuthRequired(opts.Config))
	for _, m := range opts.Modules {
		m.RegisterRoutes(api)
	}

	return r
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}

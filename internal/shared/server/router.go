package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawelszalw/HireTree/internal/shared/config"
	"github.com/pawelszalw/HireTree/internal/shared/metrics"
	"github.com/pawelszalw/HireTree/internal/shared/server/middleware"
	"github.com/pawelszalw/HireTree/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config         config.Config
	ProfileHandler routeRegistrar
	AccountHandler routeRegistrar
	UserHandler    routeRegistrar
	GoogleAuth     routeRegistrar
}

type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env),
		middleware.RateLimit(rateLimitConfig()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitConfig throttles the endpoints that reach the AI provider harder
// than plain reads.
func rateLimitConfig() middleware.RateLimitConfig {
	aiPaths := map[string]bool{
		"/api/v1/cv":             true,
		"/api/v1/profile/manual": true,
		"/api/v1/profile/refine": true,
	}
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && aiPaths[c.FullPath()] {
				return "AI"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 30},
			"AI":      {Rate: 0.5, Burst: 5},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-proxy-api/internal/middleware"
	"github.com/noah-isme/sma-proxy-api/internal/models"
)

// Routes bundles the handlers mounted under the API prefix.
type Routes struct {
	Proxy    *ProxyHandler
	Register *RegisterHandler
	Metrics  *MetricsHandler
	// Auth authenticates every API route. Nil leaves the routes open, which only tests use.
	Auth gin.HandlerFunc
}

// Mount attaches probes at the root and the proxy API under prefix.
func Mount(router gin.IRouter, prefix string, routes Routes) {
	if routes.Metrics != nil {
		router.GET("/health", routes.Metrics.Health)
		router.GET("/ready", routes.Metrics.Ready)
		router.GET("/metrics", routes.Metrics.Prometheus)
	}

	api := router.Group(prefix)
	if routes.Auth != nil {
		api.Use(routes.Auth)
	}

	readers := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	if routes.Proxy != nil {
		proxies := api.Group("/proxies")
		proxies.GET("/day-slot", readers, routes.Proxy.DaySlot)
		proxies.GET("/available", readers, routes.Proxy.Available)
		proxies.GET("/recommendations", readers, routes.Proxy.Recommendations)
		proxies.GET("/absences/:teacherId/periods", readers, routes.Proxy.AbsentPeriods)
		proxies.GET("", readers, routes.Proxy.List)
		proxies.POST("/commit", managers, routes.Proxy.Commit)
		proxies.DELETE("/:id", managers, routes.Proxy.Delete)

		api.GET("/absences", readers, routes.Proxy.Absences)
	}

	if routes.Register != nil {
		api.GET("/proxies/register", readers, routes.Register.Download)
	}
}

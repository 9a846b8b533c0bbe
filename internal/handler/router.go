package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
)

// Routes bundles the handlers mounted on the API engine.
type Routes struct {
	Prefix      string
	Auth        middleware.TokenValidator
	Sections    *SectionHandler
	Maintenance *MaintenanceHandler
	Metrics     *MetricsHandler
}

// Register mounts every route on r. A nil Maintenance handler leaves the maintenance API unmounted.
func Register(r *gin.Engine, routes Routes) {
	if routes.Metrics != nil {
		r.GET("/health", routes.Metrics.Health)
		r.GET("/ready", routes.Metrics.Ready)
		r.GET("/metrics", routes.Metrics.Prometheus)
	}

	api := r.Group(routes.Prefix)
	api.Use(middleware.JWT(routes.Auth))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleDean)
	anyone := middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleInstructor, models.RoleStudent)

	if routes.Sections != nil {
		api.POST("/sections", staff, routes.Sections.Create)
		api.GET("/sections/code/:code", anyone, routes.Sections.FindByCode)
		api.GET("/sections/:id", anyone, routes.Sections.Get)
		api.PATCH("/sections/:id/status", staff, routes.Sections.UpdateStatus)
		api.GET("/offerings/:id/sections", anyone, routes.Sections.ListByOffering)
	}

	if routes.Maintenance != nil {
		admin := middleware.RequireRoles(models.RoleAdmin)
		maintenance := api.Group("/maintenance")
		maintenance.GET("/reconcile/pending", staff, routes.Maintenance.Pending)
		maintenance.GET("/reconcile/last", staff, routes.Maintenance.LastReconcile)
		maintenance.POST("/reconcile", admin, routes.Maintenance.Reconcile)
		maintenance.POST("/backfill-codes", admin, routes.Maintenance.BackfillCodes)
	}
}

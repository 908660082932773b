package controller

import (
	"github.com/gin-gonic/gin"
)

// Controllers groups the API handlers mounted by RegisterRoutes
type Controllers struct {
	Health  *HealthController
	Sources *SourceController
	Loads   *LoadController
}

// Access holds the middleware chains applied by RegisterRoutes. Protect
// runs before every /api/v1 handler except the parser listing, which runs
// Public instead. Admin runs after Protect on permanent deletion and
// unarchiving.
type Access struct {
	Protect []gin.HandlerFunc
	Public  []gin.HandlerFunc
	Admin   []gin.HandlerFunc
}

// RegisterRoutes mounts the API
func RegisterRoutes(router *gin.Engine, ctrls Controllers, access Access) {
	// Health check endpoint (always available)
	router.GET("/health", ctrls.Health.HealthCheck)

	api := router.Group("/api/v1")

	// Public endpoints
	public := api.Group("", access.Public...)
	public.GET("/parsers", ctrls.Health.ListParsers)

	auth := api.Group("", access.Protect...)
	{
		sources := auth.Group("/sources")
		{
			sources.POST("", ctrls.Sources.CreateSource)
			sources.GET("", ctrls.Sources.ListSources)
			sources.POST("/check/name", ctrls.Sources.CheckName)
			sources.POST("/test", ctrls.Loads.TestSource)
			sources.GET("/:id", ctrls.Sources.GetSource)
			sources.PUT("/:id", ctrls.Sources.UpdateSource)
			sources.POST("/:id/load", ctrls.Loads.LoadSource)
			sources.GET("/:id/stats", ctrls.Loads.SourceStats)
		}

		admin := sources.Group("", access.Admin...)
		{
			admin.PUT("/unarchive/:id", ctrls.Sources.UnarchiveSource)
			admin.DELETE("/:id", ctrls.Sources.DeleteSource)
		}

		auth.GET("/loads/stats", ctrls.Loads.Summary)
	}
}

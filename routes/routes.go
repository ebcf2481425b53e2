package routes

import (
	"github.com/gin-gonic/gin"

	"volur/controllers"
)

func Routes(r *gin.Engine, valuationController controllers.ValuationControllerI, cacheController controllers.CacheControllerI) {

	v1 := r.Group("/api")

	{
		v1.GET("/keepServerRunning", controllers.HealthController.IsRunning)
		v1.GET("/sources", valuationController.ListSources)
		v1.GET("/valuation/:ticker", valuationController.GetValuation)
		v1.POST("/valuation/batch", valuationController.AnalyzeBatch)
		v1.GET("/export", valuationController.ExportValuations)
		v1.GET("/valuations", valuationController.ListValuations)
		v1.GET("/valuations/:ticker/:source", valuationController.GetStoredValuation)
		v1.DELETE("/cache", cacheController.ClearCache)
	}
}

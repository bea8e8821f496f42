package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers/file"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func RegisterRoutes(r *gin.Engine, files *file.Handler, health *handlers.Health) {
	// Enable CORS for preflight requests
	r.Use(corsMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", health.Handle)
		api.GET("/status", health.Handle)

		api.GET("/files", files.List)                     // list with search/fileType/minCreated
		api.POST("/files", files.Register)                // register an existing or new file
		api.POST("/files/download", files.DownloadBatch)  // one file as is, several as zip
		api.GET("/files/:id", files.Get)                  // single record
		api.PUT("/files/:id", files.Update)               // rename / move
		api.DELETE("/files/:id", files.Delete)            // record, then backing file
		api.GET("/files/:id/download", files.DownloadOne) // stream one file
	}
}

package collector

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewStatsRouter exposes collector health and pipeline counters over HTTP.
func NewStatsRouter(pipe *Pipeline) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, pipe.Snapshot())
	})

	return router
}

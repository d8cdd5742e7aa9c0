package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaching-analytics/internal/infrastructure/db"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"status":    "alive",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "using_memory"
	if s.db != nil {
		dbStatus = "ok"
		if err := db.Ping(c.Request.Context(), s.db); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}
	cacheStatus := "disabled"
	if s.cache != nil {
		cacheStatus = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"health":  "ok",
		"db":      dbStatus,
		"cache":   cacheStatus,
		"breaker": s.breaker.State(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

package handlers

import (
	"net/http"

	"diaglab/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler returns the last dependency snapshot taken by the health monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy && !status.CheckedAt.IsZero() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "message": "Hi, I'm diaglab"})
}

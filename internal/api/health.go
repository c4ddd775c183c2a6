package api

import (
	"net/http" // HTTP status codes
	"time"     // Timestamps

	"github.com/gin-gonic/gin" // Gin web framework
)

// Version is reported by the health check
const Version = "1.0.0"

// HealthHandler reports that the API is up
func HealthHandler(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,                                  // Always true while serving
			"message":     "Wallet admin API is running",         // Human readable status
			"timestamp":   time.Now().UTC().Format(time.RFC3339), // Server time
			"environment": environment,                           // production or development
			"version":     Version,                               // API version
		})
	}
}

// NotFoundHandler answers unknown routes with JSON instead of gin's plain text
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,              // Request failed
			"error":   "Route not found",  // Error message
			"path":    c.Request.URL.Path, // Requested path
		})
	}
}

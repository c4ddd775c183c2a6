package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"wallet_admin/internal/domain" // Domain errors
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrSelfActionForbidden),
		errors.Is(err, domain.ErrUnknownTemplate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountSuspended):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body; unexpected errors are logged and hidden
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(), // Route
			"error": err.Error(),  // Error message
		}).Error("Request failed") // Log unexpected failure
		c.JSON(status, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

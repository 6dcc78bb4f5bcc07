package errors

import (
	"github.com/gin-gonic/gin"

	"github.com/watchdeck/watchdeck/internal/logger"
)

// Respond sends err as a standardized JSON response and logs it.
func Respond(c *gin.Context, err error) {
	kind := KindOf(err)
	status := HTTPStatus(kind)

	logger.Error("HTTP error response",
		[]logger.Field{
			logger.Int("status", status),
			logger.String("code", string(kind)),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
			logger.Err("error", err),
		})

	c.JSON(status, gin.H{
		"error": PublicMessage(err),
		"code":  string(kind),
	})
}

// RespondValidation sends a validation error for a specific field.
func RespondValidation(c *gin.Context, message, field string) {
	c.JSON(HTTPStatus(KindValidation), gin.H{
		"error":   message,
		"code":    string(KindValidation),
		"details": gin.H{"field": field},
	})
}

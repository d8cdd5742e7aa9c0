package httpapi

import (
	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeInvalidMetric = "INVALID_METRIC"
	errCodeInvalidPeriod = "INVALID_PERIOD"
	errCodeRateLimited   = "RATE_LIMITED"
	errCodeUnavailable   = "SOURCE_UNAVAILABLE"
	errCodeNotFound      = "NOT_FOUND"
	errCodeInternal      = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"error_code": code,
	})
}

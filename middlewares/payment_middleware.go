package middlewares

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// PaymentRateLimiter caps payment starts across all clients.
func PaymentRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Second), 10)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "please wait before making another payment request",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ValidateOrderID rejects a non-numeric :id before the handler runs and
// stores the parsed value under "order_id".
func ValidateOrderID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
			c.Abort()
			return
		}
		c.Set("order_id", uint(id))
		c.Next()
	}
}

// LogPaymentRequest logs payment request details
func LogPaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		utils.InfoLogger.Printf(
			"Payment Request - Method: %s, Path: %s, Status: %d, Duration: %v",
			method, path, c.Writer.Status(), time.Since(start),
		)
	}
}

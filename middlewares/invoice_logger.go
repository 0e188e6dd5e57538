package middlewares

import (
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
)

func InvoiceLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Generating invoice for order ID: %s", c.Param("id"))

		c.Next()

		if c.Writer.Status() == 200 {
			utils.InfoLogger.Printf("Invoice generated for order ID: %s (%d bytes)", c.Param("id"), c.Writer.Size())
		} else {
			utils.ErrorLogger.Printf("Failed to generate invoice for order ID: %s, status %d", c.Param("id"), c.Writer.Status())
		}
	}
}

package middlewares

import (
	"fmt"
	"net/http"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
)

// RoleCheck lets through the listed roles. Admins always pass.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", firstRole(roles)))
		c.Abort()
	}
}

// StaffOnly is RoleCheck for admin routes.
func StaffOnly() gin.HandlerFunc {
	return RoleCheck(models.RoleAdmin)
}

func firstRole(roles []string) string {
	if len(roles) == 0 {
		return models.RoleAdmin
	}
	return roles[0]
}

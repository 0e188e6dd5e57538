package controllers

import (
	"net/http"

	"github.com/Clean-PRO/backend/dispatch"
	"github.com/Clean-PRO/backend/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DispatchHandler -> staff websocket feed of order events on hub
func DispatchHandler(hub *dispatch.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		role, _ := roleInterface.(string)

		if role != models.RoleAdmin && role != models.RoleCleaner {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.RegisterClient(ws, role)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		hub.UnregisterClient(ws)
	}
}

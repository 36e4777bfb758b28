package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS answers every OPTIONS request with permissive headers before any
// endpoint matching, and marks every other response as allowed for any
// origin. When disabled it is a no-op.
func CORS(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Headers", "*")
			h.Set("Access-Control-Allow-Method", "*")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// Commands are attributed to the local operator.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id_str", "local")
		c.Next()
	}
}

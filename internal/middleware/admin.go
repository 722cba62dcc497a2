package middleware

import (
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/util"
	"github.com/gin-gonic/gin"
)

// RequireAdmin ensures the request is authenticated and the user has the admin
// role. The user record must be set by an earlier auth middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get("user")
		if !exists {
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}

		user, ok := userInterface.(*models.User)
		if !ok {
			util.RespondUnauthorized(c, "invalid user context")
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			util.RespondForbidden(c, "admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

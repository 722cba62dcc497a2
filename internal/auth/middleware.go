package auth

import (
	"strings"

	"github.com/HoVietThang190704/social-app-sub001/internal/util"
	"github.com/gin-gonic/gin"
)

// Middleware validates the Authorization header and loads the user into the
// request context under "user" and "user_id".
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		user, err := s.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/pkg/response"
)

// RequireGlobalRole returns a middleware that allows only callers holding at
// least one of the given global roles. Call after JWT.
func RequireGlobalRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := authz.CallerFrom(c)
		for _, r := range roles {
			if caller.HasRole(r) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
